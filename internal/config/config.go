package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port       string   `toml:"port"`
	ClientURLs []string `toml:"client_urls"`

	DatabaseURL string `toml:"database_url"`
	DBHost      string `toml:"db_host"`
	DBPort      string `toml:"db_port"`
	DBUser      string `toml:"db_user"`
	DBPassword  string `toml:"db_password"`
	DBName      string `toml:"db_name"`
	DBSSLMode   string `toml:"db_sslmode"`

	JWTSecret string        `toml:"jwt_secret"`
	TokenTTL  time.Duration `toml:"-"`

	// OAuthSecret authenticates the frontend server relaying provider
	// sign-ins. OAuth sign-in is disabled while it is empty.
	OAuthSecret string `toml:"oauth_secret"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// NotifyChannel enables the Postgres LISTEN/NOTIFY bridge for change
	// events when non-empty.
	NotifyChannel string `toml:"notify_channel"`

	// Mutations per second allowed for one actor, with Burst on top.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// Default config values
func Default() Config {
	return Config{
		Port:       "8080",
		ClientURLs: []string{"*"},
		DBHost:     "localhost",
		DBPort:     "5432",
		DBSSLMode:  "disable",
		TokenTTL:   72 * time.Hour,
		LogLevel:   "info",
		LogFormat:  "text",
		RateLimit:  5,
		RateBurst:  10,
	}
}

// Load builds the configuration from defaults, the optional TOML file at
// path, a .env file if present, and finally the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("PORT", &cfg.Port)
	setString("DATABASE_URL", &cfg.DatabaseURL)
	setString("DB_HOST", &cfg.DBHost)
	setString("DB_PORT", &cfg.DBPort)
	setString("DB_USER", &cfg.DBUser)
	setString("DB_PASSWORD", &cfg.DBPassword)
	setString("DB_NAME", &cfg.DBName)
	setString("DB_SSLMODE", &cfg.DBSSLMode)
	setString("JWT_SECRET", &cfg.JWTSecret)
	setString("OAUTH_SECRET", &cfg.OAuthSecret)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("LOG_FORMAT", &cfg.LogFormat)
	setString("NOTIFY_CHANNEL", &cfg.NotifyChannel)

	if v := os.Getenv("CLIENT_URLS"); v != "" {
		cfg.ClientURLs = splitList(v)
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = limit
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.DatabaseURL == "" && (c.DBUser == "" || c.DBName == "") {
		return errors.New("database_url or db_user and db_name are required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	return nil
}

// DSN returns the connection string for the database.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}
