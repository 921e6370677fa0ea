package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emilythestrangee/devflow/backend/internal/auth"
	"github.com/emilythestrangee/devflow/backend/internal/cache"
	"github.com/emilythestrangee/devflow/backend/internal/config"
	"github.com/emilythestrangee/devflow/backend/internal/database"
	"github.com/emilythestrangee/devflow/backend/internal/events"
	"github.com/emilythestrangee/devflow/backend/internal/handlers"
	"github.com/emilythestrangee/devflow/backend/internal/middleware"
	"github.com/emilythestrangee/devflow/backend/internal/server"
	"github.com/emilythestrangee/devflow/backend/internal/service"
	"github.com/emilythestrangee/devflow/backend/internal/store"
)

const (
	pageTTL         = 5 * time.Minute
	shutdownTimeout = 5 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "devflow",
		Short:        "DevFlow Q&A backend",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")

	load := func() (config.Config, *slog.Logger, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return cfg, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return cfg, nil, err
		}
		logger := newLogger(cfg)
		slog.SetDefault(logger)
		return cfg, logger, nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			db, err := database.New(cfg.DSN(), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db.GetDB()); err != nil {
				return err
			}
			logger.Info("schema up to date")
			return nil
		},
	})

	return root
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := database.New(cfg.DSN(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("close database", "err", err)
		}
	}()
	if err := database.Migrate(ctx, db.GetDB()); err != nil {
		return err
	}

	// Commits publish touched paths on the local bus, and across instances
	// through Postgres when a notify channel is configured.
	bus := events.NewMemoryBus(logger)
	var publisher events.Bus = bus
	var notifier *events.Notifier
	if cfg.NotifyChannel != "" {
		notifier = events.NewNotifier(bus, db.GetDB(), cfg.NotifyChannel)
		publisher = notifier
	}

	st := store.New(db.GetDB())
	st.OnCommit(events.Publisher(publisher, logger))

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	svc := service.New(st, tokens, logger)
	pages := cache.New(pageTTL, logger)
	limiter := middleware.NewLimiter(cfg.RateLimit, cfg.RateBurst)

	gin.SetMode(gin.ReleaseMode)
	srv := server.NewServer(cfg, server.Deps{
		DB:      db,
		Handler: handlers.NewHandler(svc, pages, cfg.OAuthSecret),
		Tokens:  tokens,
		Limiter: limiter,
		Logger:  logger,
	})

	changes, cancel := bus.Subscribe()
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pages.Run(ctx, changes)
		return nil
	})
	g.Go(func() error {
		limiter.Run(ctx)
		return nil
	})
	if notifier != nil {
		listener := events.NewListener(cfg.DSN(), cfg.NotifyChannel, notifier.Origin(), bus, logger)
		g.Go(func() error { return listener.Run(ctx) })
	}
	g.Go(func() error {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down gracefully, press Ctrl+C again to force")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("server exiting")
		return nil
	})

	return g.Wait()
}
