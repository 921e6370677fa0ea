package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/devflow/backend/internal/config"
	"github.com/emilythestrangee/devflow/backend/internal/database"
	"github.com/emilythestrangee/devflow/backend/internal/handlers"
	"github.com/emilythestrangee/devflow/backend/internal/middleware"
)

// Deps are the collaborators the router needs.
type Deps struct {
	DB      database.Service
	Handler *handlers.Handler
	Tokens  middleware.TokenVerifier
	Limiter *middleware.Limiter
	Logger  *slog.Logger
}

type Server struct {
	cfg  config.Config
	deps Deps
}

// NewServer creates the HTTP server for cfg.
func NewServer(cfg config.Config, deps Deps) *http.Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{cfg: cfg, deps: deps}

	return &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.deps.Logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.ClientURLs,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-Cache"},
		AllowCredentials: !allowsAny(s.cfg.ClientURLs),
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := s.deps.Handler
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/auth/sign-up", h.Auth.Register)
		api.POST("/auth/sign-in", h.Auth.Login)
		api.POST("/auth/oauth", h.Auth.OAuthLogin)

		// Public reads; a token, when present, personalises the result
		public := api.Group("")
		public.Use(middleware.OptionalAuth(s.deps.Tokens))
		{
			public.GET("/questions", h.Question.GetQuestions)
			public.GET("/questions/hot", h.Question.GetHotQuestions)
			public.GET("/questions/:id", h.Question.GetQuestion)
			public.POST("/questions/:id/views", s.limited(h.Question.IncrementViews)...)
			public.GET("/questions/:id/answers", h.Answer.GetAnswers)

			public.GET("/tags", h.Tag.GetTags)
			public.GET("/tags/:id/questions", h.Tag.GetTagQuestions)

			public.GET("/users", h.User.GetUsers)
			public.GET("/users/:id", h.User.GetUserProfile)
			public.GET("/users/:id/questions", h.User.GetUserQuestions)
			public.GET("/users/:id/answers", h.User.GetUserAnswers)

			public.GET("/search", h.Search.Search)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.deps.Tokens))
		if s.deps.Limiter != nil {
			protected.Use(middleware.RateLimit(s.deps.Limiter))
		}
		{
			protected.GET("/me", h.Auth.GetMe)

			protected.POST("/questions", h.Question.CreateQuestion)
			protected.PUT("/questions/:id", h.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", h.Question.DeleteQuestion)

			protected.POST("/questions/:id/answers", h.Answer.CreateAnswer)
			protected.DELETE("/answers/:id", h.Answer.DeleteAnswer)

			protected.POST("/votes", h.Vote.CreateVote)
			protected.GET("/votes", h.Vote.HasVoted)

			protected.POST("/collections", h.Collection.ToggleSave)
			protected.GET("/collections", h.Collection.GetSaved)
			protected.GET("/collections/:questionId", h.Collection.HasSaved)
		}
	}

	return r
}

// limited puts the rate limiter in front of handlers when one is configured.
// Anonymous callers are limited per client IP.
func (s *Server) limited(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	if s.deps.Limiter == nil {
		return handlers
	}
	return append([]gin.HandlerFunc{middleware.RateLimit(s.deps.Limiter)}, handlers...)
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.deps.DB.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

// allowsAny reports whether origins is the "*" wildcard, which the CORS
// middleware refuses to combine with credentials.
func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
