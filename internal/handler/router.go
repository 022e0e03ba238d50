package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/curator-chat/internal/middleware"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	// JWTSecret enables identity tokens. Empty ignores Authorization headers.
	JWTSecret         string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter wires the API routes.
func NewRouter(svc ChatService, store Pinger, cfg RouterConfig, log *logger.Logger) http.Handler {
	chat := NewChatHandler(svc, log)
	health := NewHealthHandler(store, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health endpoints
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			r.Use(middleware.Identity(cfg.JWTSecret))
		}
		if cfg.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
		}

		r.Get("/categories", chat.Categories)

		r.Post("/chat", chat.Send)
		r.Get("/chat/{sessionId}", chat.Get)

		r.Get("/user/{userId}/chats", chat.ListUserSessions)
	})

	return r
}
