// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/curator-chat/internal/config"
	"github.com/capitalize-ai/curator-chat/internal/handler"
	"github.com/capitalize-ai/curator-chat/internal/llm"
	"github.com/capitalize-ai/curator-chat/internal/service"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
	"github.com/capitalize-ai/curator-chat/pkg/tracing"
)

const serviceName = "curator-chat"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Open the session store
	sessions, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open session store", zap.String("backend", cfg.StorageBackend), zap.Error(err))
		os.Exit(1)
	}
	defer sessions.Close()

	// Initialize LLM client. Without one every reply after the opening is
	// the category fallback.
	var llmClient llm.Client
	if c, err := llm.NewClient(ctx, llm.Provider(cfg.LLMProvider), cfg.APIKey()); err != nil {
		log.Warn("LLM client unavailable, replies will use fallback text",
			zap.String("provider", cfg.LLMProvider),
			zap.Error(err),
		)
	} else {
		llmClient = c
		log.Info("LLM client ready", zap.String("provider", c.Name()))
	}

	// Initialize services
	generator := service.NewResponseGenerator(llmClient, service.GeneratorConfig{
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.GenerationTimeout,
	}, log)
	chatSvc := service.NewChatService(sessions, generator, log)

	// Create router
	r := handler.NewRouter(chatSvc, sessions, handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
