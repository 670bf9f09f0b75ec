package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/rlcompare/internal/api"
	"github.com/andresuchdata/rlcompare/internal/app"
	"github.com/andresuchdata/rlcompare/internal/config"
	"github.com/andresuchdata/rlcompare/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger.SetLevel(cfg.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, closeRefs, err := app.NewComparisonService(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize comparison service")
	}
	defer closeRefs()

	// Warm the first session so the first request does not pay for the load
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 2*time.Minute)
	if ds, err := svc.Dataset(loadCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Initial load failed, will retry on first request")
	} else {
		logger.Log.Info().Str("session", ds.SessionID).Int("rows", len(ds.Rows)).Msg("Initial dataset ready")
	}
	cancelLoad()

	router := api.NewRouter(&api.Services{ComparisonService: svc}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
