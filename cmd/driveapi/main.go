package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/andresuchdata/rlcompare/internal/app"
	"github.com/andresuchdata/rlcompare/internal/config"
	"github.com/andresuchdata/rlcompare/internal/drive"
	"github.com/andresuchdata/rlcompare/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	driveService, err := drive.NewServiceFromFile(context.Background(), cfg.Drive.CredentialsFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	svc, closeRefs, err := app.NewComparisonService(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize comparison service")
	}
	defer closeRefs()

	// Reload after every sync so the response reports the new load outcomes
	afterSync := func(ctx context.Context, paths []string) (any, error) {
		ds, err := svc.Reload(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"session_id": ds.SessionID,
			"rows":       len(ds.Rows),
			"outcomes":   ds.Outcomes,
		}, nil
	}

	r := mux.NewRouter()
	drive.NewHandler(driveService, cfg.Drive.FolderID, cfg.App.DataDir, afterSync).RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Drive.AdminPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Log.Info().Str("addr", addr).Msg("Drive sync server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatal().Err(err).Msg("Drive sync server stopped")
	}
}
