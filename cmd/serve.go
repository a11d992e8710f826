package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/inspector/internal/config"
	"github.com/lehigh-university-libraries/inspector/internal/handlers"
	"github.com/lehigh-university-libraries/inspector/internal/inspection"
	"github.com/lehigh-university-libraries/inspector/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port       string
		uploadsDir string
		provider   string
		model      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the inspection web service",
		Long: `Starts the Inspector HTTP service.

POST image files to /api/analyze as multipart field "files" to receive a
per-image verdict. Uploaded originals and their thumbnails are served back
under /uploads/.`,
		Example: `  # Start server on default port 3001
  inspector serve

  # Use a local Ollama model on a custom port
  inspector serve --port 8080 --provider ollama --model llava`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load().WithProvider(provider, model)
			if port != "" {
				cfg.Port = port
			}
			if uploadsDir != "" {
				cfg.UploadsDir = uploadsDir
			}

			svc, closeProvider, err := inspection.NewServiceFromConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeProvider(); err != nil {
					slog.Error("Unable to close provider", "err", err)
				}
			}()

			handler := handlers.New(svc, storage.NewUploads(cfg.UploadsDir), handlers.Options{
				ThumbnailSize:  cfg.ThumbnailSize,
				MaxUploadBytes: cfg.MaxUploadMB << 20,
				HistorySize:    cfg.HistorySize,
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Inspector service available",
					"addr", addr,
					"url", "http://localhost"+addr,
					"provider", cfg.Provider,
					"model", cfg.Model,
					"uploads", cfg.UploadsDir)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default $PORT or 3001)")
	cmd.Flags().StringVar(&uploadsDir, "uploads", "", "Directory for stored uploads (default $UPLOADS_DIR or ./uploads)")
	cmd.Flags().StringVar(&provider, "provider", "", "Vision provider: openai, ollama, gemini (default $INSPECTION_PROVIDER or openai)")
	cmd.Flags().StringVar(&model, "model", "", "Model name (default depends on provider)")

	return cmd
}
