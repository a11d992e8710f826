package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/inspector/internal/images"
	"github.com/lehigh-university-libraries/inspector/internal/models"
	"github.com/lehigh-university-libraries/inspector/internal/storage"
)

// Inspector turns a stored image into an inspection result. It must not fail:
// errors are reported through a sentinel result.
type Inspector interface {
	InspectFile(ctx context.Context, path string) models.InspectionResult
	Provider() string
	Model() string
}

type Handler struct {
	inspector      Inspector
	uploads        *storage.Uploads
	batches        *storage.BatchStore
	thumbnailSize  int
	maxUploadBytes int64
}

// Options tune upload handling. Zero values select the defaults.
type Options struct {
	ThumbnailSize  int
	MaxUploadBytes int64
	HistorySize    int
}

const defaultMaxUploadBytes = 32 << 20

func New(inspector Inspector, uploads *storage.Uploads, opts Options) *Handler {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = images.DefaultThumbnailSize
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		inspector:      inspector,
		uploads:        uploads,
		batches:        storage.New(opts.HistorySize),
		thumbnailSize:  opts.ThumbnailSize,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

// Routes registers every endpoint on a new mux
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", h.HandleAnalyze)
	mux.HandleFunc("/api/batches", h.HandleBatches)
	mux.HandleFunc("/api/batches/", h.HandleBatchDetail)
	mux.HandleFunc("/uploads/", h.HandleUploads)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return withCORS(mux)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{Error: message})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
