package handlers

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/inspector/internal/storage"
)

// HandleUploads serves stored originals and thumbnails from the uploads directory
func (h *Handler) HandleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/uploads/")

	file, err := h.uploads.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			http.Error(w, "Invalid file path", http.StatusBadRequest)
		case errors.Is(err, fs.ErrNotExist):
			http.NotFound(w, r)
		default:
			slog.Error("Unable to open upload", "name", name, "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), file)
}
