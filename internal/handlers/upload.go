package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/inspector/internal/images"
	"github.com/lehigh-university-libraries/inspector/internal/models"
)

// uploadedImage is a multipart file after it has been written to the uploads directory
type uploadedImage struct {
	originalName string
	storageName  string
}

// HandleAnalyze stores every file of the "files" field, then thumbnails and
// inspects each one in upload order.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, fmt.Sprintf("Upload too large (max %d bytes)", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		slog.Warn("Unable to parse multipart form", "err", err)
		h.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Unable to remove multipart temp files", "err", err)
		}
	}()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	batchID := uuid.NewString()
	logger := slog.With("batch_id", batchID)
	logger.Info("Analyzing batch", "files", len(files), "provider", h.inspector.Provider(), "model", h.inspector.Model())

	stored, err := h.storeFiles(files)
	if err != nil {
		logger.Error("Error processing files", "err", err)
		h.writeError(w, "Error processing files", http.StatusInternalServerError)
		return
	}

	results := make([]models.AnalyzedImage, 0, len(stored))
	for i, upload := range stored {
		path := h.uploads.Path(upload.storageName)
		thumbnailName, err := images.CreateThumbnail(path, h.thumbnailSize)
		if err != nil {
			logger.Error("Error processing files", "file", upload.storageName, "err", err)
			h.writeError(w, "Error processing files", http.StatusInternalServerError)
			return
		}
		if width, height, err := images.Dimensions(path); err == nil {
			logger.Debug("Thumbnail created", "file", upload.storageName, "width", width, "height", height, "thumbnail", thumbnailName)
		}

		analysis := h.inspector.InspectFile(r.Context(), path)
		logger.Info("Image analyzed",
			"progress", fmt.Sprintf("%d/%d", i+1, len(stored)),
			"file", upload.storageName,
			"object", analysis.Object,
			"defective", analysis.Defective,
		)

		results = append(results, models.AnalyzedImage{
			ImageName:     upload.originalName,
			ImagePath:     upload.storageName,
			ThumbnailPath: thumbnailName,
			Analysis:      analysis,
		})
	}

	h.batches.Set(&models.Batch{
		ID:        batchID,
		Provider:  h.inspector.Provider(),
		Model:     h.inspector.Model(),
		CreatedAt: time.Now(),
		Count:     len(results),
		Results:   results,
	})

	w.Header().Set("X-Batch-Id", batchID)
	h.writeJSON(w, http.StatusOK, models.BatchResponse{
		Success: true,
		Count:   len(results),
		Results: results,
	})
}

func (h *Handler) storeFiles(files []*multipart.FileHeader) ([]uploadedImage, error) {
	stored := make([]uploadedImage, 0, len(files))
	for _, header := range files {
		name, err := h.storeFile(header)
		if err != nil {
			return nil, err
		}
		stored = append(stored, uploadedImage{originalName: header.Filename, storageName: name})
	}
	return stored, nil
}

func (h *Handler) storeFile(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", header.Filename, err)
	}
	defer file.Close()

	return h.uploads.Save(header.Filename, file)
}
