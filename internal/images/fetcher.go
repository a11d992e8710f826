package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// maxFetchBytes caps a single downloaded image
const maxFetchBytes = 64 << 20

// Fetcher retrieves remote images so they can be inspected like local files
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsURL reports whether s names an http or https resource
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch downloads the image at rawURL into outputDir and returns the local path
func (f *Fetcher) Fetch(ctx context.Context, rawURL, outputDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}
	if len(imageData) == 0 {
		return "", fmt.Errorf("image URL returned an empty body")
	}
	if len(imageData) > maxFetchBytes {
		return "", fmt.Errorf("image larger than %d bytes", maxFetchBytes)
	}

	mtype := mimetype.Detect(imageData)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("URL did not return an image (got %s)", mtype.String())
	}

	out, err := createUnique(outputDir, remoteName(rawURL, mtype.Extension()))
	if err != nil {
		return "", err
	}
	outputPath := out.Name()
	if _, err := out.Write(imageData); err != nil {
		out.Close()
		os.Remove(outputPath)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	slog.Debug("Downloaded image", "url", rawURL, "path", outputPath, "bytes", len(imageData), "mime", mtype.String())
	return outputPath, nil
}

// remoteName derives a local file name from the last URL path segment
func remoteName(rawURL, ext string) string {
	name := "image"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	if filepath.Ext(name) == "" {
		name += ext
	}
	return name
}

// createUnique creates name in dir, or name-1, name-2, ... when taken. The
// file is created with O_EXCL so concurrent fetches never share a path.
func createUnique(dir, name string) (*os.File, error) {
	candidate := filepath.Join(dir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
}
