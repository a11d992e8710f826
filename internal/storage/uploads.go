package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidName is returned for names that would escape the uploads directory
var ErrInvalidName = errors.New("invalid file name")

const maxNameAttempts = 1000

// Uploads stores uploaded files and their derivatives in one directory
type Uploads struct {
	dir string
	now func() time.Time
}

// NewUploads returns a store rooted at dir. The directory is created on first write.
func NewUploads(dir string) *Uploads {
	return &Uploads{dir: dir, now: time.Now}
}

// Dir returns the uploads directory
func (u *Uploads) Dir() string {
	return u.dir
}

// Path returns the full path of a stored file
func (u *Uploads) Path(name string) string {
	return filepath.Join(u.dir, name)
}

// StorageName builds the name a new upload is stored under: the current
// unix time in milliseconds, a dash, and the base of the original filename.
func (u *Uploads) StorageName(original string) string {
	return storageName(u.now().UnixMilli(), original)
}

func storageName(millis int64, original string) string {
	return strconv.FormatInt(millis, 10) + "-" + sanitize(original)
}

// Save copies r into the uploads directory under a fresh storage name. When
// the name is taken, the timestamp is advanced until a free name is found.
func (u *Uploads) Save(original string, r io.Reader) (string, error) {
	if err := os.MkdirAll(u.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	var (
		name string
		f    *os.File
		err  error
	)
	millis := u.now().UnixMilli()
	for attempt := int64(0); attempt < maxNameAttempts; attempt++ {
		name = storageName(millis+attempt, original)
		f, err = os.OpenFile(u.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to create upload: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(u.Path(name))
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	slog.Info("Image saved", "filename", name, "original", original)
	return name, nil
}

// Open opens a stored file for reading. Names containing path separators, "."
// and ".." are rejected.
func (u *Uploads) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return nil, ErrInvalidName
	}
	return os.Open(u.Path(name))
}

// Prune removes stored files last modified before cutoff. With dryRun set
// nothing is removed. It returns the names that were (or would be) removed.
func (u *Uploads) Prune(cutoff time.Time, dryRun bool) ([]string, error) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Warn("Unable to stat upload", "name", entry.Name(), "err", err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if !dryRun {
			if err := os.Remove(u.Path(entry.Name())); err != nil {
				return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
			}
		}
		removed = append(removed, entry.Name())
	}

	return removed, nil
}

// sanitize keeps only the base name of an uploaded filename
func sanitize(original string) string {
	name := strings.ReplaceAll(original, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == ".." || name == "" {
		return "upload"
	}
	return name
}
