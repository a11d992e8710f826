package images

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailSize is the bounding box, in pixels, thumbnails are fitted into
const DefaultThumbnailSize = 150

// ThumbnailName inserts "-thumb" before the extension of name
func ThumbnailName(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return name + "-thumb"
	}
	return strings.TrimSuffix(name, ext) + "-thumb" + ext
}

// CreateThumbnail writes a copy of the image at path, scaled to fit inside a
// size x size box without enlargement, next to the original. It returns the
// thumbnail's base name.
func CreateThumbnail(path string, size int) (string, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := fit(img, size)

	thumbPath := filepath.Join(filepath.Dir(path), ThumbnailName(filepath.Base(path)))
	if _, err := imaging.FormatFromFilename(thumbPath); err != nil {
		// unknown extension, keep the name and pick an encoding
		if err := saveAs(thumb, thumbPath, imaging.JPEG); err != nil {
			return "", err
		}
		return filepath.Base(thumbPath), nil
	}

	if err := imaging.Save(thumb, thumbPath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return filepath.Base(thumbPath), nil
}

// fit scales img down to fit inside size x size, preserving aspect ratio.
// Images already inside the box are returned unchanged.
func fit(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return img
	}
	return imaging.Fit(img, size, size, imaging.Lanczos)
}

func saveAs(img image.Image, path string, format imaging.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail: %w", err)
	}
	defer f.Close()

	if err := imaging.Encode(f, img, format); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}

// Dimensions returns the width and height of the image at path
func Dimensions(path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}

	return cfg.Width, cfg.Height, nil
}
