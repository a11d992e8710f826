package images

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func TestThumbnailName(t *testing.T) {
	tests := map[string]string{
		"1700000000000-widget.png":  "1700000000000-widget-thumb.png",
		"photo.final.JPG":           "photo.final-thumb.JPG",
		"no-extension":              "no-extension-thumb",
		"1700000000000-.hidden":     "1700000000000--thumb.hidden",
	}
	for in, want := range tests {
		require.Equal(t, want, ThumbnailName(in), in)
	}
}

func TestCreateThumbnailFitsInside(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "1700000000000-wide.png")
	writePNG(t, src, 600, 300)

	name, err := CreateThumbnail(src, 150)
	require.NoError(t, err)
	require.Equal(t, "1700000000000-wide-thumb.png", name)

	w, h, err := Dimensions(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, 150, w)
	require.Equal(t, 75, h)
}

func TestCreateThumbnailDoesNotEnlarge(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "small.png")
	writePNG(t, src, 40, 20)

	name, err := CreateThumbnail(src, 150)
	require.NoError(t, err)

	w, h, err := Dimensions(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, 40, w)
	require.Equal(t, 20, h)
}

func TestCreateThumbnailUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.upload")
	writePNG(t, src, 300, 300)

	name, err := CreateThumbnail(src, 150)
	require.NoError(t, err)
	require.Equal(t, "scan-thumb.upload", name)

	w, _, err := Dimensions(filepath.Join(dir, name))
	require.NoError(t, err)
	require.Equal(t, 150, w)
}

func TestCreateThumbnailRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0644))

	_, err := CreateThumbnail(src, 150)
	require.ErrorContains(t, err, "failed to decode image")
}
