package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Song: Part 1/2", "Song_ Part 1_2"},
		{"Track...", "Track"},
		{"Name   with  spaces ", "Name with spaces"},
		{"ok", "ok"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in), tt.in)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.fuo")

	require.NoError(t, WriteFileAtomic(path, []byte("one\n"), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte("two\n"), 0o644))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(got))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm(), "existing mode is kept")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	dst := filepath.Join(dir, "dst")
	require.NoError(t, CopyFile(context.Background(), src, dst))
	got, _ := os.ReadFile(dst)
	assert.Equal(t, "data", string(got))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, CopyFile(ctx, src, filepath.Join(dir, "never")))
	assert.NoFileExists(t, filepath.Join(dir, "never"))
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnail(t *testing.T) {
	svc := NewImageService(100)
	tests := []struct{ w, h, wantW, wantH int }{
		{300, 200, 100, 66},
		{200, 400, 50, 100},
		{80, 60, 80, 60},
	}
	for _, tt := range tests {
		out, err := svc.Thumbnail(context.Background(), pngOf(t, tt.w, tt.h))
		require.NoError(t, err)
		img, err := jpeg.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, tt.wantW, img.Bounds().Dx())
		assert.Equal(t, tt.wantH, img.Bounds().Dy())
	}

	_, err := svc.Thumbnail(context.Background(), []byte("not an image"))
	assert.Error(t, err)
}

func TestArtworkCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artwork")
	cache := NewArtworkCache(dir, NewImageService(50))

	p1, err := cache.Store(context.Background(), "album-1", pngOf(t, 100, 100))
	require.NoError(t, err)
	assert.FileExists(t, p1)
	assert.Equal(t, cache.Path("album-1"), p1)

	// cached: bad data is never decoded
	p2, err := cache.Store(context.Background(), "album-1", []byte("garbage"))
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	data, err := cache.Load("album-1")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
