package ioutils

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// DefaultArtworkSize bounds both sides of cached and embedded covers.
const DefaultArtworkSize = 600

// ImageService resizes and re-encodes cover art.
//
// ImageService is used to:
//   - shrink embedded covers before they are cached for display
//   - normalise downloaded covers to JPEG before ID3 embedding
//
// Example usage:
//
//	svc := NewImageService(600)
//	thumb, err := svc.Thumbnail(ctx, pictureData)
type ImageService struct {
	maxSize int
}

// NewImageService creates an ImageService producing images at most
// maxSize pixels on each side. maxSize <= 0 uses DefaultArtworkSize.
func NewImageService(maxSize int) *ImageService {
	if maxSize <= 0 {
		maxSize = DefaultArtworkSize
	}
	return &ImageService{maxSize: maxSize}
}

// fit returns the size of a w×h image scaled to fit a box×box square.
func fit(w, h, box int) (int, int) {
	if w <= box && h <= box {
		return w, h
	}
	if w >= h {
		return box, max(1, h*box/w)
	}
	return max(1, w*box/h), box
}

// Thumbnail decodes data, scales it down to fit the configured box keeping
// the aspect ratio, and returns it as JPEG. Images already small enough are
// only re-encoded.
//
// The Catmull-Rom kernel is used for scaling.
//
// Example:
//
//	// with maxSize 600: 1500x1000 becomes 600x400, 300x300 stays 300x300
//	thumb, err := svc.Thumbnail(ctx, data)
func (s *ImageService) Thumbnail(ctx context.Context, data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := fit(bounds.Dx(), bounds.Dy(), s.maxSize)
	if w != bounds.Dx() || h != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ArtworkCache keeps thumbnails on disk, keyed by an arbitrary string.
//
// Example:
//
//	cache := NewArtworkCache("/home/me/.cache/fuo/artwork", NewImageService(0))
//	path, err := cache.Store(ctx, albumKey, pictureData)
//	song.PicURL = "file://" + path
type ArtworkCache struct {
	dir string
	svc *ImageService
}

func NewArtworkCache(dir string, svc *ImageService) *ArtworkCache {
	return &ArtworkCache{dir: dir, svc: svc}
}

// Path returns where the thumbnail for key lives, whether or not it exists.
func (c *ArtworkCache) Path(key string) string {
	sum := sha1.Sum([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".jpg")
}

// Store writes the thumbnail of data for key unless one is already cached,
// and returns its path.
func (c *ArtworkCache) Store(ctx context.Context, key string, data []byte) (string, error) {
	path := c.Path(key)
	if Exists(path) {
		return path, nil
	}
	thumb, err := c.svc.Thumbnail(ctx, data)
	if err != nil {
		return "", err
	}
	if err := EnsureDir(c.dir); err != nil {
		return "", err
	}
	if err := WriteFileAtomic(path, thumb, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load returns the cached thumbnail for key.
func (c *ArtworkCache) Load(key string) ([]byte, error) {
	return os.ReadFile(c.Path(key))
}
