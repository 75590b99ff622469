// Package ioutils provides file system and image helpers.
//
// This package contains functions for:
//   - atomic file writes (temp file plus rename)
//   - filename sanitization for cross-platform compatibility
//   - directory creation
//   - cover art thumbnails and their on-disk cache
//
// # File Operations
//
//	// Replace a collection file without ever exposing a partial write
//	err := ioutils.WriteFileAtomic("/collections/pool.fuo", data, 0o644)
//
//	// Ensure a directory exists
//	err := ioutils.EnsureDir("/path/to/new/directory")
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// # Image Processing
//
//	svc := ioutils.NewImageService(600)
//	thumb, _ := svc.Thumbnail(ctx, pictureData)
//
//	cache := ioutils.NewArtworkCache(dir, svc)
//	path, _ := cache.Store(ctx, key, pictureData)
package ioutils
