// Package http provides the HTTP client shared by providers and helpers.
//
// The Client in this package handles:
//   - User-Agent and per-media headers
//   - downloads with progress tracking and atomic rename
//   - JSON requests, including line-delimited JSON streams
//
// # Basic Usage
//
//	client := http.NewClient()
//
//	// Fetch an HTML page
//	html, err := client.GetString(ctx, "https://artist.bandcamp.com/album/name")
//
//	// Download a file with a progress callback
//	client.DownloadFile(ctx, mp3URL, nil, "/path/to/file.mp3", func(written, total int64) {
//	    fmt.Printf("%.1f%%\n", float64(written)/float64(total)*100)
//	})
//
// # Streaming
//
// PostLines reads a response one line at a time so callers can act on
// partial results before the server finishes:
//
//	err := client.PostLines(ctx, url, payload, func(line []byte) error {
//	    ...
//	})
package http
