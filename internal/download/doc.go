// Package download saves songs to disk so they can be played offline.
//
// # Manager
//
// The Manager coordinates the download process for a list of songs:
//
//  1. Resolve each song and its media through the library
//  2. Download remote media, or copy file:// media, concurrently
//  3. Tag MP3 files with ID3 metadata, lyrics and cover art
//
// Files land in Config.Dir, which the local provider scans, so downloaded
// songs show up there on the next scan.
//
// # Basic Usage
//
//	manager := download.NewManager(lib, download.DefaultConfig(dir), func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	results, err := manager.Download(ctx, songs)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// # Retry Logic
//
// Failed downloads are retried with exponential backoff, configured by
// Config.MaxRetries, Config.RetryCooldown and Config.RetryExponent. A 404
// is not retried.
package download
