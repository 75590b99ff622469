// Package player defines the control contract between the playlist engine
// and a media backend.
//
// A backend plays one media at a time and reports what it does through
// Signals: state changes, position ticks, media and metadata changes, and
// the natural end of a media.
//
// # Backends
//
// Headless keeps a simulated clock instead of decoding anything. It backs
// the daemon when no audio output is configured and is what the tests use.
//
//	p := player.NewHeadless()
//	go p.Run(ctx, player.DefaultTick)
package player
