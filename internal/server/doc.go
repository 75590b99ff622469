// Package server exposes a running player over HTTP.
//
// The routes mirror the operations of the core components: searching the
// library, editing and driving the playlist, controlling the player and
// managing collections. Models travel as fuo:// URIs, optionally with
// their display suffix, so a line copied from a collection file can be
// posted back as is.
//
// # Errors
//
// Failures are returned as {"error": "..."} with a status derived from
// the error kind:
//
//	unparsable URI                400
//	system collection             403
//	model or provider not found   404
//	cancelled play, no media      409
//	capability not supported      501
//	provider I/O, timeout         502
//
// # Lyrics
//
// GET /lyric/ws upgrades to a websocket that receives one JSON message per
// lyric sentence:
//
//	{"type": "sentence", "at_ms": 12000, "origin": "...", "trans": "..."}
//
// A client that connects mid-song receives the current sentence first.
package server
