// Package playlist holds the list of songs being played and drives the
// player through it.
//
// # Playing a song
//
// PlayModel runs a pipeline of stages, announced on StageChanged:
//
//	prepare_media -> [find_standby_by_mv] -> [find_standby] -> prepare_metadata -> load_media -> idle
//
// find_standby_by_mv only runs in watch mode; find_standby only runs when
// the song's own provider has no media, and the standby it finds takes the
// song's slot in the list. A song whose pipeline fails is marked bad and
// skipped by Next and Previous until it plays again.
//
// # Modes
//
// The PlaybackMode decides the next song: Sequential, OneLoop, Loop or
// Random. Independently, FM mode refills the tail from a feed when the
// list runs out.
//
// # Events
//
// Every signal is queued on the playlist's signal.Loop, so listeners run
// one at a time on the loop goroutine and see events in the order they
// happened.
package playlist
