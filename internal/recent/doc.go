// Package recent keeps the most recently played songs.
//
// # Ordering
//
// Played is newest first. Adding a song that is already listed moves it
// to the head, and the oldest song is dropped once the capacity
// (DefaultCapacity, 100) is reached.
//
// # Wiring
//
// Connect Add to the playlist's SongChanged; List returns a copy that is
// safe to keep.
package recent
