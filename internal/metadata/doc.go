// Package metadata cooks display metadata for the media being played.
//
// # Fields
//
// An Assembler fills model.Metadata with the song's uri, source, title,
// artists, album, artwork and release date. Each upgrade it makes is
// bounded by a timeout (DefaultTimeout, one second).
//
// # Fallbacks
//
// Fields start from the brief song, so a failed or slow upgrade still
// yields a title and artists. A song without a picture takes its album
// cover. Errors are logged, never returned.
package metadata
