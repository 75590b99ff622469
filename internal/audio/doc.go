// Package audio writes audio files and playlists.
//
// # ID3 Tagging
//
// Use the Tagger to write ID3 tags to downloaded MP3 files:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags(path, audio.TagsFromSong(song, lyrics), artworkBytes)
//
// The tagger supports:
//   - Artist, Album Artist
//   - Album Title, Track Title
//   - Track and disc number, release date, genre
//   - Lyrics
//   - Cover Art (embedded in MP3, MIME type sniffed)
//
// # Playlist Export
//
// Render a list of songs as a playlist file:
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist(entries)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
package audio
