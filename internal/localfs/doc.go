// Package localfs is the provider for audio files on disk.
//
// Scan walks the configured directories and reads each audio file's tags
// with dhowden/tag. Files are recognised by extension; files without one
// are sniffed with h2non/filetype. Songs missing tags fall back to the
// file name for the title and the directory name for the album.
//
// # Identifiers
//
//	song    hash of the file path
//	album   hash of album artist and album name
//	artist  hash of the lowercased name
//
// # Media and lyrics
//
// Media are file:// URLs. Lossless files are served as the shq quality,
// others as hq. Lyrics come from a .lrc file next to the audio file, or
// from the embedded lyrics tag.
//
// # Search
//
// Search matches every query word against titles, artists and albums,
// including their pinyin, so Chinese titles can be found from a Latin
// keyboard.
package localfs
