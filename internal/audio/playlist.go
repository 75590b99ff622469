package audio

import (
	"fmt"
	"strings"
	"time"

	"github.com/handiism/fuo/internal/model"
)

// PlaylistFormat represents supported playlist file formats.
//
// Each format has different features and compatibility:
//   - M3U: Simple text format, widely supported
//   - PLS: INI-style format, used by Winamp
type PlaylistFormat int

const (
	// FormatM3U creates .m3u files (most compatible).
	// Can be extended with EXTINF lines for duration/title info.
	FormatM3U PlaylistFormat = iota

	// FormatPLS creates .pls files (Winamp/SHOUTcast format).
	// INI-style format with file, title, and length info.
	FormatPLS
)

// ParsePlaylistFormat accepts "m3u" or "pls".
func ParsePlaylistFormat(s string) (PlaylistFormat, error) {
	switch strings.ToLower(s) {
	case "", "m3u", "m3u8":
		return FormatM3U, nil
	case "pls":
		return FormatPLS, nil
	}
	return 0, fmt.Errorf("unknown playlist format %q", s)
}

// Extension returns the file extension, dot included.
func (f PlaylistFormat) Extension() string {
	if f == FormatPLS {
		return ".pls"
	}
	return ".m3u"
}

// Entry is one line of a playlist.
type Entry struct {
	// Location is a path or URL the player can open.
	Location string
	Title    string
	Artist   string
	// Duration is zero when unknown.
	Duration time.Duration
}

// NewEntry describes s played from location.
func NewEntry(s model.BriefSong, location string) Entry {
	return Entry{
		Location: location,
		Title:    s.Title,
		Artist:   s.ArtistsName,
		Duration: s.Duration(),
	}
}

func (e Entry) seconds() int {
	if e.Duration <= 0 {
		return -1
	}
	return int(e.Duration.Round(time.Second) / time.Second)
}

func (e Entry) display() string {
	if e.Artist == "" {
		return e.Title
	}
	return e.Artist + " - " + e.Title
}

// PlaylistCreator renders playlist files.
//
// Example:
//
//	// Create M3U playlist with extended info
//	creator := NewPlaylistCreator(FormatM3U, true)
//	content := creator.CreatePlaylist(entries)
//	ioutils.WriteFileAtomic("queue.m3u", []byte(content), 0o644)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:180,Artist - Song Title
//	// /music/Artist/Song Title.mp3
type PlaylistCreator struct {
	format   PlaylistFormat
	extended bool // For M3U: include EXTINF lines with duration/title
}

// NewPlaylistCreator creates a new PlaylistCreator.
//
// Parameters:
//   - format: The playlist format to generate
//   - extended: For M3U format, whether to include #EXTINF lines
//     (ignored for other formats)
func NewPlaylistCreator(format PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// CreatePlaylist renders entries in order. Unknown durations are
// written as -1.
func (p *PlaylistCreator) CreatePlaylist(entries []Entry) string {
	if p.format == FormatPLS {
		return p.createPLS(entries)
	}
	return p.createM3U(entries)
}

// createM3U generates an M3U playlist.
//
// Extended M3U format (when extended=true):
//
//	#EXTM3U
//	#EXTINF:180,Artist - Title
//	location
func (p *PlaylistCreator) createM3U(entries []Entry) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, e := range entries {
		if p.extended {
			fmt.Fprintf(&sb, "#EXTINF:%d,%s\n", e.seconds(), oneLine(e.display()))
		}
		sb.WriteString(e.Location + "\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist.
//
//	[playlist]
//	File1=location
//	Title1=Artist - Song Title
//	Length1=180
//	NumberOfEntries=1
//	Version=2
func (p *PlaylistCreator) createPLS(entries []Entry) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, e := range entries {
		idx := i + 1
		fmt.Fprintf(&sb, "File%d=%s\n", idx, e.Location)
		fmt.Fprintf(&sb, "Title%d=%s\n", idx, oneLine(e.display()))
		fmt.Fprintf(&sb, "Length%d=%d\n", idx, e.seconds())
	}

	fmt.Fprintf(&sb, "NumberOfEntries=%d\n", len(entries))
	sb.WriteString("Version=2\n")

	return sb.String()
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
