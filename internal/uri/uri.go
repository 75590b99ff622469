package uri

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/handiism/fuo/internal/model"
)

// Scheme is the prefix every model URI starts with.
const Scheme = "fuo://"

// ErrResolveFailed is returned when a string is not a model URI or line.
var ErrResolveFailed = errors.New("resolve failed")

var lineRe = regexp.MustCompile(`^fuo://([a-z][a-z0-9_]*)/([a-z][a-z0-9_]*)/([^\s/]+)(?:[ \t]+#[ \t]?(.*))?$`)

// Line is a parsed model URI plus its optional display fields.
type Line struct {
	Key    model.Key
	Fields []string
}

// Parse parses a bare URI or a display line and returns the model key.
//
// Example:
//
//	k, err := uri.Parse("fuo://local/songs/3f2a9c\t# Come Together - The Beatles")
//	fmt.Println(k.Identifier) // 3f2a9c
func Parse(s string) (model.Key, error) {
	l, err := ParseLine(s)
	if err != nil {
		return model.Key{}, err
	}
	return l.Key, nil
}

// ParseLine parses a display line such as
//
//	fuo://local/songs/abc	# Title - Artist - Album - 03:12
//
// The display suffix is optional. Leading and trailing whitespace is ignored.
func ParseLine(s string) (Line, error) {
	s = strings.TrimSpace(s)
	m := lineRe.FindStringSubmatch(s)
	if m == nil {
		return Line{}, fmt.Errorf("%w: %q is not a model uri", ErrResolveFailed, s)
	}
	typ, ok := model.TypeFromNamespace(m[2])
	if !ok || typ == model.TypeComment {
		return Line{}, fmt.Errorf("%w: unknown namespace %q", ErrResolveFailed, m[2])
	}
	l := Line{Key: model.Key{Type: typ, Source: m[1], Identifier: m[3]}}
	if m[4] != "" {
		l.Fields = ParseFields(m[4])
	}
	return l, nil
}

// Build returns the URI for a key, without any display suffix.
func Build(k model.Key) string {
	return Scheme + k.Source + "/" + k.Type.Namespace() + "/" + k.Identifier
}

// Reverse serializes a model to its URI. When asLine is true, the display
// fields for the model type are appended after a tab and "# ".
//
// Example:
//
//	uri.Reverse(song, true)
//	// fuo://local/songs/3f2a9c	# Come Together - The Beatles - Abbey Road - 04:19
func Reverse(m model.Model, asLine bool) string {
	u := Build(m.Key())
	if !asLine {
		return u
	}
	suffix := FormatFields(DisplayFields(m))
	if suffix == "" {
		return u
	}
	return u + "\t# " + suffix
}

// DisplayFields returns the human readable fields written after a URI.
//
// The field order per type is:
//   - song: title, artists, album, duration
//   - album: name, artists
//   - artist, playlist, user: name
//   - video: title
func DisplayFields(m model.Model) []string {
	switch v := m.(type) {
	case model.BriefSong:
		return []string{v.Title, v.ArtistsName, v.AlbumName, FormatDuration(v.DurationMS)}
	case *model.Song:
		return DisplayFields(v.Brief())
	case model.BriefAlbum:
		return []string{v.Name, v.ArtistsName}
	case *model.Album:
		return DisplayFields(v.Brief())
	case model.BriefArtist:
		return []string{v.Name}
	case *model.Artist:
		return []string{v.Name}
	case model.BriefPlaylist:
		return []string{v.Name}
	case *model.Playlist:
		return []string{v.Name}
	case model.BriefUser:
		return []string{v.Name}
	case *model.User:
		return []string{v.Name}
	case model.BriefVideo:
		return []string{v.Title}
	case *model.Video:
		return []string{v.Title}
	}
	return nil
}

// FormatDuration renders milliseconds as mm:ss. Zero renders as "".
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return ""
	}
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// ParseDuration accepts mm:ss, h:mm:ss or a plain millisecond count.
// Unparseable input yields 0, which means unknown.
func ParseDuration(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if !strings.Contains(s, ":") {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil || ms < 0 {
			return 0
		}
		return ms
	}
	var total float64
	for _, part := range strings.Split(s, ":") {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0
		}
		total = total*60 + v
	}
	return int64(total * 1000)
}
