package localfs

import (
	"cmp"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/dhowden/tag"
	"github.com/h2non/filetype"
	"github.com/mozillazg/go-pinyin"

	"github.com/handiism/fuo/internal/model"
)

// audioExtensions are accepted without sniffing.
var audioExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".m4a": true, ".aac": true, ".ogg": true,
	".opus": true, ".wav": true, ".ape": true, ".wma": true, ".aiff": true,
}

// losslessExtensions are served as shq, everything else as hq.
var losslessExtensions = map[string]bool{".flac": true, ".wav": true, ".ape": true, ".aiff": true}

// track is a scanned audio file.
type track struct {
	path       string
	song       model.Song
	albumKey   string
	lyrics     string
	hasPicture bool
	sortKey    string
}

// index is an immutable snapshot of one scan.
type index struct {
	tracks      map[string]*track
	order       []string
	albums      map[string]*model.Album
	albumOrder  []string
	artists     map[string]*artistEntry
	artistOrder []string
}

type artistEntry struct {
	artist model.Artist
	songs  []model.BriefSong
	albums []model.BriefAlbum
}

func hash(parts ...string) string {
	h := sha1.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// sortKey romanises Han characters so Chinese names sort among Latin ones.
func sortKey(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToLower(romanize(p, "")))
		b.WriteByte(0)
	}
	return b.String()
}

// romanize returns s with every Han character replaced by its pinyin,
// syllables joined by sep.
func romanize(s, sep string) string {
	var b strings.Builder
	prevHan := false
	for _, r := range s {
		var py []string
		if unicode.Is(unicode.Han, r) {
			py = pinyin.LazyConvert(string(r), nil)
		}
		if len(py) == 0 {
			b.WriteRune(r)
			prevHan = false
			continue
		}
		if prevHan {
			b.WriteString(sep)
		}
		b.WriteString(py[0])
		prevHan = true
	}
	return b.String()
}

// splitArtists splits a tag value holding several artists.
func splitArtists(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == '、'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// isAudio accepts known extensions, and sniffs files without one.
func isAudio(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if audioExtensions[ext] {
		return true
	}
	if ext != "" {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 262)
	n, _ := io.ReadFull(f, head)
	return filetype.IsAudio(head[:n])
}

// readTrack reads the tags of one file. Missing tags fall back to the
// file and directory names.
func readTrack(path string) (*track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &track{path: path}
	var title, album, albumArtist, genre string
	var artists []string
	var number, disc, year int
	if meta, err := tag.ReadFrom(f); err == nil {
		title = strings.TrimSpace(meta.Title())
		artists = splitArtists(meta.Artist())
		album = strings.TrimSpace(meta.Album())
		albumArtist = strings.TrimSpace(meta.AlbumArtist())
		genre = meta.Genre()
		number, _ = meta.Track()
		disc, _ = meta.Disc()
		year = meta.Year()
		t.lyrics = meta.Lyrics()
		t.hasPicture = meta.Picture() != nil
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if len(artists) == 0 {
		artists = []string{"Unknown Artist"}
	}
	if album == "" {
		album = filepath.Base(filepath.Dir(path))
	}
	if albumArtist == "" {
		albumArtist = artists[0]
	}

	id := hash(path)
	t.albumKey = hash(strings.ToLower(albumArtist), strings.ToLower(album))
	t.song = model.Song{
		Source:      Identifier,
		Identifier:  id,
		Title:       title,
		Album:       &model.BriefAlbum{Source: Identifier, Identifier: t.albumKey, Name: album, ArtistsName: albumArtist},
		TrackNumber: number,
		DiscNumber:  disc,
		Genre:       genre,
		State:       model.StateExists,
	}
	if year > 0 {
		t.song.Released = strconv.Itoa(year)
	}
	for _, name := range artists {
		t.song.Artists = append(t.song.Artists, model.BriefArtist{Source: Identifier, Identifier: hash(strings.ToLower(name)), Name: name})
	}
	t.sortKey = sortKey(albumArtist, album) + fmt.Sprintf("%04d%04d", disc, number) + sortKey(title)
	return t, nil
}

// scan walks dirs and builds a fresh index. Unreadable entries are
// reported through warn and skipped.
func scan(ctx context.Context, dirs []string, warn func(path string, err error)) (*index, error) {
	idx := &index{
		tracks:  map[string]*track{},
		albums:  map[string]*model.Album{},
		artists: map[string]*artistEntry{},
	}
	for _, root := range dirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				warn(path, err)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !isAudio(path) {
				return nil
			}
			t, err := readTrack(path)
			if err != nil {
				warn(path, err)
				return nil
			}
			idx.tracks[t.song.Identifier] = t
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	for id := range idx.tracks {
		idx.order = append(idx.order, id)
	}
	slices.SortFunc(idx.order, func(a, b string) int {
		return cmp.Or(cmp.Compare(idx.tracks[a].sortKey, idx.tracks[b].sortKey), cmp.Compare(a, b))
	})

	for _, id := range idx.order {
		t := idx.tracks[id]
		brief := t.song.Brief()

		alb, ok := idx.albums[t.albumKey]
		if !ok {
			alb = &model.Album{
				Source:     Identifier,
				Identifier: t.albumKey,
				Name:       t.song.Album.Name,
				Artists:    []model.BriefArtist{{Source: Identifier, Identifier: hash(strings.ToLower(t.song.Album.ArtistsName)), Name: t.song.Album.ArtistsName}},
				Released:   t.song.Released,
				State:      model.StateUpgraded,
			}
			idx.albums[t.albumKey] = alb
		}
		alb.Songs = append(alb.Songs, brief)
		alb.SongCount = len(alb.Songs)

		for _, a := range t.song.Artists {
			ae := idx.artist(a)
			ae.songs = append(ae.songs, brief)
		}
	}
	idx.albumOrder = sortedKeys(idx.albums, func(a *model.Album) string { return sortKey(a.Name) })
	for _, id := range idx.albumOrder {
		alb := idx.albums[id]
		ae := idx.artist(alb.Artists[0])
		ae.albums = append(ae.albums, alb.Brief())
	}
	idx.artistOrder = sortedKeys(idx.artists, func(a *artistEntry) string { return sortKey(a.artist.Name) })
	for _, ae := range idx.artists {
		ae.artist.SongCount = len(ae.songs)
		ae.artist.AlbumCount = len(ae.albums)
		ae.artist.HotSongs = ae.songs
	}
	return idx, nil
}

func (idx *index) artist(a model.BriefArtist) *artistEntry {
	ae, ok := idx.artists[a.Identifier]
	if !ok {
		ae = &artistEntry{artist: model.Artist{
			Source:     Identifier,
			Identifier: a.Identifier,
			Name:       a.Name,
			State:      model.StateUpgraded,
		}}
		idx.artists[a.Identifier] = ae
	}
	return ae
}

// sortedKeys returns the keys of m ordered by key(value), then by key.
func sortedKeys[V any](m map[string]V, key func(V) string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(cmp.Compare(key(m[a]), key(m[b])), cmp.Compare(a, b))
	})
	return keys
}
