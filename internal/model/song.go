package model

import (
	"strings"
	"time"
)

// BriefSong is the one-line form of a song.
//
// BriefSong holds only what a list row or a .fuo line needs. DurationMS is
// authoritative when non-zero; zero means the duration is unknown.
//
// Example:
//
//	s := model.BriefSong{
//	    Source:      "local",
//	    Identifier:  "3f2a9c",
//	    Title:       "Come Together",
//	    ArtistsName: "The Beatles",
//	    AlbumName:   "Abbey Road",
//	    DurationMS:  259000,
//	}
//	fmt.Println(s.Key()) // fuo://local/songs/3f2a9c
type BriefSong struct {
	Source      string
	Identifier  string
	Title       string
	ArtistsName string
	AlbumName   string
	DurationMS  int64
	State       ModelState
}

func (s BriefSong) Key() Key {
	return Key{Type: TypeSong, Source: s.Source, Identifier: s.Identifier}
}

func (s BriefSong) ModelState() ModelState { return s.State }

// Duration returns the song length, or zero when unknown.
func (s BriefSong) Duration() time.Duration {
	return time.Duration(s.DurationMS) * time.Millisecond
}

// String renders "title - artists" for logs and list rows.
func (s BriefSong) String() string {
	if s.ArtistsName == "" {
		return s.Title
	}
	return s.Title + " - " + s.ArtistsName
}

// Song is the full form of a song, including its relations.
type Song struct {
	Source     string
	Identifier string
	Title      string

	// Album is nil when the song does not belong to an album.
	Album   *BriefAlbum
	Artists []BriefArtist

	DurationMS  int64
	PicURL      string
	TrackNumber int
	DiscNumber  int
	Genre       string
	Released    string

	State ModelState
}

func (s *Song) Key() Key {
	return Key{Type: TypeSong, Source: s.Source, Identifier: s.Identifier}
}

// ArtistsName joins artist names with ", ".
func (s *Song) ArtistsName() string {
	return JoinArtists(s.Artists)
}

// AlbumName returns the album's name or "".
func (s *Song) AlbumName() string {
	if s.Album == nil {
		return ""
	}
	return s.Album.Name
}

// Brief projects the song onto its brief form.
func (s *Song) Brief() BriefSong {
	return BriefSong{
		Source:      s.Source,
		Identifier:  s.Identifier,
		Title:       s.Title,
		ArtistsName: s.ArtistsName(),
		AlbumName:   s.AlbumName(),
		DurationMS:  s.DurationMS,
		State:       StateExists,
	}
}

// JoinArtists joins artist names the way brief models display them.
func JoinArtists(artists []BriefArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
