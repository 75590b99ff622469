package model

import (
	"regexp"
	"strings"
)

// AlbumType classifies a release.
type AlbumType string

const (
	AlbumStandard      AlbumType = "standard"
	AlbumEP            AlbumType = "ep"
	AlbumSingle        AlbumType = "single"
	AlbumLive          AlbumType = "live"
	AlbumCompilation   AlbumType = "compilation"
	AlbumRetrospective AlbumType = "retrospective"
)

var (
	epPattern   = regexp.MustCompile(`(?i)(^|[\s(\[-])ep[)\]]?$`)
	livePattern = regexp.MustCompile(`(?i)[(\[]\s*live\b|\blive (at|in|from)\b`)
)

// InferAlbumType guesses the release type from an album name.
//
// The rules follow the suffixes stores commonly attach:
//   - "Name - Single" is a single
//   - "Name EP", "Name - EP", "Name (EP)" is an EP
//   - "Name (Live)", "Live at ..." is a live album
//
// Anything else is AlbumStandard.
func InferAlbumType(name string) AlbumType {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasSuffix(lower, " - single"), strings.HasSuffix(lower, "(single)"):
		return AlbumSingle
	case epPattern.MatchString(trimmed):
		return AlbumEP
	case livePattern.MatchString(trimmed):
		return AlbumLive
	}
	return AlbumStandard
}

// BriefAlbum is the one-line form of an album.
type BriefAlbum struct {
	Source      string
	Identifier  string
	Name        string
	ArtistsName string
	State       ModelState
}

func (a BriefAlbum) Key() Key {
	return Key{Type: TypeAlbum, Source: a.Source, Identifier: a.Identifier}
}

func (a BriefAlbum) ModelState() ModelState { return a.State }

// Album is the full form of an album.
//
// Songs may be empty for providers that only expose album tracks through
// a reader; use the library's album songs reader in that case.
type Album struct {
	Source      string
	Identifier  string
	Name        string
	Artists     []BriefArtist
	Songs       []BriefSong
	Cover       string
	Description string
	Released    string
	SongCount   int

	// Type is left empty when the provider does not know it;
	// read it through AlbumType.
	Type AlbumType

	State ModelState
}

func (a *Album) Key() Key {
	return Key{Type: TypeAlbum, Source: a.Source, Identifier: a.Identifier}
}

// AlbumType returns Type, inferring it from Name when unset.
func (a *Album) AlbumType() AlbumType {
	if a.Type != "" {
		return a.Type
	}
	return InferAlbumType(a.Name)
}

// HasCover returns true if the album has a cover URL.
func (a *Album) HasCover() bool {
	return a.Cover != ""
}

// Brief projects the album onto its brief form.
func (a *Album) Brief() BriefAlbum {
	return BriefAlbum{
		Source:      a.Source,
		Identifier:  a.Identifier,
		Name:        a.Name,
		ArtistsName: JoinArtists(a.Artists),
		State:       StateExists,
	}
}
