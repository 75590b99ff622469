package model

import "fmt"

// SearchType selects which kind of entity a search returns.
type SearchType string

const (
	SearchSong     SearchType = "song"
	SearchAlbum    SearchType = "album"
	SearchArtist   SearchType = "artist"
	SearchPlaylist SearchType = "playlist"
	SearchVideo    SearchType = "video"
)

// ParseSearchType validates a search type name.
func ParseSearchType(s string) (SearchType, error) {
	switch t := SearchType(s); t {
	case SearchSong, SearchAlbum, SearchArtist, SearchPlaylist, SearchVideo:
		return t, nil
	}
	return "", fmt.Errorf("unknown search type %q", s)
}

// SearchResult is one provider's answer to a search.
//
// A failed provider still yields a result, with ErrMsg set and no items.
type SearchResult struct {
	Source    string
	Type      SearchType
	Q         string
	Songs     []BriefSong
	Albums    []BriefAlbum
	Artists   []BriefArtist
	Playlists []BriefPlaylist
	Videos    []BriefVideo
	ErrMsg    string
}

// Failed returns true if the provider reported an error.
func (r SearchResult) Failed() bool {
	return r.ErrMsg != ""
}

// Len returns the number of items carried for the result's type.
func (r SearchResult) Len() int {
	return len(r.Songs) + len(r.Albums) + len(r.Artists) + len(r.Playlists) + len(r.Videos)
}

// Models returns every item of the result, songs first.
func (r SearchResult) Models() []Model {
	out := make([]Model, 0, r.Len())
	for _, s := range r.Songs {
		out = append(out, s)
	}
	for _, a := range r.Albums {
		out = append(out, a)
	}
	for _, a := range r.Artists {
		out = append(out, a)
	}
	for _, p := range r.Playlists {
		out = append(out, p)
	}
	for _, v := range r.Videos {
		out = append(out, v)
	}
	return out
}
