package server

import (
	"cmp"
	"slices"

	"github.com/handiism/fuo/internal/collection"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/uri"
)

type songView struct {
	URI        string `json:"uri"`
	Source     string `json:"source"`
	Title      string `json:"title"`
	Artists    string `json:"artists"`
	Album      string `json:"album"`
	DurationMS int64  `json:"duration_ms"`
}

func newSongView(s model.BriefSong) songView {
	return songView{
		URI:        uri.Build(s.Key()),
		Source:     s.Source,
		Title:      s.Title,
		Artists:    s.ArtistsName,
		Album:      s.AlbumName,
		DurationMS: s.DurationMS,
	}
}

func newSongViews(songs []model.BriefSong) []songView {
	out := make([]songView, 0, len(songs))
	for _, s := range songs {
		out = append(out, newSongView(s))
	}
	return out
}

// itemView is the display form of albums, artists, playlists and videos.
type itemView struct {
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Artists string `json:"artists,omitempty"`
}

func newItemViews[T model.Model](items []T, view func(T) itemView) []itemView {
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, view(it))
	}
	return out
}

type searchView struct {
	Source    string     `json:"source"`
	Type      string     `json:"type"`
	Songs     []songView `json:"songs,omitempty"`
	Albums    []itemView `json:"albums,omitempty"`
	Artists   []itemView `json:"artists,omitempty"`
	Playlists []itemView `json:"playlists,omitempty"`
	Videos    []itemView `json:"videos,omitempty"`
	Error     string     `json:"error,omitempty"`
}

func newSearchViews(results []model.SearchResult) []searchView {
	slices.SortFunc(results, func(a, b model.SearchResult) int {
		return cmp.Or(cmp.Compare(a.Source, b.Source), cmp.Compare(a.Type, b.Type))
	})
	out := make([]searchView, 0, len(results))
	for _, res := range results {
		out = append(out, searchView{
			Source: res.Source,
			Type:   string(res.Type),
			Songs:  newSongViews(res.Songs),
			Albums: newItemViews(res.Albums, func(a model.BriefAlbum) itemView {
				return itemView{URI: uri.Build(a.Key()), Name: a.Name, Artists: a.ArtistsName}
			}),
			Artists: newItemViews(res.Artists, func(a model.BriefArtist) itemView {
				return itemView{URI: uri.Build(a.Key()), Name: a.Name}
			}),
			Playlists: newItemViews(res.Playlists, func(p model.BriefPlaylist) itemView {
				return itemView{URI: uri.Build(p.Key()), Name: p.Name}
			}),
			Videos: newItemViews(res.Videos, func(v model.BriefVideo) itemView {
				return itemView{URI: uri.Build(v.Key()), Name: v.Title}
			}),
			Error: res.ErrMsg,
		})
	}
	return out
}

type collectionView struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Kind   string   `json:"kind"`
	Count  int      `json:"count"`
	Models []string `json:"models,omitempty"`
}

func newCollectionView(c *collection.Collection, withModels bool) collectionView {
	v := collectionView{Name: c.Name(), Title: c.Title(), Kind: c.Kind().String(), Count: c.Len()}
	if withModels {
		v.Models = make([]string, 0, c.Len())
		for _, m := range c.Models() {
			v.Models = append(v.Models, uri.Reverse(m, true))
		}
	}
	return v
}
