package localfs

import (
	"context"
	"strings"

	"github.com/handiism/fuo/internal/model"
)

// haystack is what a query is matched against: the lowercased text plus
// its pinyin, spaced and unspaced, so "qingtian" and "qing tian" both
// find 晴天.
func haystack(parts ...string) string {
	text := strings.ToLower(strings.Join(parts, " "))
	return text + " " + romanize(text, " ") + " " + romanize(text, "")
}

func matches(hay string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(hay, w) {
			return false
		}
	}
	return true
}

// Search matches every word of q, case-insensitively, against titles,
// artist and album names. limit <= 0 means no limit.
func (p *Provider) Search(ctx context.Context, q string, typ model.SearchType, limit int) (*model.SearchResult, error) {
	idx := p.snapshot()
	words := strings.Fields(strings.ToLower(q))
	res := &model.SearchResult{Source: Identifier, Type: typ, Q: q}
	full := func(n int) bool { return limit > 0 && n >= limit }

	switch typ {
	case model.SearchSong:
		for _, id := range idx.order {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s := idx.tracks[id].song.Brief()
			if matches(haystack(s.Title, s.ArtistsName, s.AlbumName), words) {
				res.Songs = append(res.Songs, s)
				if full(len(res.Songs)) {
					break
				}
			}
		}
	case model.SearchAlbum:
		for _, id := range idx.albumOrder {
			b := idx.albums[id].Brief()
			if matches(haystack(b.Name, b.ArtistsName), words) {
				res.Albums = append(res.Albums, b)
				if full(len(res.Albums)) {
					break
				}
			}
		}
	case model.SearchArtist:
		for _, id := range idx.artistOrder {
			ae := idx.artists[id]
			if matches(haystack(ae.artist.Name), words) {
				res.Artists = append(res.Artists, ae.artist.Brief())
				if full(len(res.Artists)) {
					break
				}
			}
		}
	}
	return res, nil
}
