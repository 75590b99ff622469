package bandcamp

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
)

var (
	resultRe   = regexp.MustCompile(`(?s)<li class="searchresult.*?</li>`)
	itemTypeRe = regexp.MustCompile(`(?s)<div class="itemtype">\s*(.*?)\s*</div>`)
	headingRe  = regexp.MustCompile(`(?s)<div class="heading">\s*<a[^>]*>\s*(.*?)\s*</a>`)
	subheadRe  = regexp.MustCompile(`(?s)<div class="subhead">\s*(.*?)\s*</div>`)
	itemURLRe  = regexp.MustCompile(`(?s)<div class="itemurl">\s*<a[^>]*>\s*(.*?)\s*</a>`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// searchItemTypes maps search types onto bandcamp's item_type filter.
var searchItemTypes = map[model.SearchType]string{
	model.SearchSong:   "t",
	model.SearchAlbum:  "a",
	model.SearchArtist: "b",
}

// searchHit is one row of a search result page.
type searchHit struct {
	kind   string // TRACK, ALBUM or ARTIST
	title  string
	url    string
	album  string
	artist string
}

// parseSearchResults reads the result rows of a search page.
func parseSearchResults(page string) []searchHit {
	var hits []searchHit
	for _, block := range resultRe.FindAllString(page, -1) {
		h := searchHit{
			kind:  strings.ToUpper(clean(firstGroup(itemTypeRe, block))),
			title: clean(firstGroup(headingRe, block)),
			url:   clean(firstGroup(itemURLRe, block)),
		}
		h.album, h.artist = splitSubhead(clean(firstGroup(subheadRe, block)))
		if h.url == "" || h.title == "" {
			continue
		}
		hits = append(hits, h)
	}
	return hits
}

// splitSubhead splits "from Album by Artist" or "by Artist".
func splitSubhead(s string) (album, artist string) {
	if i := strings.LastIndex(s, " by "); i >= 0 {
		artist = strings.TrimSpace(s[i+len(" by "):])
		s = s[:i]
	} else if rest, ok := strings.CutPrefix(s, "by "); ok {
		return "", strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(s, "from "); ok {
		album = strings.TrimSpace(rest)
	}
	return album, artist
}

func clean(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(html.UnescapeString(s), " "))
}

// Search queries bandcamp's search page. Songs, albums and artists can be
// searched; other types yield an empty result. Search results carry no
// durations.
func (p *Provider) Search(ctx context.Context, q string, typ model.SearchType, limit int) (*model.SearchResult, error) {
	res := &model.SearchResult{Source: Identifier, Type: typ, Q: q}
	itemType, ok := searchItemTypes[typ]
	if !ok || strings.TrimSpace(q) == "" {
		return res, nil
	}

	u := p.searchURL + "?" + url.Values{"q": {q}, "item_type": {itemType}}.Encode()
	page, err := p.client.GetString(ctx, u)
	if err != nil {
		return nil, provider.WrapIO(Identifier, err)
	}

	for _, h := range parseSearchResults(page) {
		if limit > 0 && res.Len() >= limit {
			break
		}
		ref, ok := parseItemURL(h.url)
		if !ok {
			continue
		}
		switch {
		case typ == model.SearchSong && ref.kind == "track":
			res.Songs = append(res.Songs, model.BriefSong{
				Source: Identifier, Identifier: ref.id(), Title: h.title,
				ArtistsName: h.artist, AlbumName: h.album, State: model.StateExists,
			})
		case typ == model.SearchAlbum && ref.kind == "album":
			res.Albums = append(res.Albums, model.BriefAlbum{
				Source: Identifier, Identifier: ref.id(), Name: h.title,
				ArtistsName: h.artist, State: model.StateExists,
			})
		case typ == model.SearchArtist && ref.kind == "":
			res.Artists = append(res.Artists, model.BriefArtist{
				Source: Identifier, Identifier: ref.id(), Name: h.title, State: model.StateExists,
			})
		}
	}
	p.logger.Debug("bandcamp: search", "q", q, "type", string(typ), "hits", res.Len())
	return res, nil
}
