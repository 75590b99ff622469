package bandcamp

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/handiism/fuo/internal/provider"
)

// Song and album identifiers are "<subdomain>:<slug>", e.g.
// "mysteryartist:first-light" for
// https://mysteryartist.bandcamp.com/track/first-light. Artist
// identifiers are the bare subdomain.

func releaseID(sub, slug string) string {
	return sub + ":" + slug
}

func parseReleaseID(id string) (sub, slug string, err error) {
	sub, slug, ok := strings.Cut(id, ":")
	if !ok || sub == "" || slug == "" || strings.Contains(slug, "/") {
		return "", "", fmt.Errorf("%w: bad bandcamp id %q", provider.ErrModelNotFound, id)
	}
	return sub, slug, nil
}

// itemRef is a release or artist located from a page URL.
type itemRef struct {
	sub  string
	kind string // "album", "track" or "" for an artist
	slug string
}

func (r itemRef) id() string {
	if r.kind == "" {
		return r.sub
	}
	return releaseID(r.sub, r.slug)
}

// parseItemURL locates an item from an absolute URL.
//
// On bandcamp.com the subdomain names the artist. Otherwise the path
// segment before "album" or "track", or the last segment of an artist
// URL, is used, which is how sites mounted under a path lay them out.
func parseItemURL(raw string) (itemRef, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return itemRef{}, false
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	hostSub, _, _ := strings.Cut(u.Hostname(), ".")

	for i, s := range segs {
		if (s == "album" || s == "track") && i+1 < len(segs) {
			ref := itemRef{sub: hostSub, kind: s, slug: segs[i+1]}
			if i > 0 {
				ref.sub = segs[i-1]
			}
			return ref, ref.sub != ""
		}
	}
	switch {
	case len(segs) == 0, segs[len(segs)-1] == "music":
		if len(segs) > 1 {
			return itemRef{sub: segs[len(segs)-2]}, true
		}
		return itemRef{sub: hostSub}, hostSub != ""
	default:
		return itemRef{sub: segs[len(segs)-1]}, true
	}
}

// slugOf returns the last element of a relative release link such as
// "/album/name".
func slugOf(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	return path.Base(link)
}

// kindOf returns "album" or "track" for a relative release link.
func kindOf(link string) string {
	if strings.HasPrefix(strings.TrimPrefix(link, "/"), "track/") {
		return "track"
	}
	return "album"
}
