package bandcamp

import (
	"errors"
	"html"
	"regexp"
	"strings"
)

var (
	releaseURLRe     = regexp.MustCompile(`(?P<url>/(album|track)/.+?)("|&quot;|\?)`)
	singleAlbumURLRe = regexp.MustCompile(`href="(?P<url>/album/.+?)"`)
	bandNameRe       = regexp.MustCompile(`(?s)<p id="band-name-location">\s*<span class="title">(.*?)</span>`)
	bioRe            = regexp.MustCompile(`(?s)<p id="bio-text"[^>]*>(.*?)</p>`)
	bandPhotoRe      = regexp.MustCompile(`<img[^>]+class="band-photo"[^>]+src="([^"]+)"`)
)

// ErrNoAlbumFound is returned when no album or track URLs can be found on a page.
//
// This typically occurs when:
//   - The URL is not a valid Bandcamp artist/music page
//   - The artist has no published albums or tracks
//   - The HTML structure has changed unexpectedly
var ErrNoAlbumFound = errors.New("no album found on page")

// ArtistInfo is what an artist's music page says about the artist.
type ArtistInfo struct {
	Name     string
	Bio      string
	PhotoURL string
}

// Discography extracts release URLs and artist details from Bandcamp
// artist pages.
//
// When given an artist's music page HTML (e.g., from https://artist.bandcamp.com/music),
// Discography can find all album and track URLs listed on that page.
//
// Discography handles two cases:
//  1. Normal music pages with multiple releases listed
//  2. Single-album artists where the music page redirects to the album page
//
// Example usage:
//
//	disco := NewDiscography()
//
//	page, _ := client.GetString(ctx, "https://artist.bandcamp.com/music")
//
//	urls, err := disco.GetAlbumURLs(page)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, url := range urls {
//	    fmt.Println("https://artist.bandcamp.com" + url)
//	}
type Discography struct{}

// NewDiscography creates a new Discography service.
func NewDiscography() *Discography {
	return &Discography{}
}

// GetAlbumURLs extracts all album and track URLs from a Bandcamp music page.
//
// The returned URLs are relative paths like:
//   - /album/my-album
//   - /track/my-track
//
// in the order the page lists them, which is newest first. Duplicates
// are dropped.
//
// Returns ErrNoAlbumFound if no album or track URLs can be found.
//
// Example:
//
//	urls, err := disco.GetAlbumURLs(musicPageHTML)
//	if errors.Is(err, ErrNoAlbumFound) {
//	    fmt.Println("Artist has no published music")
//	    return
//	}
func (d *Discography) GetAlbumURLs(musicPageHTML string) ([]string, error) {
	if d.isSingleAlbumArtist(musicPageHTML) {
		albumURL, err := d.getSingleAlbumURL(musicPageHTML)
		if err != nil {
			return nil, err
		}
		return []string{albumURL}, nil
	}

	urls := uniqueGroups(releaseURLRe, musicPageHTML)
	if len(urls) == 0 {
		return nil, ErrNoAlbumFound
	}
	return urls, nil
}

// ParseArtist reads the artist name, bio and photo from a music page.
// Missing parts are left empty.
func (d *Discography) ParseArtist(musicPageHTML string) ArtistInfo {
	name := firstGroup(siteNameRe, musicPageHTML)
	if name == "" {
		name = strings.TrimSpace(firstGroup(bandNameRe, musicPageHTML))
	}
	bio := strings.ReplaceAll(firstGroup(bioRe, musicPageHTML), "<br>", "\n")
	return ArtistInfo{
		Name:     name,
		Bio:      strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(bio, ""))),
		PhotoURL: firstGroup(bandPhotoRe, musicPageHTML),
	}
}

// isSingleAlbumArtist checks if the page is an album page rather than a music listing.
//
// When an artist has only one album, Bandcamp often redirects their /music page
// to their album page. We detect this by looking for the "discography" div,
// which is only present on album pages, not music listing pages.
func (d *Discography) isSingleAlbumArtist(html string) bool {
	return strings.Contains(html, `div id="discography"`)
}

// getSingleAlbumURL extracts the album URL from a single-album artist's page.
//
// Returns ErrNoAlbumFound if no album URL or multiple album URLs are found.
func (d *Discography) getSingleAlbumURL(html string) (string, error) {
	urls := uniqueGroups(singleAlbumURLRe, html)
	switch len(urls) {
	case 0:
		return "", ErrNoAlbumFound
	case 1:
		return urls[0], nil
	}
	return "", errors.New("found multiple album URLs, expected exactly one")
}

// uniqueGroups returns the first group of every match of re, once each,
// in order of appearance.
func uniqueGroups(re *regexp.Regexp, s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, match := range re.FindAllStringSubmatch(s, -1) {
		if len(match) < 2 {
			continue
		}
		if _, dup := seen[match[1]]; dup {
			continue
		}
		seen[match[1]] = struct{}{}
		out = append(out, match[1])
	}
	return out
}
