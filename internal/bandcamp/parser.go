package bandcamp

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/handiism/fuo/internal/bandcamp/dto"
)

var (
	fixURLRe    = regexp.MustCompile(`(url: ".+)" \+ "(.+",)`)
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	siteNameRe  = regexp.MustCompile(`<meta\s+property="og:site_name"\s+content="([^"]*)"`)
	fromAlbumRe = regexp.MustCompile(`(?s)<span class="fromAlbum">(.*?)</span>`)
)

// ErrNoAlbumData is returned when a page carries no data-tralbum
// attribute, e.g. a private release or a page that is not a release.
var ErrNoAlbumData = errors.New("could not find album data in HTML")

// Parser extracts release information from Bandcamp HTML pages.
//
// Bandcamp embeds release data as JSON within the HTML page in a
// data-tralbum attribute. The Parser extracts this JSON, fixes any
// malformed content, deserializes it and completes it with what only the
// HTML carries: lyrics, the site name and, on track pages, the title of
// the album the track belongs to.
//
// Example usage:
//
//	parser := NewParser()
//
//	page, _ := client.GetString(ctx, "https://artist.bandcamp.com/album/name")
//
//	album, err := parser.ParseAlbumPage(page)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Album: %s by %s\n", album.Title(), album.Artist)
//	for _, track := range album.Tracks {
//	    fmt.Printf("  %d. %s\n", track.TrackNumber(), track.Title)
//	}
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseAlbumPage extracts release info from a Bandcamp album or track
// page HTML.
//
// This method performs the following steps:
//  1. Extracts the data-tralbum JSON from the HTML
//  2. Fixes malformed JSON (e.g., URL concatenation issues)
//  3. Deserializes JSON into album/track data
//  4. Fills lyrics missing from the JSON from the HTML lyric rows
//  5. Reads the site name and, for tracks, the album title
//
// The HTML should be the full page source from a Bandcamp URL like:
//   - https://artist.bandcamp.com/album/album-name
//   - https://artist.bandcamp.com/track/track-name
//
// Returns ErrNoAlbumData if the data-tralbum attribute cannot be found,
// or a JSON error if it is malformed.
func (p *Parser) ParseAlbumPage(htmlContent string) (*dto.JSONAlbum, error) {
	albumData, err := extractAlbumData(htmlContent)
	if err != nil {
		return nil, err
	}

	albumData = fixJSON(albumData)

	var album dto.JSONAlbum
	if err := json.Unmarshal([]byte(albumData), &album); err != nil {
		return nil, fmt.Errorf("failed to parse album JSON: %w", err)
	}

	p.extractLyrics(htmlContent, &album)
	album.SiteName = firstGroup(siteNameRe, htmlContent)
	if album.IsTrack() {
		album.AlbumTitle = strings.TrimSpace(tagRe.ReplaceAllString(firstGroup(fromAlbumRe, htmlContent), ""))
	} else {
		album.AlbumTitle = album.Title()
	}

	return &album, nil
}

// extractAlbumData extracts the data-tralbum JSON string from HTML.
//
// Bandcamp embeds album data in the HTML like this:
//
//	<script ... data-tralbum="{...JSON...}">
//
// This function finds and extracts that JSON, then HTML-unescapes it
// (since the JSON is embedded in an HTML attribute, characters like
// quotes are escaped as &quot;).
func extractAlbumData(htmlContent string) (string, error) {
	const startString = `data-tralbum="{`
	const stopString = `}"`

	startIndex := strings.Index(htmlContent, startString)
	if startIndex == -1 {
		return "", ErrNoAlbumData
	}

	startIndex += len(startString) - 1 // keep the opening brace
	remaining := htmlContent[startIndex:]

	endIndex := strings.Index(remaining, stopString)
	if endIndex == -1 {
		return "", fmt.Errorf("could not find end of album data")
	}

	return html.UnescapeString(remaining[:endIndex+1]), nil
}

// fixJSON fixes malformed JSON from Bandcamp pages.
//
// Some Bandcamp pages have JavaScript-style URL concatenation in the JSON:
//
//	url: "http://example.bandcamp.com" + "/album/name",
//
// This is not valid JSON, so we fix it by removing the concatenation:
//
//	url: "http://example.bandcamp.com/album/name",
func fixJSON(albumData string) string {
	return fixURLRe.ReplaceAllString(albumData, "${1}${2}")
}

// extractLyrics fills the lyrics of tracks whose JSON has none.
//
// Bandcamp displays lyrics in elements with IDs like "lyrics_row_1",
// "lyrics_row_2", etc. keyed by track number.
func (p *Parser) extractLyrics(htmlContent string, album *dto.JSONAlbum) {
	for i := range album.Tracks {
		track := &album.Tracks[i]
		if track.Lyrics != "" {
			continue
		}
		lyricsID := fmt.Sprintf(`id="lyrics_row_%d"`, track.TrackNumber())
		startIdx := strings.Index(htmlContent, lyricsID)
		if startIdx == -1 {
			continue
		}

		remaining := htmlContent[startIdx:]
		contentStart := strings.Index(remaining, ">")
		if contentStart == -1 {
			continue
		}
		contentEnd := strings.Index(remaining[contentStart:], "</div>")
		if contentEnd == -1 {
			continue
		}

		lyricsHTML := remaining[contentStart+1 : contentStart+contentEnd]
		lyricsHTML = strings.ReplaceAll(lyricsHTML, "<br>", "\n")
		lyrics := tagRe.ReplaceAllString(lyricsHTML, "")
		track.Lyrics = strings.TrimSpace(html.UnescapeString(lyrics))
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return html.UnescapeString(m[1])
}
