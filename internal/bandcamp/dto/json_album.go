package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	artworkURLStart = "https://f4.bcbits.com/img/a"
	artworkURLEnd   = "_0.jpg"
)

// BandcampTime is a custom time type that handles Bandcamp's date format.
type BandcampTime struct {
	time.Time
}

// UnmarshalJSON parses Bandcamp's date format: "01 Jan 2023 00:00:00 GMT"
func (bt *BandcampTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		bt.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "" {
		bt.Time = time.Time{}
		return nil
	}

	formats := []string{
		"02 Jan 2006 15:04:05 MST", // "01 Jan 2023 00:00:00 GMT"
		"2 Jan 2006 15:04:05 MST",  // "1 Jan 2023 00:00:00 GMT"
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			bt.Time = t
			return nil
		}
	}

	return fmt.Errorf("unable to parse date: %s", s)
}

// JSONAlbum is the data-tralbum object of an album or track page.
//
// On a track page Tracks holds the single track, AlbumData describes the
// track itself and AlbumURL points at the release it belongs to, if any.
type JSONAlbum struct {
	AlbumData   *JSONAlbumData `json:"current"`
	ArtID       *int64         `json:"art_id"`
	Artist      string         `json:"artist"`
	ReleaseDate *BandcampTime  `json:"album_release_date"`
	Tracks      []JSONTrack    `json:"trackinfo"`
	URL         string         `json:"url"`
	ItemType    string         `json:"item_type"`
	AlbumURL    string         `json:"album_url"`

	// Filled from the surrounding HTML, not the JSON.
	SiteName   string `json:"-"`
	AlbumTitle string `json:"-"`
}

// JSONAlbumData contains album metadata.
type JSONAlbumData struct {
	Title       string        `json:"title"`
	About       string        `json:"about"`
	Credits     string        `json:"credits"`
	ReleaseDate *BandcampTime `json:"release_date"`
	PublishDate *BandcampTime `json:"publish_date"`
}

// Title returns the release title, or the track title on a track page.
func (ja *JSONAlbum) Title() string {
	if ja.AlbumData == nil {
		return ""
	}
	return ja.AlbumData.Title
}

// IsTrack reports whether the page is a track page.
func (ja *JSONAlbum) IsTrack() bool {
	return ja.ItemType == "track"
}

// ArtworkURL returns the full size cover URL, empty when the release has
// no artwork.
func (ja *JSONAlbum) ArtworkURL() string {
	if ja.ArtID == nil || *ja.ArtID == 0 {
		return ""
	}
	return fmt.Sprintf("%s%010d%s", artworkURLStart, *ja.ArtID, artworkURLEnd)
}

// Released returns the release date, falling back to the publish date.
func (ja *JSONAlbum) Released() time.Time {
	switch {
	case ja.ReleaseDate != nil && !ja.ReleaseDate.IsZero():
		return ja.ReleaseDate.Time
	case ja.AlbumData != nil && ja.AlbumData.ReleaseDate != nil && !ja.AlbumData.ReleaseDate.IsZero():
		return ja.AlbumData.ReleaseDate.Time
	case ja.AlbumData != nil && ja.AlbumData.PublishDate != nil:
		return ja.AlbumData.PublishDate.Time
	}
	return time.Time{}
}

// Description joins the about and credits texts.
func (ja *JSONAlbum) Description() string {
	if ja.AlbumData == nil {
		return ""
	}
	parts := make([]string, 0, 2)
	for _, s := range []string{ja.AlbumData.About, ja.AlbumData.Credits} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}
