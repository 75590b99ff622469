package dto

import (
	"path"
	"strings"
)

// JSONTrack represents a track from Bandcamp's JSON data.
type JSONTrack struct {
	ID        int64        `json:"track_id"`
	Duration  float64      `json:"duration"`
	File      *JSONMp3File `json:"file"`
	Lyrics    string       `json:"lyrics"`
	Number    *int         `json:"track_num"`
	Title     string       `json:"title"`
	TitleLink string       `json:"title_link"`
	Artist    string       `json:"artist"`
}

// JSONMp3File represents the MP3 file info. It is null for tracks that
// cannot be streamed.
type JSONMp3File struct {
	URL string `json:"mp3-128"`
}

// MP3URL returns the stream URL with a scheme, empty when the track has
// no stream.
func (jt *JSONTrack) MP3URL() string {
	if jt.File == nil || jt.File.URL == "" {
		return ""
	}
	if strings.HasPrefix(jt.File.URL, "//") {
		return "https:" + jt.File.URL
	}
	return jt.File.URL
}

// TrackNumber defaults to 1 for single tracks.
func (jt *JSONTrack) TrackNumber() int {
	if jt.Number == nil {
		return 1
	}
	return *jt.Number
}

// Slug returns the last element of the track link, e.g. "song" for
// "/track/song".
func (jt *JSONTrack) Slug() string {
	if jt.TitleLink == "" {
		return ""
	}
	link := jt.TitleLink
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	return path.Base(link)
}

// DurationMS converts the duration in seconds to milliseconds.
func (jt *JSONTrack) DurationMS() int64 {
	return int64(jt.Duration * 1000)
}
