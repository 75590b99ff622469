package model

// Metadata is what a player shows for the media it is playing.
type Metadata struct {
	URI      string   `json:"uri"`
	Source   string   `json:"source"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists,omitempty"`
	Album    string   `json:"album,omitempty"`
	Artwork  string   `json:"artwork,omitempty"`
	Released string   `json:"released,omitempty"`
	// DurationMS is 0 when unknown.
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// IsZero reports whether no field is set.
func (m Metadata) IsZero() bool {
	return m.URI == "" && m.Title == ""
}
