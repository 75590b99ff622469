package audio

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/h2non/filetype"

	"github.com/handiism/fuo/internal/model"
)

// TagEditAction defines how to handle individual ID3 tags.
//
// Each tag field can be configured independently to determine whether
// it should be modified, cleared, or left unchanged.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the provider.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    ModifyTags:  true,
//	    Artist:      TagModify,      // Update artist from the provider
//	    Album:       TagModify,
//	    TrackTitle:  TagModify,
//	    Lyrics:      TagModify,      // Add lyrics if available
//	    Comments:    TagEmpty,       // Clear any existing comments
//	    AlbumArtist: TagDoNotModify, // Keep existing album artist
//	}
type TagConfig struct {
	// ModifyTags is a master switch. If false, no string tags are modified.
	ModifyTags bool

	// Artist controls the TPE1 (Lead artist) frame.
	Artist TagEditAction

	// AlbumArtist controls the TPE2 (Album artist) frame.
	AlbumArtist TagEditAction

	// Album controls the TALB (Album title) frame.
	Album TagEditAction

	// Date controls the TDRC (Recording time) frame.
	Date TagEditAction

	// TrackNumber controls the TRCK (Track number) frame.
	TrackNumber TagEditAction

	// DiscNumber controls the TPOS (Part of a set) frame.
	DiscNumber TagEditAction

	// TrackTitle controls the TIT2 (Title) frame.
	TrackTitle TagEditAction

	// Genre controls the TCON (Content type) frame.
	Genre TagEditAction

	// Lyrics controls the USLT (Unsynchronized lyrics) frame.
	Lyrics TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction
}

// DefaultTagConfig returns the default tag configuration.
//
// Every field is set to TagModify except comments, which are cleared.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags:  true,
		Artist:      TagModify,
		AlbumArtist: TagModify,
		Album:       TagModify,
		Date:        TagModify,
		TrackNumber: TagModify,
		DiscNumber:  TagModify,
		TrackTitle:  TagModify,
		Genre:       TagModify,
		Lyrics:      TagModify,
		Comments:    TagEmpty,
	}
}

// Tags is what the Tagger writes to a file.
type Tags struct {
	Title       string
	Artists     []string
	Album       string
	AlbumArtist string
	// Released is a date such as "2006" or "2006-01-02".
	Released    string
	TrackNumber int
	DiscNumber  int
	Genre       string
	Lyrics      string
}

// TagsFromSong builds tags from a song and its plain lyrics.
func TagsFromSong(s *model.Song, lyrics string) Tags {
	t := Tags{
		Title:       s.Title,
		Released:    s.Released,
		TrackNumber: s.TrackNumber,
		DiscNumber:  s.DiscNumber,
		Genre:       s.Genre,
		Lyrics:      lyrics,
	}
	for _, a := range s.Artists {
		t.Artists = append(t.Artists, a.Name)
	}
	if len(t.Artists) > 0 {
		t.AlbumArtist = t.Artists[0]
	}
	if s.Album != nil {
		t.Album = s.Album.Name
	}
	return t
}

// Tagger writes ID3 tags to MP3 files.
//
// Tagger uses the id3v2 library to modify MP3 file metadata including:
//   - Artist, Album Artist, Album, Title
//   - Track and disc number, release date, genre
//   - Lyrics (unsynchronized)
//   - Cover Art (attached picture)
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//
//	// After downloading a song
//	err := tagger.SaveTags(path, audio.TagsFromSong(song, lyrics), artworkBytes)
//	if err != nil {
//	    log.Printf("Failed to tag %s: %v", path, err)
//	}
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// SaveTags writes tags to the MP3 file at path.
//
// This method:
//  1. Opens the existing MP3 file, keeping the frames it already has
//  2. Updates string frames based on TagConfig settings
//  3. Embeds cover art if artwork bytes are provided
//  4. Saves the modified tags to the file
//
// The artwork MIME type is sniffed from its content. Returns an error if
// the file cannot be opened or saved.
func (t *Tagger) SaveTags(path string, tags Tags, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("tag %s: %w", path, err)
		}
		return fmt.Errorf("open tags of %s: %w", path, err)
	}
	defer tag.Close()

	if t.config.ModifyTags {
		t.updateStringTags(tag, tags)
	}

	if artwork != nil {
		t.updateArtwork(tag, artwork)
	}

	return tag.Save()
}

func (t *Tagger) updateStringTags(tag *id3v2.Tag, tags Tags) {
	// Artist (TPE1)
	switch t.config.Artist {
	case TagEmpty:
		tag.SetArtist("")
	case TagModify:
		tag.SetArtist(strings.Join(tags.Artists, ", "))
	}

	// Album (TALB)
	switch t.config.Album {
	case TagEmpty:
		tag.SetAlbum("")
	case TagModify:
		tag.SetAlbum(tags.Album)
	}

	// Date (TDRC)
	switch t.config.Date {
	case TagEmpty:
		tag.DeleteFrames("TDRC")
	case TagModify:
		if tags.Released != "" {
			tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, tags.Released)
		}
	}

	// Track Number (TRCK)
	switch t.config.TrackNumber {
	case TagEmpty:
		tag.DeleteFrames("TRCK")
	case TagModify:
		if tags.TrackNumber > 0 {
			tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, fmt.Sprintf("%d", tags.TrackNumber))
		}
	}

	// Disc Number (TPOS)
	switch t.config.DiscNumber {
	case TagEmpty:
		tag.DeleteFrames("TPOS")
	case TagModify:
		if tags.DiscNumber > 0 {
			tag.AddTextFrame("TPOS", id3v2.EncodingUTF8, fmt.Sprintf("%d", tags.DiscNumber))
		}
	}

	// Track Title (TIT2)
	switch t.config.TrackTitle {
	case TagEmpty:
		tag.SetTitle("")
	case TagModify:
		tag.SetTitle(tags.Title)
	}

	// Album Artist (TPE2)
	switch t.config.AlbumArtist {
	case TagEmpty:
		tag.DeleteFrames("TPE2")
	case TagModify:
		if tags.AlbumArtist != "" {
			tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, tags.AlbumArtist)
		}
	}

	// Genre (TCON)
	switch t.config.Genre {
	case TagEmpty:
		tag.SetGenre("")
	case TagModify:
		tag.SetGenre(tags.Genre)
	}

	// Lyrics (USLT)
	switch t.config.Lyrics {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("Unsynchronised lyrics/text transcription"))
	case TagModify:
		if tags.Lyrics != "" {
			tag.DeleteFrames(tag.CommonID("Unsynchronised lyrics/text transcription"))
			tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
				Encoding:          id3v2.EncodingUTF8,
				Language:          "eng",
				ContentDescriptor: "",
				Lyrics:            tags.Lyrics,
			})
		}
	}

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

// updateArtwork embeds cover art as an attached picture frame.
func (t *Tagger) updateArtwork(tag *id3v2.Tag, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	mime := "image/jpeg"
	if kind, err := filetype.Image(artwork); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mime,
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	})
}
