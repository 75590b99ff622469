package metadata

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/uri"
)

// DefaultTimeout bounds each upgrade the assembler makes.
const DefaultTimeout = time.Second

// Upgrader fetches full models. library.Library satisfies it.
type Upgrader interface {
	SongUpgrade(ctx context.Context, s model.BriefSong) (*model.Song, error)
	AlbumUpgrade(ctx context.Context, a model.BriefAlbum) (*model.Album, error)
}

// Assembler builds model.Metadata from a brief song.
//
// Enrichment is best effort: upgrade failures and timeouts are logged and
// the basic fields taken from the brief song are returned.
//
// Example:
//
//	a := metadata.NewAssembler(lib, 0, logger)
//	meta := a.Prepare(ctx, song)
//	player.Play(media, meta)
type Assembler struct {
	up      Upgrader
	timeout time.Duration
	logger  *slog.Logger
}

// NewAssembler returns an Assembler. timeout <= 0 uses DefaultTimeout.
func NewAssembler(up Upgrader, timeout time.Duration, logger *slog.Logger) *Assembler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{up: up, timeout: timeout, logger: logger}
}

// Basic returns the fields that need no provider call.
func Basic(s model.BriefSong) model.Metadata {
	return model.Metadata{
		URI:        uri.Build(s.Key()),
		Source:     s.Source,
		Title:      s.Title,
		Artists:    splitArtists(s.ArtistsName),
		Album:      s.AlbumName,
		DurationMS: s.DurationMS,
	}
}

// Prepare returns the metadata of s. When the song has no picture the
// album cover is used.
func (a *Assembler) Prepare(ctx context.Context, s model.BriefSong) model.Metadata {
	meta := Basic(s)

	song, err := a.upgradeSong(ctx, s)
	if err != nil || song == nil {
		a.logger.Warn("metadata: song upgrade failed", "uri", meta.URI, "err", err)
		return meta
	}
	if song.Title != "" {
		meta.Title = song.Title
	}
	if len(song.Artists) > 0 {
		meta.Artists = meta.Artists[:0]
		for _, ar := range song.Artists {
			meta.Artists = append(meta.Artists, ar.Name)
		}
	}
	if name := song.AlbumName(); name != "" {
		meta.Album = name
	}
	if song.DurationMS > 0 {
		meta.DurationMS = song.DurationMS
	}
	meta.Released = song.Released
	meta.Artwork = song.PicURL

	if meta.Artwork == "" && song.Album != nil {
		album, err := a.upgradeAlbum(ctx, *song.Album)
		if err != nil || album == nil {
			a.logger.Warn("metadata: album upgrade failed", "uri", meta.URI, "err", err)
			return meta
		}
		meta.Artwork = album.Cover
		if meta.Released == "" {
			meta.Released = album.Released
		}
	}
	return meta
}

func (a *Assembler) upgradeSong(ctx context.Context, s model.BriefSong) (*model.Song, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.up.SongUpgrade(ctx, s)
}

func (a *Assembler) upgradeAlbum(ctx context.Context, al model.BriefAlbum) (*model.Album, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.up.AlbumUpgrade(ctx, al)
}

func splitArtists(names string) []string {
	if names == "" {
		return nil
	}
	parts := strings.Split(names, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
