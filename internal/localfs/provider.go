package localfs

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dhowden/tag"

	ioutils "github.com/handiism/fuo/internal/io"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/reader"
	"github.com/handiism/fuo/internal/signal"
)

// Identifier is the source of every local model.
const Identifier = "local"

// Option configures a Provider.
type Option func(*Provider)

func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// WithArtworkCache makes embedded covers available as file:// picture
// URLs, thumbnailed into cache.
func WithArtworkCache(cache *ioutils.ArtworkCache) Option {
	return func(p *Provider) { p.artwork = cache }
}

// Provider serves the audio files found under a set of directories.
//
// Songs, albums and artists are built from the files' tags when Scan
// runs; nothing is watched in between. Song identifiers are derived from
// the file path, so they survive rescans as long as files do not move.
//
// Example:
//
//	local := localfs.New([]string{"/home/me/Music"}, localfs.WithLogger(logger))
//	if err := local.Scan(ctx); err != nil {
//	    return err
//	}
//	reg.Register(local)
type Provider struct {
	dirs    []string
	logger  *slog.Logger
	artwork *ioutils.ArtworkCache

	mu  sync.RWMutex
	idx *index

	// Scanned carries the number of songs found after every Scan.
	Scanned signal.Signal[int]
}

// New returns a provider over dirs. It holds no songs until Scan.
func New(dirs []string, opts ...Option) *Provider {
	p := &Provider{
		dirs:   dirs,
		logger: slog.Default(),
		idx:    &index{tracks: map[string]*track{}, albums: map[string]*model.Album{}, artists: map[string]*artistEntry{}},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Identifier() string { return Identifier }
func (p *Provider) Name() string       { return "Local" }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		model.TypeSong:   provider.FlagGet | provider.FlagMultiQuality | provider.FlagLyric,
		model.TypeAlbum:  provider.FlagGet | provider.FlagListSongs,
		model.TypeArtist: provider.FlagGet | provider.FlagListSongs | provider.FlagListAlbums,
	}
}

// Scan rebuilds the library from disk. Missing directories are skipped
// with a warning.
func (p *Provider) Scan(ctx context.Context) error {
	idx, err := scan(ctx, p.dirs, func(path string, err error) {
		p.logger.Warn("localfs: skipping", "path", path, "err", err)
	})
	if err != nil {
		return fmt.Errorf("scan local music: %w", err)
	}
	p.mu.Lock()
	p.idx = idx
	p.mu.Unlock()
	p.logger.Info("localfs: scanned", "dirs", len(p.dirs), "songs", len(idx.tracks), "albums", len(idx.albums))
	p.Scanned.Emit(len(idx.tracks))
	return nil
}

func (p *Provider) snapshot() *index {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.idx
}

// Songs returns every scanned song, sorted by album artist, album and
// track number.
func (p *Provider) Songs() []model.BriefSong {
	idx := p.snapshot()
	out := make([]model.BriefSong, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.tracks[id].song.Brief())
	}
	return out
}

// Path returns the file behind a song.
func (p *Provider) Path(id string) (string, bool) {
	t, ok := p.snapshot().tracks[id]
	if !ok {
		return "", false
	}
	return t.path, true
}

func (p *Provider) track(id string) (*track, error) {
	t, ok := p.snapshot().tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w: local song %s", provider.ErrModelNotFound, id)
	}
	return t, nil
}

func (p *Provider) SongGet(ctx context.Context, id string) (*model.Song, error) {
	t, err := p.track(id)
	if err != nil {
		return nil, err
	}
	s := t.song
	s.State = model.StateUpgraded
	if t.hasPicture {
		s.PicURL = p.pictureURL(ctx, t)
	}
	return &s, nil
}

// pictureURL caches the embedded cover and returns its file:// URL, empty
// when no cache is configured or the picture cannot be decoded.
func (p *Provider) pictureURL(ctx context.Context, t *track) string {
	if p.artwork == nil {
		return ""
	}
	path := p.artwork.Path(t.path)
	if !ioutils.Exists(path) {
		pic, err := readPicture(t.path)
		if err != nil || pic == nil {
			return ""
		}
		if path, err = p.artwork.Store(ctx, t.path, pic.Data); err != nil {
			p.logger.Debug("localfs: cover not cached", "path", t.path, "err", err)
			return ""
		}
	}
	return fileURL(path)
}

func readPicture(path string) (*tag.Picture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	meta, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}
	return meta.Picture(), nil
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func quality(path string) model.Quality {
	if losslessExtensions[strings.ToLower(filepath.Ext(path))] {
		return model.AudioSHQ
	}
	return model.AudioHQ
}

func (p *Provider) SongListQuality(ctx context.Context, song model.BriefSong) ([]model.Quality, error) {
	t, err := p.track(song.Identifier)
	if err != nil {
		return nil, err
	}
	return []model.Quality{quality(t.path)}, nil
}

func (p *Provider) SongGetMedia(ctx context.Context, song model.BriefSong, q model.Quality) (*model.Media, error) {
	t, err := p.track(song.Identifier)
	if err != nil {
		return nil, err
	}
	if q != quality(t.path) {
		return nil, provider.NewMediaNotFound(fmt.Sprintf("local file has no %s quality", q))
	}
	if !ioutils.Exists(t.path) {
		return nil, provider.NewMediaNotFound("file removed: " + t.path)
	}
	return &model.Media{
		URL:     fileURL(t.path),
		Type:    model.MediaAudio,
		Format:  strings.TrimPrefix(strings.ToLower(filepath.Ext(t.path)), "."),
		Quality: q,
	}, nil
}

// SongGetLyric prefers a sidecar .lrc file next to the audio file over
// lyrics embedded in the tags.
func (p *Provider) SongGetLyric(ctx context.Context, song model.BriefSong) (*model.Lyric, error) {
	t, err := p.track(song.Identifier)
	if err != nil {
		return nil, err
	}
	content := t.lyrics
	sidecar := strings.TrimSuffix(t.path, filepath.Ext(t.path)) + ".lrc"
	if data, err := os.ReadFile(sidecar); err == nil {
		content = string(data)
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	return &model.Lyric{Source: Identifier, Identifier: song.Identifier, Content: content}, nil
}

func (p *Provider) AlbumGet(ctx context.Context, id string) (*model.Album, error) {
	idx := p.snapshot()
	a, ok := idx.albums[id]
	if !ok {
		return nil, fmt.Errorf("%w: local album %s", provider.ErrModelNotFound, id)
	}
	cp := *a
	for _, s := range a.Songs {
		if t := idx.tracks[s.Identifier]; t != nil && t.hasPicture {
			cp.Cover = p.pictureURL(ctx, t)
			break
		}
	}
	return &cp, nil
}

func (p *Provider) AlbumCreateSongsRd(ctx context.Context, album model.BriefAlbum) (reader.Reader[model.BriefSong], error) {
	a, ok := p.snapshot().albums[album.Identifier]
	if !ok {
		return nil, fmt.Errorf("%w: local album %s", provider.ErrModelNotFound, album.Identifier)
	}
	return reader.Wrap(a.Songs), nil
}

func (p *Provider) artistEntry(id string) (*artistEntry, error) {
	ae, ok := p.snapshot().artists[id]
	if !ok {
		return nil, fmt.Errorf("%w: local artist %s", provider.ErrModelNotFound, id)
	}
	return ae, nil
}

func (p *Provider) ArtistGet(ctx context.Context, id string) (*model.Artist, error) {
	ae, err := p.artistEntry(id)
	if err != nil {
		return nil, err
	}
	a := ae.artist
	return &a, nil
}

func (p *Provider) ArtistCreateSongsRd(ctx context.Context, artist model.BriefArtist) (reader.Reader[model.BriefSong], error) {
	ae, err := p.artistEntry(artist.Identifier)
	if err != nil {
		return nil, err
	}
	return reader.Wrap(ae.songs), nil
}

func (p *Provider) ArtistCreateAlbumsRd(ctx context.Context, artist model.BriefArtist) (reader.Reader[model.BriefAlbum], error) {
	ae, err := p.artistEntry(artist.Identifier)
	if err != nil {
		return nil, err
	}
	return reader.Wrap(ae.albums), nil
}
