// Package providertest provides an in-memory provider for tests.
package providertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/reader"
)

// Fake is a configurable provider backed by maps.
//
// Fill the exported maps before registering it. Songs without an entry in
// Media have no playable media. Set Err to make every call fail with it,
// and Delay to slow every call down.
type Fake struct {
	ID     string
	Caps   provider.Capabilities
	Delay  time.Duration
	Err    error
	Songs  map[string]*model.Song
	Albums map[string]*model.Album
	// Artists maps an artist identifier to the artist and its songs.
	Artists map[string]*model.Artist
	Media   map[string]*model.Media
	Lyrics  map[string]*model.Lyric
	MVs     map[string]*model.Video
	Videos  map[string]*model.Media
	Similar map[string][]model.BriefSong
	User    *model.User
	Fav     []model.BriefSong

	mu    sync.Mutex
	calls map[string]int
}

// New returns a Fake with empty maps and every capability it implements.
func New(id string) *Fake {
	return &Fake{
		ID:      id,
		Caps:    AllCapabilities(),
		Songs:   map[string]*model.Song{},
		Albums:  map[string]*model.Album{},
		Artists: map[string]*model.Artist{},
		Media:   map[string]*model.Media{},
		Lyrics:  map[string]*model.Lyric{},
		MVs:     map[string]*model.Video{},
		Videos:  map[string]*model.Media{},
		Similar: map[string][]model.BriefSong{},
		calls:   map[string]int{},
	}
}

// AllCapabilities returns the flags Fake implements.
func AllCapabilities() provider.Capabilities {
	return provider.Capabilities{
		model.TypeSong: provider.FlagGet | provider.FlagMultiQuality | provider.FlagLyric |
			provider.FlagMV | provider.FlagListSimilar | provider.FlagWebURL,
		model.TypeAlbum:  provider.FlagGet | provider.FlagListSongs,
		model.TypeArtist: provider.FlagGet | provider.FlagListSongs,
		model.TypeVideo:  provider.FlagMultiQuality,
		model.TypeUser:   provider.FlagCurrentUser | provider.FlagFavorites,
	}
}

// AddSong stores s and, when url is not empty, an hq media for it.
func (f *Fake) AddSong(s *model.Song, url string) model.BriefSong {
	s.Source = f.ID
	f.Songs[s.Identifier] = s
	if url != "" {
		f.Media[s.Identifier] = &model.Media{URL: url, Type: model.MediaAudio, Quality: model.AudioHQ}
	}
	return s.Brief()
}

// Calls returns how often op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.Err
}

func (f *Fake) Identifier() string                   { return f.ID }
func (f *Fake) Name() string                         { return "fake " + f.ID }
func (f *Fake) Capabilities() provider.Capabilities { return f.Caps }

func (f *Fake) SongGet(ctx context.Context, id string) (*model.Song, error) {
	if err := f.enter(ctx, "SongGet"); err != nil {
		return nil, err
	}
	s, ok := f.Songs[id]
	if !ok {
		return nil, fmt.Errorf("%w: song %s", provider.ErrModelNotFound, id)
	}
	cp := *s
	cp.State = model.StateUpgraded
	return &cp, nil
}

func (f *Fake) SongListQuality(ctx context.Context, song model.BriefSong) ([]model.Quality, error) {
	if err := f.enter(ctx, "SongListQuality"); err != nil {
		return nil, err
	}
	if m, ok := f.Media[song.Identifier]; ok {
		return []model.Quality{m.Quality}, nil
	}
	return nil, nil
}

func (f *Fake) SongGetMedia(ctx context.Context, song model.BriefSong, q model.Quality) (*model.Media, error) {
	if err := f.enter(ctx, "SongGetMedia"); err != nil {
		return nil, err
	}
	m, ok := f.Media[song.Identifier]
	if !ok || m.Quality != q {
		return nil, provider.NewMediaNotFound(song.Identifier)
	}
	return m, nil
}

func (f *Fake) SongListSimilar(ctx context.Context, song model.BriefSong) ([]model.BriefSong, error) {
	if err := f.enter(ctx, "SongListSimilar"); err != nil {
		return nil, err
	}
	return f.Similar[song.Identifier], nil
}

func (f *Fake) SongGetWebURL(ctx context.Context, song model.BriefSong) (string, error) {
	if err := f.enter(ctx, "SongGetWebURL"); err != nil {
		return "", err
	}
	return "https://" + f.ID + ".example/songs/" + song.Identifier, nil
}

func (f *Fake) SongGetLyric(ctx context.Context, song model.BriefSong) (*model.Lyric, error) {
	if err := f.enter(ctx, "SongGetLyric"); err != nil {
		return nil, err
	}
	return f.Lyrics[song.Identifier], nil
}

func (f *Fake) SongGetMV(ctx context.Context, song model.BriefSong) (*model.Video, error) {
	if err := f.enter(ctx, "SongGetMV"); err != nil {
		return nil, err
	}
	return f.MVs[song.Identifier], nil
}

func (f *Fake) VideoListQuality(ctx context.Context, v model.BriefVideo) ([]model.Quality, error) {
	if err := f.enter(ctx, "VideoListQuality"); err != nil {
		return nil, err
	}
	if m, ok := f.Videos[v.Identifier]; ok {
		return []model.Quality{m.Quality}, nil
	}
	return nil, nil
}

func (f *Fake) VideoGetMedia(ctx context.Context, v model.BriefVideo, q model.Quality) (*model.Media, error) {
	if err := f.enter(ctx, "VideoGetMedia"); err != nil {
		return nil, err
	}
	m, ok := f.Videos[v.Identifier]
	if !ok || m.Quality != q {
		return nil, provider.NewMediaNotFound(v.Identifier)
	}
	return m, nil
}

func (f *Fake) AlbumGet(ctx context.Context, id string) (*model.Album, error) {
	if err := f.enter(ctx, "AlbumGet"); err != nil {
		return nil, err
	}
	a, ok := f.Albums[id]
	if !ok {
		return nil, fmt.Errorf("%w: album %s", provider.ErrModelNotFound, id)
	}
	return a, nil
}

func (f *Fake) AlbumCreateSongsRd(ctx context.Context, album model.BriefAlbum) (reader.Reader[model.BriefSong], error) {
	if err := f.enter(ctx, "AlbumCreateSongsRd"); err != nil {
		return nil, err
	}
	a, ok := f.Albums[album.Identifier]
	if !ok {
		return nil, fmt.Errorf("%w: album %s", provider.ErrModelNotFound, album.Identifier)
	}
	return reader.Wrap(a.Songs), nil
}

func (f *Fake) ArtistGet(ctx context.Context, id string) (*model.Artist, error) {
	if err := f.enter(ctx, "ArtistGet"); err != nil {
		return nil, err
	}
	a, ok := f.Artists[id]
	if !ok {
		return nil, fmt.Errorf("%w: artist %s", provider.ErrModelNotFound, id)
	}
	return a, nil
}

func (f *Fake) ArtistCreateSongsRd(ctx context.Context, artist model.BriefArtist) (reader.Reader[model.BriefSong], error) {
	if err := f.enter(ctx, "ArtistCreateSongsRd"); err != nil {
		return nil, err
	}
	a, ok := f.Artists[artist.Identifier]
	if !ok {
		return nil, fmt.Errorf("%w: artist %s", provider.ErrModelNotFound, artist.Identifier)
	}
	return reader.NewSequential(reader.Slice(a.HotSongs), -1), nil
}

func (f *Fake) CurrentUser(ctx context.Context) (*model.User, error) {
	if err := f.enter(ctx, "CurrentUser"); err != nil {
		return nil, err
	}
	if f.User == nil {
		return nil, provider.ErrNoUserLoggedIn
	}
	return f.User, nil
}

func (f *Fake) CurrentUserFavCreateSongsRd(ctx context.Context) (reader.Reader[model.BriefSong], error) {
	if err := f.enter(ctx, "CurrentUserFavCreateSongsRd"); err != nil {
		return nil, err
	}
	if f.User == nil {
		return nil, provider.ErrNoUserLoggedIn
	}
	return reader.Wrap(f.Fav), nil
}

// Search matches songs whose title and artists together contain every
// word of q, case-insensitively.
func (f *Fake) Search(ctx context.Context, q string, typ model.SearchType, limit int) (*model.SearchResult, error) {
	if err := f.enter(ctx, "Search"); err != nil {
		return nil, err
	}
	res := &model.SearchResult{Source: f.ID, Type: typ, Q: q}
	if typ != model.SearchSong {
		return res, nil
	}
	words := strings.Fields(strings.ToLower(q))
	for _, s := range f.Songs {
		b := s.Brief()
		hay := strings.ToLower(b.Title + " " + b.ArtistsName)
		match := len(words) > 0
		for _, w := range words {
			if !strings.Contains(hay, w) {
				match = false
				break
			}
		}
		if match {
			res.Songs = append(res.Songs, b)
		}
		if limit > 0 && len(res.Songs) >= limit {
			break
		}
	}
	return res, nil
}
