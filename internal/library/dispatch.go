package library

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/reader"
)

// call resolves T for (source, typ, flag) and runs fn on a worker slot.
func call[P any, R any](ctx context.Context, l *Library, source string, typ model.ModelType, flag provider.Flag,
	fn func(context.Context, P) (R, error)) (R, error) {
	var zero R
	p, err := provider.Lookup[P](l.reg, source, typ, flag)
	if err != nil {
		return zero, err
	}
	return run(ctx, l, source, func(ctx context.Context) (R, error) {
		return fn(ctx, p)
	})
}

// upgradeGuard refuses to upgrade a model whose state says it is pointless.
func upgradeGuard(k model.Key, st model.ModelState) error {
	switch st {
	case model.StateNotExists:
		return fmt.Errorf("%w: %s", provider.ErrModelNotFound, k)
	case model.StateCantUpgrade:
		return &provider.NotSupportedError{Provider: k.Source, Protocol: provider.ProtocolName(k.Type, provider.FlagGet)}
	}
	return nil
}

// upgrade fetches the full variant of m through fn. A failure showing
// that m will never upgrade is remembered, and later calls for the same
// key fail without reaching the provider.
func upgrade[P any, R any](ctx context.Context, l *Library, m model.BriefModel, fn func(context.Context, P) (R, error)) (R, error) {
	var zero R
	k := m.Key()
	if err := upgradeGuard(k, l.ModelState(m)); err != nil {
		return zero, err
	}
	v, err := call(ctx, l, k.Source, k.Type, provider.FlagGet, fn)
	if err != nil {
		// the provider may still be registered later
		if !errors.Is(err, provider.ErrProviderNotFound) {
			if st := UpgradeState(err); st == model.StateNotExists || st == model.StateCantUpgrade {
				l.setState(k, st)
				l.logger.Debug("upgrade disabled", "uri", k.String(), "state", st)
			}
		}
		return zero, err
	}
	return v, nil
}

// ModelState returns the state of m, taking into account what earlier
// upgrade attempts found out about its key.
func (l *Library) ModelState(m model.BriefModel) model.ModelState {
	if st := m.ModelState(); st == model.StateNotExists || st == model.StateCantUpgrade {
		return st
	}
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if st, ok := l.states[m.Key()]; ok {
		return st
	}
	return m.ModelState()
}

// ForgetStates drops what failed upgrades recorded for source, for
// example after the provider rescanned its catalog.
func (l *Library) ForgetStates(source string) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	for k := range l.states {
		if k.Source == source {
			delete(l.states, k)
		}
	}
}

func (l *Library) setState(k model.Key, st model.ModelState) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.states[k] = st
}

// UpgradeState returns the state a brief model should take after an
// upgrade attempt ended with err.
func UpgradeState(err error) model.ModelState {
	switch {
	case err == nil:
		return model.StateUpgraded
	case errors.Is(err, provider.ErrProviderNotFound), errors.Is(err, provider.ErrModelNotFound):
		return model.StateNotExists
	case errors.Is(err, provider.ErrNotSupported):
		return model.StateCantUpgrade
	}
	// transient failures leave the model upgradable
	return model.StateExists
}

// Upgrade returns the full variant of a brief model.
func (l *Library) Upgrade(ctx context.Context, m model.BriefModel) (model.Model, error) {
	switch v := m.(type) {
	case model.BriefSong:
		return asModel(l.SongUpgrade(ctx, v))
	case model.BriefAlbum:
		return asModel(l.AlbumUpgrade(ctx, v))
	case model.BriefArtist:
		return asModel(l.ArtistUpgrade(ctx, v))
	case model.BriefPlaylist:
		return asModel(l.PlaylistUpgrade(ctx, v))
	case model.BriefVideo:
		return asModel(l.VideoUpgrade(ctx, v))
	case model.BriefUser:
		return asModel(l.UserUpgrade(ctx, v))
	}
	k := m.Key()
	return nil, &provider.NotSupportedError{Provider: k.Source, Protocol: provider.ProtocolName(k.Type, provider.FlagGet)}
}

// asModel keeps a failed upgrade from returning a typed nil inside the
// interface.
func asModel[T model.Model](v T, err error) (model.Model, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Song operations.

func (l *Library) SongUpgrade(ctx context.Context, s model.BriefSong) (*model.Song, error) {
	return upgrade(ctx, l, s, func(ctx context.Context, p provider.SongGetter) (*model.Song, error) {
		return p.SongGet(ctx, s.Identifier)
	})
}

// SongPrepareMedia returns the song's media selected with policy, or with
// the configured audio policy when policy is empty.
func (l *Library) SongPrepareMedia(ctx context.Context, s model.BriefSong, policy string) (*model.Media, error) {
	if policy == "" {
		policy = l.cfg.AudioPolicy
	}
	return call(ctx, l, s.Source, model.TypeSong, provider.FlagMultiQuality, func(ctx context.Context, p provider.SongMedia) (*model.Media, error) {
		qualities, err := p.SongListQuality(ctx, s)
		if err != nil {
			return nil, err
		}
		q, ok := model.SelectQuality(model.AudioQualities, qualities, policy)
		if !ok {
			return nil, provider.NewMediaNotFound(fmt.Sprintf("no quality of %v matches %s", qualities, policy))
		}
		media, err := p.SongGetMedia(ctx, s, q)
		if err != nil {
			return nil, err
		}
		if media == nil || media.URL == "" {
			return nil, provider.NewMediaNotFound("empty media url")
		}
		return media, nil
	})
}

func (l *Library) SongListQuality(ctx context.Context, s model.BriefSong) ([]model.Quality, error) {
	return call(ctx, l, s.Source, model.TypeSong, provider.FlagMultiQuality, func(ctx context.Context, p provider.SongMedia) ([]model.Quality, error) {
		return p.SongListQuality(ctx, s)
	})
}

// SongGetLyric returns nil, nil when the song has no lyric.
func (l *Library) SongGetLyric(ctx context.Context, s model.BriefSong) (*model.Lyric, error) {
	return call(ctx, l, s.Source, model.TypeSong, provider.FlagLyric, func(ctx context.Context, p provider.SongLyric) (*model.Lyric, error) {
		return p.SongGetLyric(ctx, s)
	})
}

// SongGetMV returns nil, nil when the song has no MV.
func (l *Library) SongGetMV(ctx context.Context, s model.BriefSong) (*model.Video, error) {
	return call(ctx, l, s.Source, model.TypeSong, provider.FlagMV, func(ctx context.Context, p provider.SongMV) (*model.Video, error) {
		return p.SongGetMV(ctx, s)
	})
}

func (l *Library) SongListSimilar(ctx context.Context, s model.BriefSong) ([]model.BriefSong, error) {
	return call(ctx, l, s.Source, model.TypeSong, provider.FlagListSimilar, func(ctx context.Context, p provider.SongSimilar) ([]model.BriefSong, error) {
		return p.SongListSimilar(ctx, s)
	})
}

func (l *Library) SongListHotComments(ctx context.Context, s model.BriefSong) ([]*model.Comment, error) {
	return call(ctx, l, s.Source, model.TypeSong, provider.FlagListHotComments, func(ctx context.Context, p provider.SongHotComments) ([]*model.Comment, error) {
		return p.SongListHotComments(ctx, s)
	})
}

func (l *Library) SongGetWebURL(ctx context.Context, s model.BriefSong) (string, error) {
	return call(ctx, l, s.Source, model.TypeSong, provider.FlagWebURL, func(ctx context.Context, p provider.SongWebURL) (string, error) {
		return p.SongGetWebURL(ctx, s)
	})
}

// Album operations.

func (l *Library) AlbumUpgrade(ctx context.Context, a model.BriefAlbum) (*model.Album, error) {
	return upgrade(ctx, l, a, func(ctx context.Context, p provider.AlbumGetter) (*model.Album, error) {
		return p.AlbumGet(ctx, a.Identifier)
	})
}

// AlbumCreateSongsRd returns a reader over the album's songs. Providers
// without a songs reader fall back to the songs carried by the full album.
func (l *Library) AlbumCreateSongsRd(ctx context.Context, a model.BriefAlbum) (reader.Reader[model.BriefSong], error) {
	rd, err := call(ctx, l, a.Source, model.TypeAlbum, provider.FlagListSongs, func(ctx context.Context, p provider.AlbumSongsReader) (reader.Reader[model.BriefSong], error) {
		return p.AlbumCreateSongsRd(ctx, a)
	})
	if !errors.Is(err, provider.ErrNotSupported) {
		return rd, err
	}
	full, uerr := l.AlbumUpgrade(ctx, a)
	if uerr != nil {
		return nil, err
	}
	return reader.Wrap(full.Songs), nil
}

// Artist operations.

func (l *Library) ArtistUpgrade(ctx context.Context, a model.BriefArtist) (*model.Artist, error) {
	return upgrade(ctx, l, a, func(ctx context.Context, p provider.ArtistGetter) (*model.Artist, error) {
		return p.ArtistGet(ctx, a.Identifier)
	})
}

func (l *Library) ArtistCreateSongsRd(ctx context.Context, a model.BriefArtist) (reader.Reader[model.BriefSong], error) {
	return call(ctx, l, a.Source, model.TypeArtist, provider.FlagListSongs, func(ctx context.Context, p provider.ArtistSongsReader) (reader.Reader[model.BriefSong], error) {
		return p.ArtistCreateSongsRd(ctx, a)
	})
}

func (l *Library) ArtistCreateAlbumsRd(ctx context.Context, a model.BriefArtist) (reader.Reader[model.BriefAlbum], error) {
	return call(ctx, l, a.Source, model.TypeArtist, provider.FlagListAlbums, func(ctx context.Context, p provider.ArtistAlbumsReader) (reader.Reader[model.BriefAlbum], error) {
		return p.ArtistCreateAlbumsRd(ctx, a)
	})
}

// Playlist operations.

func (l *Library) PlaylistUpgrade(ctx context.Context, pl model.BriefPlaylist) (*model.Playlist, error) {
	return upgrade(ctx, l, pl, func(ctx context.Context, p provider.PlaylistGetter) (*model.Playlist, error) {
		return p.PlaylistGet(ctx, pl.Identifier)
	})
}

func (l *Library) PlaylistCreateSongsRd(ctx context.Context, pl model.BriefPlaylist) (reader.Reader[model.BriefSong], error) {
	return call(ctx, l, pl.Source, model.TypePlaylist, provider.FlagListSongs, func(ctx context.Context, p provider.PlaylistSongsReader) (reader.Reader[model.BriefSong], error) {
		return p.PlaylistCreateSongsRd(ctx, pl)
	})
}

func (l *Library) PlaylistAddSong(ctx context.Context, pl model.BriefPlaylist, s model.BriefSong) error {
	_, err := call(ctx, l, pl.Source, model.TypePlaylist, provider.FlagPlaylistAddSong, func(ctx context.Context, p provider.PlaylistEditor) (struct{}, error) {
		return struct{}{}, p.PlaylistAddSong(ctx, pl, s)
	})
	return err
}

func (l *Library) PlaylistRemoveSong(ctx context.Context, pl model.BriefPlaylist, s model.BriefSong) error {
	_, err := call(ctx, l, pl.Source, model.TypePlaylist, provider.FlagPlaylistAddSong, func(ctx context.Context, p provider.PlaylistEditor) (struct{}, error) {
		return struct{}{}, p.PlaylistRemoveSong(ctx, pl, s)
	})
	return err
}

func (l *Library) PlaylistDelete(ctx context.Context, pl model.BriefPlaylist) error {
	_, err := call(ctx, l, pl.Source, model.TypePlaylist, provider.FlagPlaylistDelete, func(ctx context.Context, p provider.PlaylistDeleter) (struct{}, error) {
		return struct{}{}, p.PlaylistDelete(ctx, pl)
	})
	return err
}

func (l *Library) PlaylistCreateByName(ctx context.Context, source, name string) (model.BriefPlaylist, error) {
	return call(ctx, l, source, model.TypePlaylist, provider.FlagPlaylistCreateByName, func(ctx context.Context, p provider.PlaylistCreator) (model.BriefPlaylist, error) {
		return p.PlaylistCreateByName(ctx, name)
	})
}

func (l *Library) ToplistList(ctx context.Context, source string) ([]model.BriefPlaylist, error) {
	return call(ctx, l, source, model.TypePlaylist, provider.FlagToplist, func(ctx context.Context, p provider.Toplist) ([]model.BriefPlaylist, error) {
		return p.ToplistList(ctx)
	})
}

// Video operations.

func (l *Library) VideoUpgrade(ctx context.Context, v model.BriefVideo) (*model.Video, error) {
	return upgrade(ctx, l, v, func(ctx context.Context, p provider.VideoGetter) (*model.Video, error) {
		return p.VideoGet(ctx, v.Identifier)
	})
}

// VideoPrepareMedia returns the video's media selected with policy, or
// with the configured video policy when policy is empty.
func (l *Library) VideoPrepareMedia(ctx context.Context, v model.BriefVideo, policy string) (*model.Media, error) {
	if policy == "" {
		policy = l.cfg.VideoPolicy
	}
	return call(ctx, l, v.Source, model.TypeVideo, provider.FlagMultiQuality, func(ctx context.Context, p provider.VideoMedia) (*model.Media, error) {
		qualities, err := p.VideoListQuality(ctx, v)
		if err != nil {
			return nil, err
		}
		q, ok := model.SelectQuality(model.VideoQualities, qualities, policy)
		if !ok {
			return nil, provider.NewMediaNotFound(fmt.Sprintf("no quality of %v matches %s", qualities, policy))
		}
		media, err := p.VideoGetMedia(ctx, v, q)
		if err != nil {
			return nil, err
		}
		if media == nil || media.URL == "" {
			return nil, provider.NewMediaNotFound("empty media url")
		}
		return media, nil
	})
}

// User operations.

func (l *Library) UserUpgrade(ctx context.Context, u model.BriefUser) (*model.User, error) {
	return upgrade(ctx, l, u, func(ctx context.Context, p provider.UserGetter) (*model.User, error) {
		return p.UserGet(ctx, u.Identifier)
	})
}

func (l *Library) CurrentUser(ctx context.Context, source string) (*model.User, error) {
	return call(ctx, l, source, model.TypeUser, provider.FlagCurrentUser, func(ctx context.Context, p provider.CurrentUser) (*model.User, error) {
		return p.CurrentUser(ctx)
	})
}

func (l *Library) CurrentUserFavSongsRd(ctx context.Context, source string) (reader.Reader[model.BriefSong], error) {
	return call(ctx, l, source, model.TypeUser, provider.FlagFavorites, func(ctx context.Context, p provider.CurrentUserFavorites) (reader.Reader[model.BriefSong], error) {
		return p.CurrentUserFavCreateSongsRd(ctx)
	})
}

func (l *Library) CurrentUserDislikeSongsRd(ctx context.Context, source string) (reader.Reader[model.BriefSong], error) {
	return call(ctx, l, source, model.TypeUser, provider.FlagDislikes, func(ctx context.Context, p provider.CurrentUserDislikes) (reader.Reader[model.BriefSong], error) {
		return p.CurrentUserDislikeCreateSongsRd(ctx)
	})
}

func (l *Library) CurrentUserRecentSongs(ctx context.Context, source string) ([]model.BriefSong, error) {
	return call(ctx, l, source, model.TypeUser, provider.FlagRecent, func(ctx context.Context, p provider.CurrentUserRecent) ([]model.BriefSong, error) {
		return p.CurrentUserListRecentSongs(ctx)
	})
}

// Recommendation operations.

func (l *Library) RecListDailySongs(ctx context.Context, source string) ([]model.BriefSong, error) {
	return call(ctx, l, source, model.TypeUser, provider.FlagRecDailySongs, func(ctx context.Context, p provider.RecDailySongs) ([]model.BriefSong, error) {
		return p.RecListDailySongs(ctx)
	})
}

func (l *Library) RecListDailyPlaylists(ctx context.Context, source string) ([]model.BriefPlaylist, error) {
	return call(ctx, l, source, model.TypeUser, provider.FlagRecDailyPlaylists, func(ctx context.Context, p provider.RecDailyPlaylists) ([]model.BriefPlaylist, error) {
		return p.RecListDailyPlaylists(ctx)
	})
}

func (l *Library) RecACollectionOfSongs(ctx context.Context, source string) (*provider.RecCollection, error) {
	return call(ctx, l, source, model.TypeUser, provider.FlagRecACollectionOfSongs, func(ctx context.Context, p provider.RecSongs) (*provider.RecCollection, error) {
		return p.RecACollectionOfSongs(ctx)
	})
}

func (l *Library) RecACollectionOfVideos(ctx context.Context, source string) (*provider.RecCollection, error) {
	return call(ctx, l, source, model.TypeUser, provider.FlagRecACollectionOfVideos, func(ctx context.Context, p provider.RecVideos) (*provider.RecCollection, error) {
		return p.RecACollectionOfVideos(ctx)
	})
}
