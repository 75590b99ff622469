package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/fuo/internal/audio"
	"github.com/handiism/fuo/internal/bandcamp"
	"github.com/handiism/fuo/internal/collection"
	"github.com/handiism/fuo/internal/config"
	"github.com/handiism/fuo/internal/download"
	fhttp "github.com/handiism/fuo/internal/http"
	ioutils "github.com/handiism/fuo/internal/io"
	"github.com/handiism/fuo/internal/library"
	"github.com/handiism/fuo/internal/localfs"
	"github.com/handiism/fuo/internal/lyric"
	"github.com/handiism/fuo/internal/metadata"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/player"
	"github.com/handiism/fuo/internal/playlist"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/recent"
	"github.com/handiism/fuo/internal/server"
	"github.com/handiism/fuo/internal/signal"
	"github.com/handiism/fuo/internal/uri"
)

// Option configures an App.
type Option func(*options)

type options struct {
	providers  []provider.Provider
	onProgress func(download.ProgressEvent)
	rand       *rand.Rand
}

// WithProviders registers extra providers next to the built-in ones.
func WithProviders(ps ...provider.Provider) Option {
	return func(o *options) { o.providers = append(o.providers, ps...) }
}

// WithDownloadProgress receives the progress of downloads.
func WithDownloadProgress(fn func(download.ProgressEvent)) Option {
	return func(o *options) { o.onProgress = fn }
}

// WithRand sets the source used to pick FM songs.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rand = r }
}

// App holds every component of a running player, wired together.
//
// The playlist drives the player; the lyric synchronizer and the recently
// played list follow the playlist's SongChanged. Songs downloaded to
// download_dir are picked up by the local provider on its next scan.
//
// Example:
//
//	a, err := app.New(settings, logger)
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//	if err := a.Start(ctx); err != nil {
//		return err
//	}
//	err = a.Server().ListenAndServe(ctx, settings.ServerAddr)
type App struct {
	Settings    *config.Settings
	Logger      *slog.Logger
	Registry    *provider.Registry
	Library     *library.Library
	Local       *localfs.Provider
	Resolver    *uri.Resolver
	Collections *collection.Manager
	Player      *player.Headless
	Loop        *signal.Loop
	Playlist    *playlist.Playlist
	Lyric       *lyric.Live
	Recent      *recent.Played
	Downloads   *download.Manager

	// DownloadProgress carries every progress event of Download.
	DownloadProgress signal.Signal[download.ProgressEvent]

	mu     sync.Mutex
	rand   *rand.Rand
	cancel context.CancelFunc
}

// New builds the components described by settings. Nothing touches the
// disk or the network until Start.
func New(settings *config.Settings, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	a := &App{
		Settings: settings,
		Logger:   logger,
		Registry: provider.NewRegistry(),
		rand:     o.rand,
	}

	artwork := ioutils.NewArtworkCache(settings.ArtworkCacheDir, ioutils.NewImageService(0))
	a.Local = localfs.New(musicDirs(settings), localfs.WithLogger(logger), localfs.WithArtworkCache(artwork))
	builtin := []provider.Provider{a.Local}
	if settings.BandcampEnabled {
		builtin = append(builtin, bandcamp.New(
			bandcamp.WithLogger(logger),
			bandcamp.WithPageSize(settings.ReaderPageSize),
		))
	}
	for _, p := range append(builtin, o.providers...) {
		if err := a.Registry.Register(p); err != nil {
			return nil, fmt.Errorf("register %s: %w", p.Identifier(), err)
		}
	}

	a.Library = library.New(a.Registry, settings.ToLibraryConfig(), logger)
	if settings.StandbyAIURL != "" {
		scorer := library.NewHTTPScorer(fhttp.NewClient(), settings.StandbyAIURL)
		a.Library.SetStandbyFinder(library.NewAIStandby(a.Library, scorer, settings.StandbyThreshold, library.NewRuleStandby(a.Library)))
	}
	a.Resolver = uri.NewResolver(a.Registry)
	a.Collections = collection.NewManager(settings.CollectionsDir, a.Resolver, logger)

	a.Loop = signal.NewLoop()
	a.Player = player.NewHeadless()
	a.Playlist = playlist.New(a.Library, a.Player,
		metadata.NewAssembler(a.Library, settings.MetadataTimeout(), logger), a.Loop,
		playlist.WithLogger(logger),
		playlist.WithAudioPolicy(settings.AudioSelectPolicy),
	)

	a.Lyric = lyric.NewLive(a.Library, lyric.WithOffset(settings.LyricOffset()), lyric.WithLogger(logger))
	a.Recent = recent.New(settings.RecentCapacity)
	a.Playlist.SongChanged.Connect(a.Lyric.OnSongChanged)
	a.Playlist.SongChanged.Connect(func(s *model.BriefSong) {
		if s != nil {
			a.Recent.Add(*s)
		}
	})
	a.Player.Signals().PositionChanged.Connect(a.Lyric.OnPosition)
	a.Playlist.SongMarkedBad.Connect(func(s model.BriefSong) {
		logger.Info("app: song skipped", "uri", s.Key().String())
	})

	a.Downloads = download.NewManager(a.Library, settings.ToDownloadConfig(), func(ev download.ProgressEvent) {
		if o.onProgress != nil {
			o.onProgress(ev)
		}
		a.DownloadProgress.Emit(ev)
	}, download.WithLogger(logger))
	return a, nil
}

// musicDirs returns the configured music directories plus the download
// directory, without duplicates.
func musicDirs(s *config.Settings) []string {
	dirs := slices.Clone(s.LocalMusicDirs)
	if s.DownloadDir != "" && !slices.Contains(dirs, s.DownloadDir) {
		dirs = append(dirs, s.DownloadDir)
	}
	return dirs
}

// Start loads collections, scans local music and starts the player
// clock. It returns once both scans are done.
func (a *App) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.Collections.Scan)
	g.Go(func() error { return a.Local.Scan(gctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.cancel = cancel
	a.mu.Unlock()
	go a.Player.Run(runCtx, player.DefaultTick)
	return nil
}

// Close stops the player clock and the signal loop.
func (a *App) Close() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()
	a.Player.Stop()
	a.Loop.Close()
}

// Server returns a control server over the app's components. The caller
// closes it.
func (a *App) Server() *server.Server {
	return server.New(server.Services{
		Library:     a.Library,
		Playlist:    a.Playlist,
		Player:      a.Player,
		Collections: a.Collections,
		Recent:      a.Recent,
		Lyric:       a.Lyric,
		Resolver:    a.Resolver,
	}, a.Logger)
}

// CollectionFeed returns an FM feed drawing random songs from the named
// collection.
func (a *App) CollectionFeed(name string) playlist.FetchFunc {
	return func(ctx context.Context, n int) ([]model.BriefSong, error) {
		c, err := a.Collections.Get(name)
		if err != nil {
			return nil, err
		}
		var songs []model.BriefSong
		for _, m := range c.Models() {
			if s, ok := m.(model.BriefSong); ok {
				songs = append(songs, s)
			}
		}
		a.mu.Lock()
		a.rand.Shuffle(len(songs), func(i, j int) { songs[i], songs[j] = songs[j], songs[i] })
		a.mu.Unlock()
		return songs[:min(n, len(songs))], nil
	}
}

// ToggleFM switches FM mode on, fed from the library collection, or off.
// It returns whether FM is now active.
func (a *App) ToggleFM() bool {
	if a.Playlist.Mode() == playlist.FM {
		a.Playlist.Deactivate()
		return false
	}
	a.Playlist.Activate(a.CollectionFeed(collection.LibraryFile))
	return true
}

// Export renders songs as a playlist file body. Each song's media is
// resolved with the configured audio policy; songs without media are
// left out and reported in the returned error.
func (a *App) Export(ctx context.Context, songs []model.BriefSong, format audio.PlaylistFormat, extended bool) (string, error) {
	entries := make([]audio.Entry, len(songs))
	ok := make([]bool, len(songs))
	errs := make([]error, len(songs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Library.Config().MaxConcurrentCalls)
	for i, s := range songs {
		g.Go(func() error {
			media, err := a.Library.SongPrepareMedia(gctx, s, "")
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Key(), err)
				return nil
			}
			entries[i], ok[i] = audio.NewEntry(s, location(media.URL)), true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var kept []audio.Entry
	for i := range entries {
		if ok[i] {
			kept = append(kept, entries[i])
		}
	}
	body := audio.NewPlaylistCreator(format, extended).CreatePlaylist(kept)
	return body, errors.Join(errs...)
}

// location turns file:// URLs into paths, which every player accepts.
func location(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		return raw
	}
	return filepath.FromSlash(u.Path)
}

// Download saves songs to download_dir and rescans local music so they
// can be played offline.
func (a *App) Download(ctx context.Context, songs []model.BriefSong) ([]download.Result, error) {
	results, err := a.Downloads.Download(ctx, songs)
	if err != nil {
		return results, err
	}
	if serr := a.Local.Scan(ctx); serr != nil {
		a.Logger.Warn("app: rescan after download failed", "err", serr)
	} else {
		a.Library.ForgetStates(a.Local.Identifier())
	}
	return results, nil
}
