package library

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
)

// Config controls dispatch and standby behaviour.
type Config struct {
	// AudioPolicy selects the audio quality, e.g. "hq<>".
	AudioPolicy string
	// VideoPolicy selects the video quality, e.g. "hd<>".
	VideoPolicy string
	// MaxConcurrentCalls bounds provider calls running at once.
	MaxConcurrentCalls int
	// Priority orders providers when standby candidates score equally.
	// Providers not listed come last in registration order.
	Priority []string
	// SearchLimit is the per-provider result limit.
	SearchLimit int
	// StandbyThreshold is the minimum score in [0, 1] a candidate needs.
	StandbyThreshold float64
	// StandbyLimit is how many playable standbys to return at most.
	StandbyLimit int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		AudioPolicy:        "hq<>",
		VideoPolicy:        "hd<>",
		MaxConcurrentCalls: 8,
		SearchLimit:        20,
		StandbyThreshold:   0.6,
		StandbyLimit:       1,
	}
}

// Library is the facade every consumer goes through to reach providers.
//
// Library:
//   - resolves the provider from a model's source
//   - checks the capability flag before calling
//   - wraps transport failures so they match provider.ErrProviderIO
//   - bounds concurrent provider calls
//   - fans searches out to every provider
//   - finds standby songs on other providers
//
// Example:
//
//	lib := library.New(reg, library.DefaultConfig(), slog.Default())
//	media, err := lib.SongPrepareMedia(ctx, song, "")
//	if errors.Is(err, provider.ErrMediaNotFound) {
//	    pairs, _ := lib.ListSongStandby(ctx, song)
//	}
type Library struct {
	reg     *provider.Registry
	cfg     Config
	logger  *slog.Logger
	sem     *semaphore.Weighted
	standby StandbyFinder

	stateMu sync.Mutex
	states  map[model.Key]model.ModelState
}

// New creates a Library over reg. The rule-based standby finder is used
// until SetStandbyFinder installs another one.
func New(reg *provider.Registry, cfg Config, logger *slog.Logger) *Library {
	def := DefaultConfig()
	if cfg.AudioPolicy == "" {
		cfg.AudioPolicy = def.AudioPolicy
	}
	if cfg.VideoPolicy == "" {
		cfg.VideoPolicy = def.VideoPolicy
	}
	if cfg.MaxConcurrentCalls <= 0 {
		cfg.MaxConcurrentCalls = def.MaxConcurrentCalls
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.StandbyLimit <= 0 {
		cfg.StandbyLimit = def.StandbyLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Library{
		reg:    reg,
		cfg:    cfg,
		logger: logger,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrentCalls)),
		states: map[model.Key]model.ModelState{},
	}
	l.standby = NewRuleStandby(l)
	return l
}

// Registry returns the provider registry.
func (l *Library) Registry() *provider.Registry { return l.reg }

// Config returns the effective configuration.
func (l *Library) Config() Config { return l.cfg }

// SetStandbyFinder replaces the standby strategy.
func (l *Library) SetStandbyFinder(f StandbyFinder) { l.standby = f }

// run executes fn once a worker slot is free. It is the only place
// provider code is entered from.
func run[T any](ctx context.Context, l *Library, source string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer l.sem.Release(1)
	v, err := fn(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		return zero, provider.WrapIO(source, err)
	}
	return v, nil
}

// priority returns the rank of source; lower is preferred.
func (l *Library) priority(source string) int {
	if i := slices.Index(l.cfg.Priority, source); i >= 0 {
		return i
	}
	for i, p := range l.reg.List() {
		if p.Identifier() == source {
			return len(l.cfg.Priority) + i
		}
	}
	return len(l.cfg.Priority) + len(l.reg.List())
}
