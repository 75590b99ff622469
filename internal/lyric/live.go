package lyric

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/player"
	"github.com/handiism/fuo/internal/signal"
)

// DefaultOffset shifts the position forward so a sentence shows up slightly
// before it is sung.
const DefaultOffset = 300 * time.Millisecond

// Fetcher returns the lyric of a song, nil when it has none.
// library.Library satisfies it.
type Fetcher interface {
	SongGetLyric(ctx context.Context, s model.BriefSong) (*model.Lyric, error)
}

// Option configures a Live.
type Option func(*Live)

// WithOffset replaces DefaultOffset.
func WithOffset(d time.Duration) Option {
	return func(l *Live) { l.offset = d }
}

// WithLogger sets the logger used for lyric fetch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Live) { l.logger = logger }
}

// Live follows playback and reports the sentence being sung.
//
// Feed it position ticks with OnPosition and song changes with
// OnSongChanged. SentenceChanged fires only when the current line changes,
// so repeated ticks inside one line are silent.
//
// Example:
//
//	live := lyric.NewLive(lib)
//	p.Signals().PositionChanged.Connect(live.OnPosition)
//	live.SentenceChanged.Connect(func(ln lyric.Line) {
//		fmt.Println(ln.Origin)
//	})
type Live struct {
	fetcher Fetcher
	offset  time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	lyric *Lyric
	index int
	gen   uint64

	// SentenceChanged carries the new current line. An empty Line means
	// no sentence.
	SentenceChanged signal.Signal[Line]
	// LyricChanged carries the lyric of the new song, nil when it has none.
	LyricChanged signal.Signal[*Lyric]
}

// NewLive returns a Live that loads lyrics through fetcher. fetcher may
// be nil when lyrics are only set with SetLyric.
func NewLive(fetcher Fetcher, opts ...Option) *Live {
	l := &Live{
		fetcher: fetcher,
		offset:  DefaultOffset,
		logger:  slog.Default(),
		index:   -1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Offset returns the anticipation offset in use.
func (l *Live) Offset() time.Duration { return l.offset }

// SetLyric replaces the current lyric and resets the current line.
func (l *Live) SetLyric(ly *Lyric) {
	l.mu.Lock()
	l.gen++
	l.lyric = ly
	l.index = -1
	l.mu.Unlock()
	l.LyricChanged.Emit(ly)
	l.SentenceChanged.Emit(Line{})
}

// Lyric returns the current lyric.
func (l *Live) Lyric() *Lyric {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lyric
}

// Current returns the current line.
func (l *Live) Current() Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lyric == nil || l.index < 0 {
		return Line{}
	}
	return l.lyric.Line(l.index)
}

// OnPosition maps a playback position to a line and emits SentenceChanged
// when the line differs from the last one emitted.
func (l *Live) OnPosition(pos player.Position) {
	if !pos.Valid {
		return
	}
	l.mu.Lock()
	if l.lyric.Len() == 0 {
		l.mu.Unlock()
		return
	}
	i := l.lyric.Find(pos.At + l.offset)
	if i == l.index {
		l.mu.Unlock()
		return
	}
	l.index = i
	var ln Line
	if i >= 0 {
		ln = l.lyric.Line(i)
	}
	l.mu.Unlock()
	l.SentenceChanged.Emit(ln)
}

// OnSongChanged clears the state and loads the lyric of song in the
// background. A nil song just clears.
func (l *Live) OnSongChanged(song *model.BriefSong) {
	l.SetLyric(nil)
	if song == nil || l.fetcher == nil {
		return
	}
	l.mu.Lock()
	gen := l.gen
	l.mu.Unlock()
	go l.load(context.Background(), *song, gen)
}

// Load fetches and installs the lyric of song.
func (l *Live) Load(ctx context.Context, song model.BriefSong) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.mu.Unlock()
	return l.load(ctx, song, gen)
}

func (l *Live) load(ctx context.Context, song model.BriefSong, gen uint64) error {
	ml, err := l.fetcher.SongGetLyric(ctx, song)
	if err != nil {
		l.logger.Debug("lyric unavailable", "uri", song.Key().String(), "err", err)
	}
	var ly *Lyric
	if ml != nil && ml.Content != "" {
		ly = ParseWithTranslation(ml.Content, ml.TransContent)
	}

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		return nil
	}
	l.lyric = ly
	l.index = -1
	l.mu.Unlock()
	l.LyricChanged.Emit(ly)
	l.SentenceChanged.Emit(Line{})
	return err
}
