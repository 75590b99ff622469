package playlist

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/handiism/fuo/internal/library"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/player"
	"github.com/handiism/fuo/internal/signal"
)

// DefaultRefillCount is how many songs an FM refill asks for.
const DefaultRefillCount = 3

// ErrCancelled is returned by PlayModel when a newer play request took
// over before it finished.
var ErrCancelled = errors.New("play cancelled")

// Library is what the playlist needs from the library facade.
// library.Library satisfies it.
type Library interface {
	SongPrepareMedia(ctx context.Context, s model.BriefSong, policy string) (*model.Media, error)
	SongGetMV(ctx context.Context, s model.BriefSong) (*model.Video, error)
	VideoPrepareMedia(ctx context.Context, v model.BriefVideo, policy string) (*model.Media, error)
	ListSongStandby(ctx context.Context, s model.BriefSong) ([]library.StandbyPair, error)
}

// MetadataPreparer builds what the player displays for a song.
// metadata.Assembler satisfies it.
type MetadataPreparer interface {
	Prepare(ctx context.Context, s model.BriefSong) model.Metadata
}

// FetchFunc returns up to n songs for the FM feed.
type FetchFunc func(ctx context.Context, n int) ([]model.BriefSong, error)

// Option configures a Playlist.
type Option func(*Playlist)

func WithLogger(l *slog.Logger) Option {
	return func(p *Playlist) { p.logger = l }
}

// WithAudioPolicy sets the quality policy passed to SongPrepareMedia.
// Empty uses the library default.
func WithAudioPolicy(policy string) Option {
	return func(p *Playlist) { p.audioPolicy = policy }
}

// WithRand replaces the random source used by the Random mode.
func WithRand(r *rand.Rand) Option {
	return func(p *Playlist) { p.rand = r }
}

// WithRefillCount sets how many songs an FM refill asks for.
func WithRefillCount(n int) Option {
	return func(p *Playlist) {
		if n > 0 {
			p.refillCount = n
		}
	}
}

// Playlist is the ordered list of songs being played and the engine that
// turns a song choice into playing media.
//
// State is guarded by a mutex and never held across provider calls.
// Signals are queued on the Loop given to New: they are delivered in FIFO
// order on the loop goroutine, never on the caller's stack. The player is
// also driven from the loop, so a listener sees SongChanged before the
// player's MediaChanged and MetadataChanged for the same transition.
//
// Example:
//
//	loop := signal.NewLoop()
//	pl := playlist.New(lib, headless, metadata.NewAssembler(lib, 0, logger), loop)
//	pl.SongChanged.Connect(func(s *model.BriefSong) { fmt.Println("now playing", s) })
//	pl.Add(song)
//	if err := pl.PlayModel(ctx, song); err != nil && !errors.Is(err, playlist.ErrCancelled) {
//		log.Println(err)
//	}
type Playlist struct {
	lib    Library
	player player.Player
	meta   MetadataPreparer
	loop   *signal.Loop
	logger *slog.Logger

	audioPolicy string
	refillCount int

	mu           sync.Mutex
	rand         *rand.Rand
	songs        DedupList[model.BriefSong]
	current      *model.BriefSong
	currentMedia *model.Media
	playbackMode PlaybackMode
	mode         Mode
	watchMode    bool
	bad          map[model.Key]struct{}
	stage        Stage
	fetch        FetchFunc
	fmSeen       map[model.Key]struct{}
	gen          uint64
	cancel       context.CancelFunc

	// SongChanged carries the new current song, nil when playback stopped.
	SongChanged signal.Signal[*model.BriefSong]
	// SongsChanged carries a snapshot of the list after it changed.
	SongsChanged        signal.Signal[[]model.BriefSong]
	StageChanged        signal.Signal[Stage]
	PlaybackModeChanged signal.Signal[PlaybackMode]
	ModeChanged         signal.Signal[Mode]
	WatchModeChanged    signal.Signal[bool]
	// SongMarkedBad carries a song that failed to play.
	SongMarkedBad signal.Signal[model.BriefSong]
}

// New returns an empty playlist in Sequential, Normal mode. It plays the
// next song whenever p reports the natural end of a media.
func New(lib Library, p player.Player, meta MetadataPreparer, loop *signal.Loop, opts ...Option) *Playlist {
	pl := &Playlist{
		lib:         lib,
		player:      p,
		meta:        meta,
		loop:        loop,
		logger:      slog.Default(),
		refillCount: DefaultRefillCount,
		rand:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		bad:         map[model.Key]struct{}{},
	}
	for _, opt := range opts {
		opt(pl)
	}
	p.Signals().MediaFinished.Connect(func(*model.Media) {
		go pl.onMediaFinished()
	})
	return pl
}

// Loop returns the loop signals are delivered on.
func (p *Playlist) Loop() *signal.Loop { return p.loop }

// post queues fn on the loop.
func (p *Playlist) post(fn func()) {
	if !p.loop.Post(fn) {
		p.logger.Debug("playlist: loop closed, dropping event")
	}
}

func (p *Playlist) emitSongsLocked() {
	snap := p.songs.Items()
	p.post(func() { p.SongsChanged.Emit(snap) })
}

func (p *Playlist) Songs() []model.BriefSong {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.songs.Items()
}

func (p *Playlist) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.songs.Len()
}

func (p *Playlist) Contains(s model.BriefSong) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.songs.Contains(s)
}

// CurrentSong returns a copy of the current song, nil when none.
func (p *Playlist) CurrentSong() *model.BriefSong {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	s := *p.current
	return &s
}

func (p *Playlist) CurrentMedia() *model.Media {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentMedia
}

func (p *Playlist) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

func (p *Playlist) PlaybackMode() PlaybackMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playbackMode
}

func (p *Playlist) SetPlaybackMode(m PlaybackMode) {
	p.mu.Lock()
	changed := p.playbackMode != m
	p.playbackMode = m
	p.mu.Unlock()
	if changed {
		p.post(func() { p.PlaybackModeChanged.Emit(m) })
	}
}

func (p *Playlist) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *Playlist) WatchMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watchMode
}

// SetWatchMode makes the pipeline prefer a song's MV over its audio.
func (p *Playlist) SetWatchMode(on bool) {
	p.mu.Lock()
	changed := p.watchMode != on
	p.watchMode = on
	p.mu.Unlock()
	if changed {
		p.post(func() { p.WatchModeChanged.Emit(on) })
	}
}

// BadSongs returns the songs that failed to play, in list order.
func (p *Playlist) BadSongs() []model.BriefSong {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.BriefSong
	for _, s := range p.songs.items {
		if p.isBadLocked(s) {
			out = append(out, s)
		}
	}
	return out
}

func (p *Playlist) IsBad(s model.BriefSong) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isBadLocked(s)
}

func (p *Playlist) isBadLocked(s model.BriefSong) bool {
	_, ok := p.bad[s.Key()]
	return ok
}

func (p *Playlist) isCurrentLocked(s model.BriefSong) bool {
	return p.current != nil && p.current.Key() == s.Key()
}

func (p *Playlist) currentIndexLocked() int {
	if p.current == nil {
		return -1
	}
	return p.songs.Index(*p.current)
}

// Add appends s and reports whether it was not in the list yet.
func (p *Playlist) Add(s model.BriefSong) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.songs.Append(s) {
		return false
	}
	p.emitSongsLocked()
	return true
}

// InsertAfterCurrent moves or inserts s right after the current song, or
// at the top when nothing is playing.
func (p *Playlist) InsertAfterCurrent(s model.BriefSong) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isCurrentLocked(s) {
		return
	}
	p.songs.Remove(s)
	p.songs.Insert(p.currentIndexLocked()+1, s)
	p.emitSongsLocked()
}

// Remove deletes s. Removing the current song plays the one after it.
func (p *Playlist) Remove(s model.BriefSong) bool {
	p.mu.Lock()
	if !p.songs.Contains(s) {
		p.mu.Unlock()
		return false
	}
	wasCurrent := p.isCurrentLocked(s)
	var next model.BriefSong
	var hasNext bool
	if wasCurrent {
		next, hasNext, _ = p.neighborLocked(p.currentIndexLocked(), true)
		if hasNext && next.Key() == s.Key() {
			hasNext = false
		}
	}
	p.songs.Remove(s)
	delete(p.bad, s.Key())
	p.emitSongsLocked()
	p.mu.Unlock()

	if wasCurrent {
		if hasNext {
			p.Play(next)
		} else {
			p.stop()
		}
	}
	return true
}

// Clear empties the list, cancels any pending play and stops playback.
func (p *Playlist) Clear() {
	p.mu.Lock()
	p.supersedeLocked()
	p.stage = StageIdle
	p.songs.Clear()
	p.bad = map[model.Key]struct{}{}
	p.fmSeen = nil
	p.emitSongsLocked()
	p.mu.Unlock()
	p.stop()
}

// SetModels replaces the list and cancels any pending play. With next
// set, playback moves to the first playable song of the new list.
func (p *Playlist) SetModels(ctx context.Context, songs []model.BriefSong, next bool) error {
	p.mu.Lock()
	p.supersedeLocked()
	p.stage = StageIdle
	p.songs = *NewDedupList(songs...)
	p.bad = map[model.Key]struct{}{}
	if p.mode == FM {
		p.fmSeen = map[model.Key]struct{}{}
	}
	if next {
		p.current = nil
	}
	p.emitSongsLocked()
	p.mu.Unlock()
	if next {
		return p.Next(ctx)
	}
	return nil
}

// MarkBad records that s cannot be played. When s is the current song
// playback moves on.
func (p *Playlist) MarkBad(s model.BriefSong) {
	if p.markBad(s) {
		go func() {
			if err := p.Next(context.Background()); err != nil && !errors.Is(err, ErrCancelled) {
				p.logger.Warn("playlist: advance after bad song", "err", err)
			}
		}()
	}
}

// markBad reports whether s is the current song.
func (p *Playlist) markBad(s model.BriefSong) bool {
	p.mu.Lock()
	p.bad[s.Key()] = struct{}{}
	cur := p.isCurrentLocked(s)
	p.mu.Unlock()
	p.post(func() { p.SongMarkedBad.Emit(s) })
	return cur
}

// stop clears the current song and stops the player.
func (p *Playlist) stop() {
	p.mu.Lock()
	had := p.current != nil
	p.current = nil
	p.currentMedia = nil
	p.mu.Unlock()
	p.post(func() {
		if had {
			p.SongChanged.Emit(nil)
		}
		p.player.Stop()
	})
}

// neighborLocked returns the song after (forward) or before the song at
// index from, following the playback mode. refill reports that the tail
// was reached in FM mode and more songs should be fetched.
func (p *Playlist) neighborLocked(from int, forward bool) (song model.BriefSong, ok, refill bool) {
	items := p.songs.items
	n := len(items)
	fm := p.mode == FM

	switch p.playbackMode {
	case OneLoop:
		if from >= 0 && !p.isBadLocked(items[from]) {
			return items[from], true, false
		}
	case Random:
		var pool []model.BriefSong
		for i, s := range items {
			if p.isBadLocked(s) || i == from {
				continue
			}
			if fm && forward && i < from {
				continue
			}
			pool = append(pool, s)
		}
		if len(pool) == 0 {
			return model.BriefSong{}, false, fm && forward
		}
		return pool[p.rand.IntN(len(pool))], true, false
	}

	wrap := p.playbackMode == Loop && !fm
	for k := 1; k <= n; k++ {
		i := from + k
		if !forward {
			if from < 0 {
				i = n - k
			} else {
				i = from - k
			}
		}
		if i < 0 || i >= n {
			if !wrap {
				break
			}
			i = (i%n + n) % n
		}
		if i == from {
			break
		}
		if !p.isBadLocked(items[i]) {
			return items[i], true, false
		}
	}
	return model.BriefSong{}, false, fm && forward
}

// NextSong returns the song Next would play, refilling the tail in FM
// mode. It returns nil when playback should stop.
func (p *Playlist) NextSong(ctx context.Context) (*model.BriefSong, error) {
	p.mu.Lock()
	from := p.currentIndexLocked()
	p.mu.Unlock()
	return p.nextFrom(ctx, from)
}

func (p *Playlist) nextFrom(ctx context.Context, from int) (*model.BriefSong, error) {
	for attempt := 0; ; attempt++ {
		p.mu.Lock()
		s, ok, refill := p.neighborLocked(from, true)
		p.mu.Unlock()
		if ok {
			return &s, nil
		}
		if !refill || attempt > 0 {
			return nil, nil
		}
		added, err := p.refill(ctx)
		if err != nil {
			return nil, err
		}
		if added == 0 {
			return nil, nil
		}
	}
}

// PreviousSong returns the song Previous would play, nil when none.
func (p *Playlist) PreviousSong() *model.BriefSong {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok, _ := p.neighborLocked(p.currentIndexLocked(), false)
	if !ok {
		return nil
	}
	return &s
}

// Next plays the next song. Playback stops when there is none.
func (p *Playlist) Next(ctx context.Context) error {
	s, err := p.NextSong(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		p.stop()
		return nil
	}
	return p.PlayModel(ctx, *s)
}

// Previous plays the previous song. Playback stops when there is none.
func (p *Playlist) Previous(ctx context.Context) error {
	s := p.PreviousSong()
	if s == nil {
		p.stop()
		return nil
	}
	return p.PlayModel(ctx, *s)
}

func (p *Playlist) onMediaFinished() {
	ctx := context.Background()
	var err error
	if p.PlaybackMode() == OneLoop {
		if cur := p.CurrentSong(); cur != nil {
			err = p.PlayModel(ctx, *cur)
		}
	} else {
		err = p.Next(ctx)
	}
	if err != nil && !errors.Is(err, ErrCancelled) {
		p.logger.Warn("playlist: advance after media end", "err", err)
	}
}
