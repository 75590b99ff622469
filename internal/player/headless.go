package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/handiism/fuo/internal/model"
)

// DefaultTick is how often Run advances the position.
const DefaultTick = 500 * time.Millisecond

// Headless is a Player that renders nothing. It keeps a simulated clock so
// position ticks, seeking and the natural end of a media behave like a real
// backend. Tests move the clock with Advance; the daemon drives it with Run.
//
// The media length comes from Metadata.DurationMS. Media with an unknown
// length play until stopped.
//
// Example:
//
//	p := player.NewHeadless()
//	p.Signals().PositionChanged.Connect(func(pos player.Position) {
//		fmt.Println(pos.At)
//	})
//	p.Play(media, meta)
//	p.Advance(2 * time.Second)
type Headless struct {
	mu    sync.Mutex
	state State
	media *model.Media
	meta  model.Metadata
	pos   time.Duration
	dur   time.Duration

	sig Signals
}

// NewHeadless returns a stopped Headless player.
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Signals() *Signals { return &h.sig }

// Play replaces the current media and starts playing from the beginning.
func (h *Headless) Play(media *model.Media, meta model.Metadata) error {
	if media == nil {
		return errors.New("play: nil media")
	}
	h.mu.Lock()
	h.media = media
	h.meta = meta
	h.pos = 0
	h.dur = time.Duration(meta.DurationMS) * time.Millisecond
	h.state = Playing
	dur := h.dur
	h.mu.Unlock()

	format := ""
	if media.IsVideo() {
		format = media.Format
	}
	h.sig.MediaChanged.Emit(media)
	h.sig.MediaLoaded.Emit(MediaProps{Media: media, Duration: dur, Video: media.IsVideo()})
	h.sig.VideoFormatChanged.Emit(format)
	h.sig.MetadataChanged.Emit(meta)
	h.sig.StateChanged.Emit(Playing)
	h.sig.PositionChanged.Emit(Position{Valid: true})
	return nil
}

func (h *Headless) setState(from, to State) {
	h.mu.Lock()
	if h.state != from {
		h.mu.Unlock()
		return
	}
	h.state = to
	h.mu.Unlock()
	h.sig.StateChanged.Emit(to)
}

func (h *Headless) Pause()  { h.setState(Playing, Paused) }
func (h *Headless) Resume() { h.setState(Paused, Playing) }

func (h *Headless) Toggle() {
	switch h.State() {
	case Playing:
		h.Pause()
	case Paused:
		h.Resume()
	}
}

// Stop unloads the media.
func (h *Headless) Stop() {
	h.mu.Lock()
	if h.media == nil && h.state == Stopped {
		h.mu.Unlock()
		return
	}
	h.media = nil
	h.meta = model.Metadata{}
	h.pos, h.dur = 0, 0
	h.state = Stopped
	h.mu.Unlock()

	h.sig.StateChanged.Emit(Stopped)
	h.sig.MediaChanged.Emit(nil)
	h.sig.PositionChanged.Emit(Position{})
}

// Seek moves to pos, clamped to the media length when it is known.
func (h *Headless) Seek(pos time.Duration) error {
	h.mu.Lock()
	if h.media == nil {
		h.mu.Unlock()
		return ErrNoMedia
	}
	pos = max(pos, 0)
	if h.dur > 0 {
		pos = min(pos, h.dur)
	}
	h.pos = pos
	h.mu.Unlock()
	h.sig.PositionChanged.Emit(Position{At: pos, Valid: true})
	return nil
}

// Advance moves the clock forward by d when playing. Reaching the end of
// the media emits MediaFinished and leaves the player stopped.
func (h *Headless) Advance(d time.Duration) {
	h.mu.Lock()
	if h.state != Playing {
		h.mu.Unlock()
		return
	}
	h.pos += d
	finished := h.dur > 0 && h.pos >= h.dur
	if finished {
		h.pos = h.dur
	}
	pos, media := h.pos, h.media
	if finished {
		h.state = Stopped
	}
	h.mu.Unlock()

	h.sig.PositionChanged.Emit(Position{At: pos, Valid: true})
	if finished {
		h.sig.StateChanged.Emit(Stopped)
		h.sig.MediaFinished.Emit(media)
	}
}

// Run advances the clock in real time every tick until ctx is done.
func (h *Headless) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = DefaultTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Advance(tick)
		}
	}
}

func (h *Headless) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Headless) Position() Position {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Position{At: h.pos, Valid: h.media != nil}
}

func (h *Headless) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dur
}

func (h *Headless) CurrentMedia() *model.Media {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.media
}

func (h *Headless) CurrentMetadata() model.Metadata {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.meta
}

var _ Player = (*Headless)(nil)
