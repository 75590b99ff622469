package player

import (
	"errors"
	"time"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/signal"
)

// ErrNoMedia is returned by Seek when nothing is loaded.
var ErrNoMedia = errors.New("no media loaded")

// State is the playback state of a player.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Position is a playback position. Valid is false when the player has no
// position, for example after Stop.
type Position struct {
	At    time.Duration
	Valid bool
}

// Seconds returns the position in seconds, 0 when invalid.
func (p Position) Seconds() float64 {
	if !p.Valid {
		return 0
	}
	return p.At.Seconds()
}

// MediaProps describes a media once the backend has loaded it.
type MediaProps struct {
	Media    *model.Media
	Duration time.Duration
	Video    bool
}

// Signals are the notifications every player emits.
type Signals struct {
	StateChanged    signal.Signal[State]
	PositionChanged signal.Signal[Position]
	// MediaChanged carries nil when the player is stopped.
	MediaChanged signal.Signal[*model.Media]
	MediaLoaded  signal.Signal[MediaProps]
	// VideoFormatChanged carries "" when there is no video track.
	VideoFormatChanged signal.Signal[string]
	MetadataChanged    signal.Signal[model.Metadata]
	// MediaFinished fires when the media reaches its natural end.
	MediaFinished signal.Signal[*model.Media]
}

// Player is the control surface the playlist engine drives. Backends
// decide how media is actually rendered.
//
// Implementations must emit, in order, MediaChanged, MetadataChanged and
// StateChanged from Play, and must be safe for concurrent use.
type Player interface {
	Play(media *model.Media, meta model.Metadata) error
	Pause()
	Resume()
	Toggle()
	Stop()
	Seek(pos time.Duration) error

	State() State
	Position() Position
	Duration() time.Duration
	CurrentMedia() *model.Media
	CurrentMetadata() model.Metadata
	Signals() *Signals
}
