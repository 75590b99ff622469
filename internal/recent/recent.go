package recent

import (
	"sync"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/signal"
)

// DefaultCapacity is how many songs are kept when none is configured.
const DefaultCapacity = 100

// Played is a bounded most-recently-used list of songs, newest first.
//
// Example:
//
//	rp := recent.New(0)
//	pl.SongChanged.Connect(func(s *model.BriefSong) {
//		if s != nil {
//			rp.Add(*s)
//		}
//	})
//	rp.List()
type Played struct {
	mu    sync.Mutex
	limit int
	songs []model.BriefSong

	// Changed fires after every Add or Clear.
	Changed signal.Signal[[]model.BriefSong]
}

// New returns an empty list holding at most capacity songs. capacity <= 0
// uses DefaultCapacity.
func New(capacity int) *Played {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Played{limit: capacity}
}

// Add moves s to the head, dropping the oldest song when full.
func (p *Played) Add(s model.BriefSong) {
	p.mu.Lock()
	k := s.Key()
	for i, x := range p.songs {
		if x.Key() == k {
			p.songs = append(p.songs[:i], p.songs[i+1:]...)
			break
		}
	}
	p.songs = append([]model.BriefSong{s}, p.songs...)
	if len(p.songs) > p.limit {
		p.songs = p.songs[:p.limit]
	}
	snap := append([]model.BriefSong(nil), p.songs...)
	p.mu.Unlock()
	p.Changed.Emit(snap)
}

// List returns a snapshot, newest first.
func (p *Played) List() []model.BriefSong {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.BriefSong(nil), p.songs...)
}

func (p *Played) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.songs)
}

func (p *Played) Clear() {
	p.mu.Lock()
	p.songs = nil
	p.mu.Unlock()
	p.Changed.Emit(nil)
}
