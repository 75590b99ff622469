package playlist

import (
	"context"

	"github.com/handiism/fuo/internal/model"
)

// Activate switches to FM mode. When Next reaches the end of the list,
// fetch is asked for more songs, which are appended after dropping those
// already in the list or already fed before.
func (p *Playlist) Activate(fetch FetchFunc) {
	p.mu.Lock()
	changed := p.mode != FM
	p.mode = FM
	p.fetch = fetch
	p.fmSeen = map[model.Key]struct{}{}
	p.mu.Unlock()
	if changed {
		p.post(func() { p.ModeChanged.Emit(FM) })
	}
}

// Deactivate returns to Normal mode and drops the fed songs that have not
// been played yet, that is those after the current song.
func (p *Playlist) Deactivate() {
	p.mu.Lock()
	if p.mode != FM {
		p.mu.Unlock()
		return
	}
	cur := p.currentIndexLocked()
	var drop []model.BriefSong
	for i, s := range p.songs.items {
		if _, fed := p.fmSeen[s.Key()]; fed && i > cur {
			drop = append(drop, s)
		}
	}
	for _, s := range drop {
		p.songs.Remove(s)
	}
	p.mode = Normal
	p.fetch = nil
	p.fmSeen = nil
	if len(drop) > 0 {
		p.emitSongsLocked()
	}
	p.mu.Unlock()
	p.post(func() { p.ModeChanged.Emit(Normal) })
}

// refill asks the feed for songs and appends the new ones. It returns
// how many were added.
func (p *Playlist) refill(ctx context.Context) (int, error) {
	p.mu.Lock()
	fetch, n := p.fetch, p.refillCount
	p.mu.Unlock()
	if fetch == nil {
		return 0, nil
	}

	songs, err := fetch(ctx, n)
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mode != FM || p.fmSeen == nil {
		return 0, nil
	}
	added := 0
	for _, s := range songs {
		if _, seen := p.fmSeen[s.Key()]; seen {
			continue
		}
		p.fmSeen[s.Key()] = struct{}{}
		if p.songs.Append(s) {
			added++
		}
	}
	if added > 0 {
		p.emitSongsLocked()
	}
	p.logger.Debug("playlist: fm refill", "asked", n, "got", len(songs), "added", added)
	return added, nil
}
