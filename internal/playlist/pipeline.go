package playlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/provider"
)

// supersedeLocked cancels the running pipeline, if any, and returns the
// generation of the next one.
func (p *Playlist) supersedeLocked() uint64 {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	return p.gen
}

func (p *Playlist) begin(ctx context.Context) (context.Context, context.CancelFunc, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	gen := p.supersedeLocked()
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	return ctx, cancel, gen
}

func (p *Playlist) end(gen uint64, cancel context.CancelFunc) {
	cancel()
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.cancel = nil
	p.stage = StageIdle
	p.mu.Unlock()
	p.post(func() { p.StageChanged.Emit(StageIdle) })
}

func (p *Playlist) live(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return gen == p.gen
}

// setStage records and announces st. It returns ErrCancelled when the
// pipeline has been superseded.
func (p *Playlist) setStage(gen uint64, st Stage) error {
	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return ErrCancelled
	}
	p.stage = st
	p.mu.Unlock()
	p.post(func() { p.StageChanged.Emit(st) })
	return nil
}

// Play runs PlayModel in the background.
func (p *Playlist) Play(s model.BriefSong) {
	go func() {
		if err := p.PlayModel(context.Background(), s); err != nil && !errors.Is(err, ErrCancelled) {
			p.logger.Warn("playlist: play failed", "uri", s.Key().String(), "err", err)
		}
	}()
}

// PlayModel makes s the current song and starts playing it.
//
// The pipeline runs these stages:
//
//  1. prepare_media asks the library for the song's audio
//  2. find_standby_by_mv, in watch mode only, looks for the song's MV
//     and prefers its video over the audio
//  3. find_standby, when no media was found, plays an equivalent song
//     from another provider in place of s
//  4. prepare_metadata builds what the player displays
//  5. load_media hands media and metadata to the player
//
// A newer PlayModel, SetCurrentSongWithMedia or Clear cancels this one:
// it then returns ErrCancelled without touching the current song. When a
// stage fails, s is marked bad and the next song is played; the returned
// error is that of the last song tried.
//
// PlayModel blocks on provider calls and must not run on the playlist's
// Loop goroutine.
func (p *Playlist) PlayModel(ctx context.Context, s model.BriefSong) error {
	gen, err := p.playOnce(ctx, s)
	if err == nil || errors.Is(err, ErrCancelled) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	if !p.live(gen) {
		return ErrCancelled
	}
	if provider.Expected(err) {
		p.logger.Warn("playlist: song unplayable", "uri", s.Key().String(), "err", err)
	} else {
		p.logger.Error("playlist: unexpected error", "uri", s.Key().String(), "err", err)
	}

	p.mu.Lock()
	from := p.songs.Index(s)
	if from < 0 {
		from = p.currentIndexLocked()
	}
	p.mu.Unlock()
	p.markBad(s)

	next, nerr := p.nextFrom(ctx, from)
	if !p.live(gen) {
		return ErrCancelled
	}
	if nerr != nil {
		return errors.Join(err, nerr)
	}
	if next == nil || next.Key() == s.Key() {
		return err
	}
	if nerr := p.PlayModel(ctx, *next); nerr != nil {
		return nerr
	}
	return nil
}

// playOnce runs the pipeline for s alone and returns its generation.
func (p *Playlist) playOnce(parent context.Context, s model.BriefSong) (uint64, error) {
	ctx, cancel, gen := p.begin(parent)
	defer p.end(gen, cancel)
	return gen, p.runPipeline(ctx, gen, s)
}

func (p *Playlist) runPipeline(ctx context.Context, gen uint64, s model.BriefSong) error {

	if err := p.setStage(gen, StagePrepareMedia); err != nil {
		return err
	}
	media, err := p.lib.SongPrepareMedia(ctx, s, p.audioPolicy)
	if !p.live(gen) {
		return ErrCancelled
	}

	p.mu.Lock()
	watch := p.watchMode
	p.mu.Unlock()
	if watch {
		if serr := p.setStage(gen, StageFindStandbyByMV); serr != nil {
			return serr
		}
		if mv, merr := p.mvMedia(ctx, s); merr == nil {
			media, err = mv, nil
		} else {
			p.logger.Debug("playlist: no mv", "uri", s.Key().String(), "err", merr)
		}
		if !p.live(gen) {
			return ErrCancelled
		}
	}

	target := s
	if err != nil {
		if serr := p.setStage(gen, StageFindStandby); serr != nil {
			return serr
		}
		pairs, serr := p.lib.ListSongStandby(ctx, s)
		if !p.live(gen) {
			return ErrCancelled
		}
		if serr != nil {
			return errors.Join(err, serr)
		}
		if len(pairs) == 0 {
			return fmt.Errorf("no standby for %s: %w", s.Key(), err)
		}
		target, media = pairs[0].Song, pairs[0].Media
		p.logger.Info("playlist: using standby", "uri", s.Key().String(), "standby", target.Key().String())
	}

	return p.load(ctx, gen, s, target, media)
}

func (p *Playlist) mvMedia(ctx context.Context, s model.BriefSong) (*model.Media, error) {
	mv, err := p.lib.SongGetMV(ctx, s)
	if err != nil {
		return nil, err
	}
	if mv == nil {
		return nil, provider.NewMediaNotFound("song has no mv")
	}
	return p.lib.VideoPrepareMedia(ctx, mv.Brief(), "")
}

// SetCurrentSongWithMedia plays media as s, skipping media preparation.
// It cancels any running pipeline.
func (p *Playlist) SetCurrentSongWithMedia(ctx context.Context, s model.BriefSong, media *model.Media) error {
	if media == nil {
		return errors.New("set current song: nil media")
	}
	ctx, cancel, gen := p.begin(ctx)
	defer p.end(gen, cancel)
	return p.load(ctx, gen, s, s, media)
}

// load runs prepare_metadata and load_media. orig is the song that was
// asked for; target replaces it in the list when they differ.
func (p *Playlist) load(ctx context.Context, gen uint64, orig, target model.BriefSong, media *model.Media) error {
	if err := p.setStage(gen, StagePrepareMetadata); err != nil {
		return err
	}
	meta := p.meta.Prepare(ctx, target)
	if err := p.setStage(gen, StageLoadMedia); err != nil {
		return err
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return ErrCancelled
	}
	listChanged := false
	switch {
	case orig.Key() != target.Key() && p.songs.Contains(orig):
		listChanged = p.songs.Replace(orig, target)
	case !p.songs.Contains(target):
		listChanged = p.songs.Insert(p.currentIndexLocked()+1, target)
	}
	delete(p.bad, target.Key())
	cur := target
	p.current = &cur
	p.currentMedia = media
	var snap []model.BriefSong
	if listChanged {
		snap = p.songs.Items()
	}
	p.mu.Unlock()

	p.post(func() {
		if listChanged {
			p.SongsChanged.Emit(snap)
		}
		p.SongChanged.Emit(&cur)
		if err := p.player.Play(media, meta); err != nil {
			p.logger.Error("playlist: player rejected media", "uri", cur.Key().String(), "err", err)
			p.MarkBad(cur)
		}
	})
	return nil
}
