package playlist

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/fuo/internal/library"
	"github.com/handiism/fuo/internal/metadata"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/player"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/provider/providertest"
	"github.com/handiism/fuo/internal/signal"
)

type env struct {
	lib    *library.Library
	player *player.Headless
	loop   *signal.Loop
	pl     *Playlist

	mu     sync.Mutex
	stages []Stage
	songs  []*model.BriefSong
	plays  []*model.Media
	events []string
}

func newEnv(t *testing.T, fakes ...*providertest.Fake) *env {
	t.Helper()
	reg := provider.NewRegistry()
	for _, f := range fakes {
		require.NoError(t, reg.Register(f))
	}
	e := &env{
		lib:    library.New(reg, library.DefaultConfig(), nil),
		player: player.NewHeadless(),
		loop:   signal.NewLoop(),
	}
	t.Cleanup(e.loop.Close)
	e.pl = New(e.lib, e.player, metadata.NewAssembler(e.lib, 0, nil), e.loop,
		WithRand(rand.New(rand.NewPCG(1, 2))))

	e.pl.StageChanged.Connect(func(s Stage) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.stages = append(e.stages, s)
	})
	e.pl.SongChanged.Connect(func(s *model.BriefSong) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.songs = append(e.songs, s)
		e.events = append(e.events, "song_changed")
	})
	e.player.Signals().MediaChanged.Connect(func(m *model.Media) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m != nil {
			e.plays = append(e.plays, m)
		}
		e.events = append(e.events, "media_changed")
	})
	e.player.Signals().MetadataChanged.Connect(func(model.Metadata) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.events = append(e.events, "metadata_changed")
	})
	return e
}

// settle waits until every queued event has been delivered.
func (e *env) settle() { e.loop.Flush() }

func (e *env) ids() []string {
	var out []string
	for _, s := range e.pl.Songs() {
		out = append(out, s.Source+"/"+s.Identifier)
	}
	return out
}

func newSong(id, title, artist string) *model.Song {
	return &model.Song{Identifier: id, Title: title, Artists: []model.BriefArtist{{Name: artist}}, DurationMS: 200000}
}

func TestPlayModel_Simple(t *testing.T) {
	f := providertest.New("a")
	s1 := f.AddSong(newSong("1", "Hello", "Adele"), "http://a/1.mp3")
	e := newEnv(t, f)

	require.NoError(t, e.pl.PlayModel(context.Background(), s1))
	e.settle()

	assert.Equal(t, []Stage{StagePrepareMedia, StagePrepareMetadata, StageLoadMedia, StageIdle}, e.stages)
	require.NotNil(t, e.pl.CurrentSong())
	assert.Equal(t, s1.Key(), e.pl.CurrentSong().Key())
	require.Len(t, e.plays, 1, "player.Play called once")
	assert.Equal(t, "http://a/1.mp3", e.plays[0].URL)
	assert.Equal(t, "Hello", e.player.CurrentMetadata().Title)
	assert.Equal(t, []string{"song_changed", "media_changed", "metadata_changed"}, e.events)
	assert.True(t, e.pl.Contains(s1), "played song joins the list")
}

func TestPlayModel_Standby(t *testing.T) {
	a := providertest.New("a")
	s := a.AddSong(newSong("1", "Hello", "Adele"), "")
	b := providertest.New("b")
	sb := b.AddSong(newSong("9", "Hello", "Adele"), "http://b/9.mp3")
	e := newEnv(t, a, b)

	other := model.BriefSong{Source: "a", Identifier: "other", Title: "x"}
	e.pl.Add(s)
	e.pl.Add(other)

	require.NoError(t, e.pl.PlayModel(context.Background(), s))
	e.settle()

	assert.Equal(t, []Stage{StagePrepareMedia, StageFindStandby, StagePrepareMetadata, StageLoadMedia, StageIdle}, e.stages)
	require.NotNil(t, e.pl.CurrentSong())
	assert.Equal(t, sb.Key(), e.pl.CurrentSong().Key())
	assert.Equal(t, []string{"b/9", "a/other"}, e.ids(), "standby takes the original slot")
	require.Len(t, e.plays, 1)
	assert.Equal(t, "http://b/9.mp3", e.plays[0].URL)
}

func TestPlayModel_FailureMarksBadAndAdvances(t *testing.T) {
	f := providertest.New("a")
	bad := f.AddSong(newSong("1", "Broken", "X"), "")
	good := f.AddSong(newSong("2", "Fine", "Y"), "http://a/2.mp3")
	e := newEnv(t, f)
	e.pl.Add(bad)
	e.pl.Add(good)

	var marked []model.BriefSong
	e.pl.SongMarkedBad.Connect(func(s model.BriefSong) { marked = append(marked, s) })

	require.NoError(t, e.pl.PlayModel(context.Background(), bad))
	e.settle()

	assert.True(t, e.pl.IsBad(bad))
	assert.Equal(t, []model.BriefSong{bad}, e.pl.BadSongs())
	require.Len(t, marked, 1)
	require.NotNil(t, e.pl.CurrentSong())
	assert.Equal(t, good.Key(), e.pl.CurrentSong().Key())
}

func TestPlayModel_AllBadReturnsError(t *testing.T) {
	f := providertest.New("a")
	s := f.AddSong(newSong("1", "Broken", "X"), "")
	e := newEnv(t, f)
	e.pl.Add(s)

	err := e.pl.PlayModel(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrMediaNotFound)
	assert.Nil(t, e.pl.CurrentSong())
}

func TestPlayModel_NewerCancelsOlder(t *testing.T) {
	slow := providertest.New("slow")
	slow.Delay = 200 * time.Millisecond
	s1 := slow.AddSong(newSong("1", "Slow", "X"), "http://slow/1.mp3")
	fast := providertest.New("fast")
	s2 := fast.AddSong(newSong("2", "Fast", "Y"), "http://fast/2.mp3")
	e := newEnv(t, slow, fast)

	errc := make(chan error, 1)
	go func() { errc <- e.pl.PlayModel(context.Background(), s1) }()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, e.pl.PlayModel(context.Background(), s2))

	assert.ErrorIs(t, <-errc, ErrCancelled)
	e.settle()
	assert.Equal(t, s2.Key(), e.pl.CurrentSong().Key())
	require.Len(t, e.plays, 1)
	assert.Equal(t, "http://fast/2.mp3", e.plays[0].URL)
	assert.False(t, e.pl.IsBad(s1), "cancelled songs are not bad")
}

func TestPlayModel_FailedPlayDoesNotAdvanceOverNewerPlay(t *testing.T) {
	f := providertest.New("a")
	good := f.AddSong(newSong("9", "Fine", "Y"), "http://a/9.mp3")
	bad := f.AddSong(newSong("1", "Broken", "X"), "")
	fed := f.AddSong(newSong("3", "Fed", "Z"), "http://a/3.mp3")
	e := newEnv(t, f)
	ctx := context.Background()
	e.pl.Add(good)
	e.pl.Add(bad)

	refilling := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	e.pl.Activate(func(context.Context, int) ([]model.BriefSong, error) {
		once.Do(func() { close(refilling) })
		<-release
		return []model.BriefSong{fed}, nil
	})

	errc := make(chan error, 1)
	go func() { errc <- e.pl.PlayModel(ctx, bad) }()
	<-refilling
	require.NoError(t, e.pl.PlayModel(ctx, good))
	close(release)

	assert.ErrorIs(t, <-errc, ErrCancelled)
	e.settle()
	require.NotNil(t, e.pl.CurrentSong())
	assert.Equal(t, good.Key(), e.pl.CurrentSong().Key())
	assert.True(t, e.pl.IsBad(bad))
	require.Len(t, e.plays, 1)
	assert.Equal(t, "http://a/9.mp3", e.plays[0].URL)
}

func TestSetModels_CancelsPendingPlay(t *testing.T) {
	slow := providertest.New("slow")
	slow.Delay = 200 * time.Millisecond
	s1 := slow.AddSong(newSong("1", "Slow", "X"), "http://slow/1.mp3")
	e := newEnv(t, slow)

	errc := make(chan error, 1)
	go func() { errc <- e.pl.PlayModel(context.Background(), s1) }()
	time.Sleep(50 * time.Millisecond)

	other := model.BriefSong{Source: "x", Identifier: "a"}
	require.NoError(t, e.pl.SetModels(context.Background(), []model.BriefSong{other}, false))

	assert.ErrorIs(t, <-errc, ErrCancelled)
	e.settle()
	assert.Equal(t, []string{"x/a"}, e.ids(), "cancelled song stays out of the new list")
	assert.Nil(t, e.pl.CurrentSong())
	assert.Empty(t, e.plays)
	assert.Equal(t, StageIdle, e.pl.Stage())
}

func TestPlayModel_WatchModePrefersMV(t *testing.T) {
	f := providertest.New("a")
	s := f.AddSong(newSong("1", "Hello", "Adele"), "http://a/1.mp3")
	f.MVs["1"] = &model.Video{Source: "a", Identifier: "v1", Title: "Hello MV"}
	f.Videos["v1"] = &model.Media{URL: "http://a/v1.mp4", Type: model.MediaVideo, Quality: model.VideoHD}
	e := newEnv(t, f)
	e.pl.SetWatchMode(true)

	require.NoError(t, e.pl.PlayModel(context.Background(), s))
	e.settle()

	assert.Contains(t, e.stages, StageFindStandbyByMV)
	assert.Equal(t, "http://a/v1.mp4", e.pl.CurrentMedia().URL)
}

func TestSetCurrentSongWithMedia(t *testing.T) {
	f := providertest.New("a")
	s := f.AddSong(newSong("1", "Hello", "Adele"), "")
	e := newEnv(t, f)

	media := &model.Media{URL: "http://elsewhere/1.mp3"}
	require.NoError(t, e.pl.SetCurrentSongWithMedia(context.Background(), s, media))
	e.settle()
	assert.Equal(t, []Stage{StagePrepareMetadata, StageLoadMedia, StageIdle}, e.stages)
	assert.Equal(t, media, e.player.CurrentMedia())
}

func TestFMRefill(t *testing.T) {
	f := providertest.New("a")
	s1 := f.AddSong(newSong("1", "One", "X"), "http://a/1.mp3")
	s2 := f.AddSong(newSong("2", "Two", "X"), "http://a/2.mp3")
	s3 := f.AddSong(newSong("3", "Three", "X"), "http://a/3.mp3")
	e := newEnv(t, f)
	ctx := context.Background()

	e.pl.Add(s1)
	require.NoError(t, e.pl.SetCurrentSongWithMedia(ctx, s1, &model.Media{URL: "http://a/1.mp3"}))

	var asked []int
	e.pl.Activate(func(_ context.Context, n int) ([]model.BriefSong, error) {
		asked = append(asked, n)
		return []model.BriefSong{s1, s2, s3}, nil
	})
	assert.Equal(t, FM, e.pl.Mode())

	require.NoError(t, e.pl.Next(ctx))
	e.settle()

	assert.Equal(t, []string{"a/1", "a/2", "a/3"}, e.ids())
	assert.Equal(t, s2.Key(), e.pl.CurrentSong().Key())
	assert.Equal(t, []int{DefaultRefillCount}, asked)

	e.pl.Deactivate()
	assert.Equal(t, Normal, e.pl.Mode())
	assert.Equal(t, []string{"a/1", "a/2"}, e.ids(), "unplayed fed songs are dropped")
}

// neighbor is a pure test of the ordering rules on [a, b, c].
func neighbor(t *testing.T, mode PlaybackMode, current string, bad ...string) *model.BriefSong {
	t.Helper()
	e := newEnv(t)
	for _, id := range []string{"a", "b", "c"} {
		e.pl.Add(model.BriefSong{Source: "x", Identifier: id})
	}
	e.pl.SetPlaybackMode(mode)
	e.pl.mu.Lock()
	cur := model.BriefSong{Source: "x", Identifier: current}
	e.pl.current = &cur
	for _, id := range bad {
		e.pl.bad[model.BriefSong{Source: "x", Identifier: id}.Key()] = struct{}{}
	}
	e.pl.mu.Unlock()
	s, err := e.pl.NextSong(context.Background())
	require.NoError(t, err)
	return s
}

func idOf(s *model.BriefSong) string {
	if s == nil {
		return ""
	}
	return s.Identifier
}

func TestPlaybackModeNext(t *testing.T) {
	tests := []struct {
		name    string
		mode    PlaybackMode
		current string
		bad     []string
		want    string
	}{
		{"sequential", Sequential, "b", nil, "c"},
		{"sequential at tail stops", Sequential, "c", nil, ""},
		{"sequential skips bad", Sequential, "a", []string{"b"}, "c"},
		{"loop", Loop, "b", nil, "c"},
		{"loop wraps", Loop, "c", nil, "a"},
		{"loop all bad", Loop, "a", []string{"b", "c"}, ""},
		{"one loop", OneLoop, "b", nil, "b"},
		{"one loop bad current moves on", OneLoop, "b", []string{"b"}, "c"},
		{"random avoids current and bad", Random, "b", []string{"a"}, "c"},
		{"random nothing left", Random, "b", []string{"a", "c"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idOf(neighbor(t, tt.mode, tt.current, tt.bad...)))
		})
	}
}

func TestRandomIsUniform(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"a", "b", "c"} {
		e.pl.Add(model.BriefSong{Source: "x", Identifier: id})
	}
	e.pl.SetPlaybackMode(Random)
	cur := model.BriefSong{Source: "x", Identifier: "b"}
	e.pl.current = &cur

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		s, err := e.pl.NextSong(context.Background())
		require.NoError(t, err)
		counts[s.Identifier]++
	}
	assert.Zero(t, counts["b"])
	assert.InDelta(t, 1000, counts["a"], 150)
	assert.InDelta(t, 1000, counts["c"], 150)
}

func TestRandomFMPicksFromTail(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"a", "b", "c"} {
		e.pl.Add(model.BriefSong{Source: "x", Identifier: id})
	}
	e.pl.SetPlaybackMode(Random)

	refills := 0
	e.pl.Activate(func(context.Context, int) ([]model.BriefSong, error) {
		refills++
		return []model.BriefSong{{Source: "x", Identifier: "d"}, {Source: "x", Identifier: "e"}}, nil
	})

	e.pl.mu.Lock()
	cur := model.BriefSong{Source: "x", Identifier: "b"}
	e.pl.current = &cur
	e.pl.mu.Unlock()
	for i := 0; i < 50; i++ {
		assert.Equal(t, "c", idOf(mustNext(t, e.pl)), "only the song after current is eligible")
	}
	assert.Zero(t, refills)

	e.pl.mu.Lock()
	cur = model.BriefSong{Source: "x", Identifier: "c"}
	e.pl.current = &cur
	e.pl.mu.Unlock()
	counts := map[string]int{}
	for i := 0; i < 400; i++ {
		counts[idOf(mustNext(t, e.pl))]++
	}
	assert.Equal(t, 1, refills, "an empty tail is refilled once")
	assert.Equal(t, []string{"x/a", "x/b", "x/c", "x/d", "x/e"}, e.ids())
	assert.Equal(t, 400, counts["d"]+counts["e"], "picks land in the new tail")
	assert.InDelta(t, 200, counts["d"], 60)
}

func mustNext(t *testing.T, p *Playlist) *model.BriefSong {
	t.Helper()
	s, err := p.NextSong(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func TestPrevious(t *testing.T) {
	e := newEnv(t)
	for _, id := range []string{"a", "b", "c"} {
		e.pl.Add(model.BriefSong{Source: "x", Identifier: id})
	}
	cur := model.BriefSong{Source: "x", Identifier: "a"}
	e.pl.current = &cur
	assert.Nil(t, e.pl.PreviousSong())

	e.pl.SetPlaybackMode(Loop)
	assert.Equal(t, "c", idOf(e.pl.PreviousSong()))
}

func TestListOperations(t *testing.T) {
	e := newEnv(t)
	s := func(id string) model.BriefSong { return model.BriefSong{Source: "x", Identifier: id} }

	assert.True(t, e.pl.Add(s("a")))
	assert.False(t, e.pl.Add(s("a")))
	e.pl.Add(s("b"))
	e.pl.Add(s("c"))

	cur := s("a")
	e.pl.current = &cur
	e.pl.InsertAfterCurrent(s("c"))
	assert.Equal(t, []string{"x/a", "x/c", "x/b"}, e.ids())

	assert.True(t, e.pl.Remove(s("b")))
	assert.False(t, e.pl.Remove(s("zzz")))
	assert.Equal(t, []string{"x/a", "x/c"}, e.ids())

	require.NoError(t, e.pl.SetModels(context.Background(), []model.BriefSong{s("d"), s("e"), s("d")}, false))
	assert.Equal(t, []string{"x/d", "x/e"}, e.ids())

	var got [][]model.BriefSong
	e.pl.SongsChanged.Connect(func(songs []model.BriefSong) { got = append(got, songs) })
	e.pl.Clear()
	e.settle()
	assert.Zero(t, e.pl.Len())
	assert.Nil(t, e.pl.CurrentSong())
	require.NotEmpty(t, got)
	assert.Empty(t, got[len(got)-1])
}

func TestNaturalEndPlaysNext(t *testing.T) {
	f := providertest.New("a")
	s1 := f.AddSong(newSong("1", "One", "X"), "http://a/1.mp3")
	s2 := f.AddSong(newSong("2", "Two", "X"), "http://a/2.mp3")
	e := newEnv(t, f)
	e.pl.Add(s1)
	e.pl.Add(s2)

	require.NoError(t, e.pl.PlayModel(context.Background(), s1))
	e.settle()
	e.player.Advance(time.Hour)

	assert.Eventually(t, func() bool {
		e.settle()
		cur := e.pl.CurrentSong()
		return cur != nil && cur.Key() == s2.Key()
	}, time.Second, 10*time.Millisecond)
}
