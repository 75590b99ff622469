package lyric

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/player"
)

func at(sec float64) player.Position {
	return player.Position{At: time.Duration(sec * float64(time.Second)), Valid: true}
}

func TestParse(t *testing.T) {
	l := Parse("[ar:Someone]\n[00:01.50]One\n[00:03.00][01:00.00] Repeat \r\n[1:00:00.5]Hour\n[7.25]Seconds\nno stamp")

	var got []Line
	for _, ln := range l.Lines() {
		got = append(got, Line{At: ln.At, Origin: ln.Origin})
	}
	assert.Equal(t, []Line{
		{At: 1500 * time.Millisecond, Origin: "One"},
		{At: 3 * time.Second, Origin: "Repeat"},
		{At: 7250 * time.Millisecond, Origin: "Seconds"},
		{At: time.Minute, Origin: "Repeat"},
		{At: time.Hour + 500*time.Millisecond, Origin: "Hour"},
	}, got)
}

func TestParseTranslation(t *testing.T) {
	l := ParseWithTranslation("[00:00.00]Hello\n[00:02.00]World", "[00:00.00]你好\n[00:05.00]orphan")
	require.Equal(t, 2, l.Len())
	assert.Equal(t, "你好", l.Line(0).Trans)
	assert.Empty(t, l.Line(1).Trans)
	assert.True(t, l.HasTranslation())
	assert.False(t, Parse("[00:00.00]x").HasTranslation())
}

func TestFind(t *testing.T) {
	l := Parse("[00:01.00]a\n[00:02.00]b\n[00:03.00]c")
	tests := []struct {
		pos  time.Duration
		want int
	}{
		{0, -1},
		{999 * time.Millisecond, -1},
		{time.Second, 0},
		{2500 * time.Millisecond, 1},
		{time.Hour, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, l.Find(tt.pos), tt.pos)
	}
	var empty *Lyric
	assert.Equal(t, -1, empty.Find(time.Second))
}

// The 300ms offset makes "World" appear from 1.7s on, so positions are
// asserted clear of that boundary.
func TestLiveSync(t *testing.T) {
	live := NewLive(nil)
	live.SetLyric(Parse("[00:00.00]Hello\n[00:02.00]World"))

	var emitted []string
	live.SentenceChanged.Connect(func(ln Line) { emitted = append(emitted, ln.Origin) })

	live.OnPosition(at(0))
	assert.Equal(t, []string{"Hello"}, emitted)

	live.OnPosition(at(1.0))
	live.OnPosition(at(1.5))
	assert.Equal(t, []string{"Hello"}, emitted, "no emission inside the same line")

	live.OnPosition(at(2.0))
	assert.Equal(t, []string{"Hello", "World"}, emitted)
	assert.Equal(t, "World", live.Current().Origin)

	live.OnPosition(player.Position{})
	assert.Len(t, emitted, 2, "invalid positions are ignored")
}

func TestLiveMonotonicEmission(t *testing.T) {
	live := NewLive(nil, WithOffset(0))
	live.SetLyric(Parse("[00:01.00]a\n[00:02.00]b\n[00:04.00]c"))

	var keys []time.Duration
	live.SentenceChanged.Connect(func(ln Line) { keys = append(keys, ln.At) })
	for ms := 0; ms <= 5000; ms += 100 {
		live.OnPosition(player.Position{At: time.Duration(ms) * time.Millisecond, Valid: true})
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, keys)
}

type fetcher struct {
	lyric *model.Lyric
	err   error
}

func (f fetcher) SongGetLyric(context.Context, model.BriefSong) (*model.Lyric, error) {
	return f.lyric, f.err
}

func TestLiveLoad(t *testing.T) {
	song := model.BriefSong{Source: "s", Identifier: "1"}

	live := NewLive(fetcher{lyric: &model.Lyric{Content: "[00:00.00]Hi", TransContent: "[00:00.00]嗨"}})
	var changed []*Lyric
	live.LyricChanged.Connect(func(l *Lyric) { changed = append(changed, l) })

	require.NoError(t, live.Load(context.Background(), song))
	require.Len(t, changed, 1)
	require.Equal(t, 1, live.Lyric().Len())
	live.OnPosition(at(0))
	assert.Equal(t, Line{Origin: "Hi", Trans: "嗨"}, live.Current())

	missing := NewLive(fetcher{err: errors.New("boom")})
	missing.SetLyric(Parse("[00:00.00]stale"))
	assert.Error(t, missing.Load(context.Background(), song))
	assert.Nil(t, missing.Lyric())
	missing.OnPosition(at(1))
	assert.Equal(t, Line{}, missing.Current(), "missing lyric leaves an empty sentence")
}

func TestLiveOnSongChanged(t *testing.T) {
	live := NewLive(fetcher{lyric: &model.Lyric{Content: "[00:00.00]Hi"}})
	done := make(chan struct{})
	live.LyricChanged.Connect(func(l *Lyric) {
		if l != nil {
			close(done)
		}
	})
	live.OnSongChanged(&model.BriefSong{Source: "s", Identifier: "1"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lyric not loaded")
	}
	assert.Equal(t, 1, live.Lyric().Len())
}
