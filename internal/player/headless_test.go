package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/fuo/internal/model"
)

type recorder struct {
	events    []string
	positions []Position
	finished  int
}

func record(p *Headless) *recorder {
	r := &recorder{}
	s := p.Signals()
	s.StateChanged.Connect(func(st State) { r.events = append(r.events, "state:"+st.String()) })
	s.MediaChanged.Connect(func(m *model.Media) {
		if m == nil {
			r.events = append(r.events, "media:none")
			return
		}
		r.events = append(r.events, "media:"+m.URL)
	})
	s.MetadataChanged.Connect(func(m model.Metadata) { r.events = append(r.events, "meta:"+m.Title) })
	s.PositionChanged.Connect(func(p Position) { r.positions = append(r.positions, p) })
	s.MediaFinished.Connect(func(*model.Media) { r.finished++ })
	return r
}

func TestHeadlessPlay(t *testing.T) {
	p := NewHeadless()
	r := record(p)
	media := &model.Media{URL: "file:///a.mp3", Type: model.MediaAudio}

	require.NoError(t, p.Play(media, model.Metadata{Title: "A", DurationMS: 3000}))
	assert.Equal(t, []string{"media:file:///a.mp3", "meta:A", "state:playing"}, r.events)
	assert.Equal(t, Playing, p.State())
	assert.Equal(t, media, p.CurrentMedia())
	assert.Equal(t, "A", p.CurrentMetadata().Title)
	assert.Equal(t, 3*time.Second, p.Duration())

	assert.Error(t, p.Play(nil, model.Metadata{}))
}

func TestHeadlessPauseResumeToggle(t *testing.T) {
	p := NewHeadless()
	require.NoError(t, p.Play(&model.Media{URL: "u"}, model.Metadata{}))
	r := record(p)

	p.Pause()
	p.Pause()
	p.Advance(time.Second)
	assert.Equal(t, Paused, p.State())
	assert.Empty(t, r.positions, "paused clock does not move")

	p.Toggle()
	assert.Equal(t, Playing, p.State())
	p.Toggle()
	assert.Equal(t, Paused, p.State())
	p.Resume()
	assert.Equal(t, []string{"state:paused", "state:playing", "state:paused", "state:playing"}, r.events)
}

func TestHeadlessAdvanceToEnd(t *testing.T) {
	p := NewHeadless()
	require.NoError(t, p.Play(&model.Media{URL: "u"}, model.Metadata{DurationMS: 1500}))
	r := record(p)

	p.Advance(time.Second)
	p.Advance(time.Second)
	p.Advance(time.Second)

	require.Len(t, r.positions, 2)
	assert.Equal(t, time.Second, r.positions[0].At)
	assert.Equal(t, 1500*time.Millisecond, r.positions[1].At)
	assert.Equal(t, 1, r.finished)
	assert.Equal(t, Stopped, p.State())
}

func TestHeadlessSeekAndStop(t *testing.T) {
	p := NewHeadless()
	assert.ErrorIs(t, p.Seek(time.Second), ErrNoMedia)

	require.NoError(t, p.Play(&model.Media{URL: "u"}, model.Metadata{DurationMS: 10000}))
	require.NoError(t, p.Seek(20*time.Second))
	assert.Equal(t, 10*time.Second, p.Position().At)
	require.NoError(t, p.Seek(-time.Second))
	assert.Equal(t, time.Duration(0), p.Position().At)

	r := record(p)
	p.Stop()
	assert.Equal(t, []string{"state:stopped", "media:none"}, r.events)
	assert.False(t, p.Position().Valid)
	assert.Nil(t, p.CurrentMedia())

	p.Stop()
	assert.Len(t, r.events, 2, "second stop is silent")
}
