package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/fuo/internal/app"
	"github.com/handiism/fuo/internal/config"
	"github.com/handiism/fuo/internal/download"
	"github.com/handiism/fuo/internal/lyric"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/playlist"
	"github.com/handiism/fuo/internal/provider/providertest"
)

func newTestModel(t *testing.T) (Model, []model.BriefSong) {
	t.Helper()
	s := config.DefaultSettings()
	s.CollectionsDir = t.TempDir()
	s.LocalMusicDirs = nil
	s.DownloadDir = t.TempDir()
	s.ArtworkCacheDir = t.TempDir()
	s.BandcampEnabled = false

	f := providertest.New("a")
	songs := []model.BriefSong{
		f.AddSong(&model.Song{Identifier: "1", Title: "Blue Monday", Artists: []model.BriefArtist{{Name: "New Order"}}, DurationMS: 443000}, "http://a/1.mp3"),
		f.AddSong(&model.Song{Identifier: "2", Title: "Ceremony", Artists: []model.BriefArtist{{Name: "New Order"}}, DurationMS: 263000}, "http://a/2.mp3"),
	}
	a, err := app.New(s, nil, app.WithProviders(f))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	require.NoError(t, a.Start(context.Background()))
	return NewModel(a), songs
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSearchFlow(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, key("/"))
	assert.Equal(t, StateInput, m.state)
	require.NotNil(t, cmd)

	for _, r := range "order" {
		m, _ = update(t, m, key(string(r)))
	}
	assert.Equal(t, "order", m.textInput.Value())

	m, cmd = update(t, m, key("enter"))
	assert.Equal(t, StateSearching, m.state)
	require.NotNil(t, cmd)

	done := m.search("order")()
	m, _ = update(t, m, done)
	assert.Equal(t, StateBrowse, m.state)
	assert.Equal(t, PaneResults, m.pane)
	assert.Len(t, m.results, 2)
	assert.Contains(t, m.View(), "Search results (2)")
}

func TestSearchURI(t *testing.T) {
	m, _ := newTestModel(t)

	msg := m.search("fuo://a/songs/2\t# Ceremony - New Order")().(SearchDoneMsg)
	require.NoError(t, msg.Err)
	require.Len(t, msg.Songs, 1)
	assert.Equal(t, "Ceremony", msg.Songs[0].Title)

	msg = m.search("fuo://a/albums/2")().(SearchDoneMsg)
	assert.Error(t, msg.Err)
}

func TestBrowseAddAndPlay(t *testing.T) {
	m, songs := newTestModel(t)
	m, _ = update(t, m, SearchDoneMsg{Query: "order", Songs: songs})

	m, _ = update(t, m, key("down"))
	assert.Equal(t, 1, m.cursor)
	m, _ = update(t, m, key("a"))
	assert.Equal(t, []model.BriefSong{songs[1]}, m.app.Playlist.Songs())

	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())
	m.app.Loop.Flush()
	require.NotNil(t, m.app.Playlist.CurrentSong())
	assert.Equal(t, "Ceremony", m.app.Playlist.CurrentSong().Title)

	m, _ = update(t, m, SongChangedMsg{Song: m.app.Playlist.CurrentSong()})
	m, _ = update(t, m, SentenceMsg{Line: lyric.Line{Origin: "This is why events unnerve me"}})
	view := m.View()
	assert.Contains(t, view, "Ceremony")
	assert.Contains(t, view, "This is why events unnerve me")

	m, _ = update(t, m, key("tab"))
	assert.Equal(t, PanePlaylist, m.pane)
	m, _ = update(t, m, key("x"))
	assert.Zero(t, m.app.Playlist.Len())
}

func TestModes(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, key("m"))
	assert.Equal(t, playlist.OneLoop, m.app.Playlist.PlaybackMode())
	m, _ = update(t, m, key("f"))
	assert.Equal(t, playlist.FM, m.app.Playlist.Mode())
	m, _ = update(t, m, key("w"))
	assert.True(t, m.app.Playlist.WatchMode())
	assert.Contains(t, m.View(), "one_loop | fm | watch")
}

func TestLogsAreCapped(t *testing.T) {
	m, _ := newTestModel(t)
	for i := 0; i < maxLogs+3; i++ {
		m, _ = update(t, m, LogMsg{Message: "line", Level: download.LevelInfo})
	}
	assert.Len(t, m.logs, maxLogs)
}

func TestSaveToLibrary(t *testing.T) {
	m, songs := newTestModel(t)

	msg := m.save(songs[0])().(LogMsg)
	assert.Equal(t, download.LevelSuccess, msg.Level)
	msg = m.save(songs[0])().(LogMsg)
	assert.Equal(t, download.LevelWarning, msg.Level)
	assert.Equal(t, 1, m.app.Collections.Library().Len())
}
