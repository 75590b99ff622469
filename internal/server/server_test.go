package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/fuo/internal/collection"
	"github.com/handiism/fuo/internal/library"
	"github.com/handiism/fuo/internal/lyric"
	"github.com/handiism/fuo/internal/metadata"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/player"
	"github.com/handiism/fuo/internal/playlist"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/provider/providertest"
	"github.com/handiism/fuo/internal/recent"
	"github.com/handiism/fuo/internal/signal"
	"github.com/handiism/fuo/internal/uri"
)

type testEnv struct {
	fake   *providertest.Fake
	loop   *signal.Loop
	player *player.Headless
	pl     *playlist.Playlist
	recent *recent.Played
	live   *lyric.Live
	srv    *Server
	http   *httptest.Server
	songs  []model.BriefSong
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	f := providertest.New("a")
	s1 := f.AddSong(&model.Song{Identifier: "1", Title: "Hello", Artists: []model.BriefArtist{{Name: "Adele"}}, DurationMS: 200000}, "http://a/1.mp3")
	s2 := f.AddSong(&model.Song{Identifier: "2", Title: "Someone Like You", Artists: []model.BriefArtist{{Name: "Adele"}}, DurationMS: 280000}, "http://a/2.mp3")

	reg := provider.NewRegistry()
	require.NoError(t, reg.Register(f))
	lib := library.New(reg, library.DefaultConfig(), nil)
	resolver := uri.NewResolver(reg)

	e := &testEnv{
		fake:   f,
		loop:   signal.NewLoop(),
		player: player.NewHeadless(),
		recent: recent.New(10),
		live:   lyric.NewLive(nil, lyric.WithOffset(0)),
		songs:  []model.BriefSong{s1, s2},
	}
	t.Cleanup(e.loop.Close)
	e.pl = playlist.New(lib, e.player, metadata.NewAssembler(lib, 0, nil), e.loop)
	e.pl.SongChanged.Connect(func(s *model.BriefSong) {
		if s != nil {
			e.recent.Add(*s)
		}
	})

	mgr := collection.NewManager(t.TempDir(), resolver, nil)
	require.NoError(t, mgr.Scan())

	e.srv = New(Services{
		Library:     lib,
		Playlist:    e.pl,
		Player:      e.player,
		Collections: mgr,
		Recent:      e.recent,
		Lyric:       e.live,
		Resolver:    resolver,
	}, nil)
	t.Cleanup(e.srv.Close)
	e.http = httptest.NewServer(e.srv.Router())
	t.Cleanup(e.http.Close)
	return e
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.http.URL+path, rd)
	require.NoError(t, err)
	resp, err := e.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	status, body := e.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", decode[map[string]string](t, body)["status"])
}

func TestSearch(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.do(t, http.MethodGet, "/search?q=someone&type=song", nil)
	require.Equal(t, http.StatusOK, status)
	views := decode[[]searchView](t, body)
	require.Len(t, views, 1)
	assert.Equal(t, "a", views[0].Source)
	require.Len(t, views[0].Songs, 1)
	assert.Equal(t, "fuo://a/songs/2", views[0].Songs[0].URI)
	assert.Equal(t, "Adele", views[0].Songs[0].Artists)

	status, _ = e.do(t, http.MethodGet, "/search", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodGet, "/search?q=x&type=podcast", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPlaylist_AddPlayNext(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.do(t, http.MethodPost, "/playlist", map[string]any{
		"uris": []string{uri.Reverse(e.songs[0], true), uri.Reverse(e.songs[1], true)},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	added := decode[map[string]int](t, body)
	assert.Equal(t, 2, added["added"])
	assert.Equal(t, 2, added["count"])

	status, body = e.do(t, http.MethodPost, "/playlist/play", map[string]string{"uri": "fuo://a/songs/1"})
	require.Equal(t, http.StatusOK, status, string(body))
	view := decode[playlistView](t, body)
	require.NotNil(t, view.Current)
	assert.Equal(t, "Hello", view.Current.Title)
	assert.Equal(t, "idle", view.Stage)
	e.loop.Flush()
	assert.Equal(t, player.Playing, e.player.State())

	status, body = e.do(t, http.MethodPost, "/playlist/next", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	view = decode[playlistView](t, body)
	require.NotNil(t, view.Current)
	assert.Equal(t, "Someone Like You", view.Current.Title)
	e.loop.Flush()
	assert.Equal(t, "http://a/2.mp3", e.player.CurrentMedia().URL)

	status, body = e.do(t, http.MethodPost, "/playlist/previous", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Hello", decode[playlistView](t, body).Current.Title)

	e.loop.Flush()
	status, body = e.do(t, http.MethodGet, "/recent", nil)
	require.Equal(t, http.StatusOK, status)
	played := decode[[]songView](t, body)
	require.Len(t, played, 2)
	assert.Equal(t, "Hello", played[0].Title)
	assert.Equal(t, "Someone Like You", played[1].Title)

	status, _ = e.do(t, http.MethodDelete, "/playlist", nil)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Zero(t, e.pl.Len())
}

func TestPlaylist_BadURI(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.do(t, http.MethodPost, "/playlist/play", map[string]string{"uri": "not a uri"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[map[string]string](t, body)["error"], "resolve failed")

	status, _ = e.do(t, http.MethodPost, "/playlist", map[string]any{"uris": []string{"fuo://a/albums/1"}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = e.do(t, http.MethodPost, "/playlist/play", map[string]string{"uri": "fuo://a/songs/404"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPlaylist_Mode(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.do(t, http.MethodPost, "/playlist/mode", map[string]any{"playback_mode": "loop", "watch_mode": true})
	require.Equal(t, http.StatusOK, status, string(body))
	view := decode[playlistView](t, body)
	assert.Equal(t, "loop", view.PlaybackMode)
	assert.True(t, view.WatchMode)
	assert.Equal(t, "normal", view.Mode)
	assert.Equal(t, playlist.Loop, e.pl.PlaybackMode())

	status, _ = e.do(t, http.MethodPost, "/playlist/mode", map[string]any{"playback_mode": "shuffle"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, playlist.Loop, e.pl.PlaybackMode())
}

func TestPlayer(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.do(t, http.MethodPost, "/player/seek", map[string]int{"position_ms": 1000})
	assert.Equal(t, http.StatusConflict, status, string(body))

	e.pl.Add(e.songs[0])
	require.NoError(t, e.pl.PlayModel(t.Context(), e.songs[0]))
	e.loop.Flush()

	status, body = e.do(t, http.MethodPost, "/player/pause", nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[playerView](t, body)
	assert.Equal(t, "paused", view.State)
	assert.Equal(t, "http://a/1.mp3", view.Media)
	require.NotNil(t, view.Song)
	assert.Equal(t, "Hello", view.Song.Title)

	status, body = e.do(t, http.MethodPost, "/player/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "playing", decode[playerView](t, body).State)

	status, body = e.do(t, http.MethodPost, "/player/seek", map[string]int{"position_ms": 1500})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1500, decode[playerView](t, body).PositionMS)

	status, _ = e.do(t, http.MethodPost, "/player/explode", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = e.do(t, http.MethodPost, "/player/stop", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "stopped", decode[playerView](t, body).State)
}

func TestCollections(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.do(t, http.MethodGet, "/collections", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[[]collectionView](t, body)
	require.Len(t, list, 2)
	assert.Equal(t, "library", list[0].Name)
	assert.Equal(t, "pool", list[1].Name)

	status, body = e.do(t, http.MethodPost, "/collections", map[string]string{"title": "mix"})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "mix", decode[collectionView](t, body).Name)

	status, _ = e.do(t, http.MethodPost, "/collections", map[string]string{"title": "mix"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = e.do(t, http.MethodPost, "/collections/mix/models", map[string]string{"uri": uri.Reverse(e.songs[0], true)})
	require.Equal(t, http.StatusOK, status, string(body))
	var edit struct {
		Changed    bool           `json:"changed"`
		Collection collectionView `json:"collection"`
	}
	require.NoError(t, json.Unmarshal(body, &edit))
	assert.True(t, edit.Changed)
	require.Len(t, edit.Collection.Models, 1)
	assert.True(t, strings.HasPrefix(edit.Collection.Models[0], "fuo://a/songs/1\t# Hello"), edit.Collection.Models[0])

	status, body = e.do(t, http.MethodGet, "/collections/mix", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[collectionView](t, body).Count)

	status, body = e.do(t, http.MethodDelete, "/collections/mix/models?uri=fuo://a/songs/1", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &edit))
	assert.True(t, edit.Changed)
	assert.Zero(t, edit.Collection.Count)

	status, _ = e.do(t, http.MethodDelete, "/collections/library", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = e.do(t, http.MethodDelete, "/collections/mix", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = e.do(t, http.MethodGet, "/collections/mix", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"resolve", uri.ErrResolveFailed, http.StatusBadRequest},
		{"model not found", provider.ErrModelNotFound, http.StatusNotFound},
		{"media not found", provider.NewMediaNotFound("gone"), http.StatusNotFound},
		{"provider io", provider.WrapIO("a", io.ErrUnexpectedEOF), http.StatusBadGateway},
		{"not supported", provider.ErrNotSupported, http.StatusNotImplemented},
		{"cancelled", playlist.ErrCancelled, http.StatusConflict},
		{"other", io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestLyricWebsocket(t *testing.T) {
	e := newTestEnv(t)

	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/lyric/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	e.live.SetLyric(lyric.ParseWithTranslation("[00:01.00]Hello\n[00:02.00]World", "[00:02.00]世界"))
	e.live.OnPosition(player.Position{At: 2500 * time.Millisecond, Valid: true})

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg sentenceMessage
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.Origin != "World" {
			continue
		}
		assert.Equal(t, "sentence", msg.Type)
		assert.EqualValues(t, 2000, msg.AtMS)
		assert.Equal(t, "世界", msg.Trans)
		break
	}

	// A late client gets the current sentence on connect.
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	require.NoError(t, late.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg sentenceMessage
	require.NoError(t, late.ReadJSON(&msg))
	assert.Equal(t, "World", msg.Origin)
}
