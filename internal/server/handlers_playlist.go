package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/handiism/fuo/internal/library"
	"github.com/handiism/fuo/internal/model"
	"github.com/handiism/fuo/internal/playlist"
	"github.com/handiism/fuo/internal/uri"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing q")
		return
	}
	var opts library.SearchOptions
	for _, name := range splitList(r.URL.Query().Get("type")) {
		typ, err := model.ParseSearchType(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Types = append(opts.Types, typ)
	}
	opts.Sources = splitList(r.URL.Query().Get("source"))

	results := s.svc.Library.SearchAll(r.Context(), q, opts)
	writeJSON(w, http.StatusOK, newSearchViews(results))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type playlistView struct {
	Current      *songView  `json:"current"`
	Songs        []songView `json:"songs"`
	Bad          []string   `json:"bad,omitempty"`
	PlaybackMode string     `json:"playback_mode"`
	Mode         string     `json:"mode"`
	WatchMode    bool       `json:"watch_mode"`
	Stage        string     `json:"stage"`
}

func (s *Server) playlistView() playlistView {
	pl := s.svc.Playlist
	v := playlistView{
		Songs:        newSongViews(pl.Songs()),
		PlaybackMode: pl.PlaybackMode().String(),
		Mode:         pl.Mode().String(),
		WatchMode:    pl.WatchMode(),
		Stage:        pl.Stage().String(),
	}
	if cur := pl.CurrentSong(); cur != nil {
		sv := newSongView(*cur)
		v.Current = &sv
	}
	for _, b := range pl.BadSongs() {
		v.Bad = append(v.Bad, uri.Build(b.Key()))
	}
	return v
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.playlistView())
}

// song resolves a song URI or display line. A song already in the
// playlist is returned with its display fields.
func (s *Server) song(raw string) (model.BriefSong, error) {
	m, err := s.svc.Resolver.Resolve(raw)
	if err != nil {
		return model.BriefSong{}, err
	}
	song, ok := m.(model.BriefSong)
	if !ok {
		return model.BriefSong{}, fmt.Errorf("%w: %s is not a song", uri.ErrResolveFailed, raw)
	}
	for _, known := range s.svc.Playlist.Songs() {
		if known.Key() == song.Key() {
			return known, nil
		}
	}
	return song, nil
}

func (s *Server) handlePlaylistAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URIs []string `json:"uris"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	added := 0
	for _, raw := range body.URIs {
		song, err := s.song(raw)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if s.svc.Playlist.Add(song) {
			added++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added, "count": s.svc.Playlist.Len()})
}

func (s *Server) handlePlaylistClear(w http.ResponseWriter, r *http.Request) {
	s.svc.Playlist.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URI string `json:"uri"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	song, err := s.song(body.URI)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.svc.Playlist.PlayModel(r.Context(), song); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.playlistView())
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Playlist.Next(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.playlistView())
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Playlist.Previous(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.playlistView())
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlaybackMode *string `json:"playback_mode"`
		WatchMode    *bool   `json:"watch_mode"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.PlaybackMode != nil {
		m, err := playlist.ParsePlaybackMode(*body.PlaybackMode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.svc.Playlist.SetPlaybackMode(m)
	}
	if body.WatchMode != nil {
		s.svc.Playlist.SetWatchMode(*body.WatchMode)
	}
	writeJSON(w, http.StatusOK, s.playlistView())
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.svc.Recent == nil {
		writeJSON(w, http.StatusOK, []songView{})
		return
	}
	writeJSON(w, http.StatusOK, newSongViews(s.svc.Recent.List()))
}
