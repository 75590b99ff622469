package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type playerView struct {
	State      string    `json:"state"`
	PositionMS int64     `json:"position_ms"`
	DurationMS int64     `json:"duration_ms"`
	Media      string    `json:"media,omitempty"`
	Song       *songView `json:"song"`
}

func (s *Server) playerView() playerView {
	p := s.svc.Player
	v := playerView{
		State:      p.State().String(),
		DurationMS: p.Duration().Milliseconds(),
	}
	if pos := p.Position(); pos.Valid {
		v.PositionMS = pos.At.Milliseconds()
	}
	if m := p.CurrentMedia(); m != nil {
		v.Media = m.URL
	}
	if cur := s.svc.Playlist.CurrentSong(); cur != nil {
		sv := newSongView(*cur)
		v.Song = &sv
	}
	return v
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.playerView())
}

func (s *Server) handlePlayerAction(w http.ResponseWriter, r *http.Request) {
	p := s.svc.Player
	switch chi.URLParam(r, "action") {
	case "toggle":
		p.Toggle()
	case "pause":
		p.Pause()
	case "resume":
		p.Resume()
	case "stop":
		p.Stop()
	default:
		writeError(w, http.StatusNotFound, "unknown player action")
		return
	}
	writeJSON(w, http.StatusOK, s.playerView())
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PositionMS int64 `json:"position_ms"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.svc.Player.Seek(time.Duration(body.PositionMS) * time.Millisecond); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.playerView())
}
