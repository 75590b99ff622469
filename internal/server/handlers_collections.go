package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/handiism/fuo/internal/model"
)

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	items := s.svc.Collections.List()
	out := make([]collectionView, 0, len(items))
	for _, c := range items {
		out = append(out, newCollectionView(c, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeBody(r, &body); err != nil || strings.TrimSpace(body.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	c, err := s.svc.Collections.Create(body.Title)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCollectionView(c, true))
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Collections.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newCollectionView(c, true))
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Collections.Delete(chi.URLParam(r, "name")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCollectionAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URI string `json:"uri"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	s.editCollection(w, r, body.URI, true)
}

func (s *Server) handleCollectionRemove(w http.ResponseWriter, r *http.Request) {
	s.editCollection(w, r, r.URL.Query().Get("uri"), false)
}

func (s *Server) editCollection(w http.ResponseWriter, r *http.Request, raw string, add bool) {
	name := chi.URLParam(r, "name")
	m, err := s.svc.Resolver.Resolve(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, ok := m.(model.BriefSong); ok {
		m, _ = s.song(raw)
	}
	edit := s.svc.Collections.Remove
	if add {
		edit = s.svc.Collections.Add
	}
	changed, err := edit(name, m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.svc.Collections.Get(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed, "collection": newCollectionView(c, true)})
}
