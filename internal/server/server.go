package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/handiism/fuo/internal/collection"
	"github.com/handiism/fuo/internal/library"
	"github.com/handiism/fuo/internal/lyric"
	"github.com/handiism/fuo/internal/player"
	"github.com/handiism/fuo/internal/playlist"
	"github.com/handiism/fuo/internal/provider"
	"github.com/handiism/fuo/internal/recent"
	"github.com/handiism/fuo/internal/uri"
)

// Services are the components the server exposes. Lyric and Recent may
// be nil.
type Services struct {
	Library     *library.Library
	Playlist    *playlist.Playlist
	Player      player.Player
	Collections *collection.Manager
	Recent      *recent.Played
	Lyric       *lyric.Live
	Resolver    *uri.Resolver
}

// Server is the HTTP control surface of a running player.
//
// Routes:
//
//	GET    /health
//	GET    /search?q=&type=song,album&source=local
//	GET    /playlist                      list, current song and modes
//	POST   /playlist                      {"uris": [...]} appends songs
//	DELETE /playlist                      clears the list
//	POST   /playlist/play                 {"uri": "..."}
//	POST   /playlist/next
//	POST   /playlist/previous
//	POST   /playlist/mode                 {"playback_mode": "loop", "watch_mode": true}
//	GET    /player
//	POST   /player/{toggle,pause,resume,stop}
//	POST   /player/seek                   {"position_ms": 1000}
//	GET    /collections
//	POST   /collections                   {"title": "..."}
//	GET    /collections/{name}
//	DELETE /collections/{name}
//	POST   /collections/{name}/models     {"uri": "..."}
//	DELETE /collections/{name}/models?uri=
//	GET    /recent
//	GET    /lyric/ws                      websocket of lyric sentences
//
// Example:
//
//	srv := server.New(server.Services{Library: lib, Playlist: pl, Player: p, Collections: mgr}, logger)
//	defer srv.Close()
//	err := srv.ListenAndServe(ctx, "127.0.0.1:23333")
type Server struct {
	svc    Services
	logger *slog.Logger
	hub    *hub
	cancel context.CancelFunc
}

// New creates a server and starts its websocket hub. Close stops it.
func New(svc Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if svc.Resolver == nil && svc.Library != nil {
		svc.Resolver = uri.NewResolver(svc.Library.Registry())
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		svc:    svc,
		logger: logger,
		hub:    newHub(logger),
		cancel: cancel,
	}
	go s.hub.run(ctx)
	if svc.Lyric != nil {
		svc.Lyric.SentenceChanged.Connect(s.onSentence)
	}
	return s
}

// Close stops the websocket hub and disconnects its clients.
func (s *Server) Close() {
	s.cancel()
}

// Router creates the chi.Router serving every route.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/search", s.handleSearch)

	r.Route("/playlist", func(r chi.Router) {
		r.Get("/", s.handlePlaylist)
		r.Post("/", s.handlePlaylistAdd)
		r.Delete("/", s.handlePlaylistClear)
		r.Post("/play", s.handlePlay)
		r.Post("/next", s.handleNext)
		r.Post("/previous", s.handlePrevious)
		r.Post("/mode", s.handleMode)
	})

	r.Route("/player", func(r chi.Router) {
		r.Get("/", s.handlePlayer)
		r.Post("/seek", s.handleSeek)
		r.Post("/{action:toggle|pause|resume|stop}", s.handlePlayerAction)
	})

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", s.handleCollections)
		r.Post("/", s.handleCreateCollection)
		r.Get("/{name}", s.handleCollection)
		r.Delete("/{name}", s.handleDeleteCollection)
		r.Post("/{name}/models", s.handleCollectionAdd)
		r.Delete("/{name}/models", s.handleCollectionRemove)
	})

	r.Get("/recent", s.handleRecent)
	r.Get("/lyric/ws", s.handleLyricWS)

	return r
}

// ListenAndServe serves Router on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, middlewares ...func(http.Handler) http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(middlewares...),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("server: listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "fuo",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusOf maps the error taxonomy onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, uri.ErrResolveFailed):
		return http.StatusBadRequest
	case errors.Is(err, playlist.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, collection.ErrCollectionExists):
		return http.StatusConflict
	case errors.Is(err, collection.ErrSystemCollection):
		return http.StatusForbidden
	case errors.Is(err, provider.ErrProviderNotFound),
		errors.Is(err, provider.ErrModelNotFound),
		errors.Is(err, provider.ErrMediaNotFound),
		errors.Is(err, collection.ErrCollectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, provider.ErrProviderIO), errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	case errors.Is(err, player.ErrNoMedia):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("server: request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("server: request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, status, err.Error())
}
