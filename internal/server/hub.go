package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/handiism/fuo/internal/lyric"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Origins are not checked.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sentenceMessage is pushed to websocket clients for every lyric line.
type sentenceMessage struct {
	Type   string `json:"type"`
	AtMS   int64  `json:"at_ms"`
	Origin string `json:"origin"`
	Trans  string `json:"trans,omitempty"`
}

type wsClient struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

// hub fans messages out to websocket clients. A client that joins gets
// the last message right away.
type hub struct {
	logger     *slog.Logger
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	clients    map[*wsClient]struct{}
	last       []byte
	done       chan struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:     logger,
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, sendBuffer),
		clients:    map[*wsClient]struct{}{},
		done:       make(chan struct{}),
	}
}

func (h *hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			h.clients = nil
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.last != nil {
				h.deliver(c, h.last)
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			h.last = msg
			for c := range h.clients {
				h.deliver(c, msg)
			}
		}
	}
}

// deliver drops clients that do not keep up.
func (h *hub) deliver(c *wsClient, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Debug("server: dropping slow websocket client", "addr", c.conn.RemoteAddr().String())
		delete(h.clients, c)
		close(c.send)
	}
}

// publish queues msg for every client without blocking the caller.
func (h *hub) publish(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug("server: lyric broadcast full, message dropped")
	}
}

func (s *Server) onSentence(ln lyric.Line) {
	msg, err := json.Marshal(sentenceMessage{Type: "sentence", AtMS: ln.At.Milliseconds(), Origin: ln.Origin, Trans: ln.Trans})
	if err != nil {
		s.logger.Error("server: encode sentence", "err", err)
		return
	}
	s.hub.publish(msg)
}

func (s *Server) handleLyricWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("server: ws upgrade", "err", err)
		return
	}
	c := &wsClient{hub: s.hub, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case s.hub.register <- c:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump discards what the client sends and unregisters it once the
// connection breaks.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
