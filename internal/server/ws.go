package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ironrail/rails-server-go/internal/game"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsSendBuffer = 32
)

// wsClient is one websocket subscriber, bound to a single game.
type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

// Hub fans engine notifications out to websocket subscribers.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*wsClient]bool

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan game.Notification
}

func newHub(logger *zap.Logger, allowAllOrigins bool) *Hub {
	h := &Hub{
		logger:     logger,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan game.Notification, 64),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if allowAllOrigins {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	return h
}

// Notify is installed as the engine's notification handler. The engine calls
// it from its own goroutines; the buffered channel keeps it from blocking.
func (h *Hub) Notify(n game.Notification) {
	select {
	case h.broadcast <- n:
	default:
		h.logger.Warn("notification dropped, hub backlog full",
			zap.String("game_id", n.GameID),
			zap.String("type", n.Type),
		)
	}
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Debug("ws client registered", zap.String("game_id", c.gameID))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case n := <-h.broadcast:
			payload, err := json.Marshal(n)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for c := range h.clients {
				if c.gameID != n.GameID {
					continue
				}
				select {
				case c.send <- payload:
				default:
					// slow consumer, drop the frame
				}
			}
			h.mu.RUnlock()
		}
	}
}

// handleGameSocket upgrades the connection and streams notifications for one
// game. The token is passed as a query parameter because browsers cannot set
// headers on websocket dials.
func (s *Server) handleGameSocket(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authMgr.Validate(r.URL.Query().Get("token")); err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	gameID := chi.URLParam(r, "id")
	if _, err := s.engine.View(gameID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("ws upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		gameID: gameID,
	}
	s.hub.register <- c

	go c.writePump()
	go c.readPump(s.hub)
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection so pongs and close frames are processed.
// Inbound messages are ignored; actions go through the HTTP endpoint.
func (c *wsClient) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
