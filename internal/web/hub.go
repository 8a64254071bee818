package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prusti/pcg/internal/highlight"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Frame is one sync message pushed to every connected viewer.
type Frame struct {
	Type string `json:"type"`
	// Point and Position carry the persisted string forms for "select"
	// frames.
	Point    string `json:"point,omitempty"`
	Position string `json:"position,omitempty"`
	// Keys carries the emphasized CFG edges for "highlight" frames; an
	// empty list clears.
	Keys []highlight.Key `json:"keys,omitempty"`
}

// Frame types.
const (
	FrameSelect    = "select"
	FrameHighlight = "highlight"
	FrameReload    = "reload"
)

type client struct {
	send chan Frame
}

// Hub fans sync frames out to every connected websocket. A client that
// cannot keep up is dropped rather than blocking the broadcast.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Broadcast queues a frame for every connected client.
func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- f:
		default:
			close(c.send)
			delete(h.clients, c)
		}
	}
}

// ClientCount reports the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// HandleWS upgrades the request and streams frames until the client goes
// away. Inbound select frames are re-broadcast so multiple viewers stay in
// step.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c := &client{send: make(chan Frame, 32)}
	h.add(c)
	defer h.remove(c)

	go func() {
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case f, ok := <-c.send:
				if !ok {
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(f); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
			return
		}
		switch f.Type {
		case FrameSelect, FrameHighlight:
			h.Broadcast(f)
		}
	}
}
