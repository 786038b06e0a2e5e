// Package live pushes upload events to websocket subscribers.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dorian305/3D-Model-Viewer/internal/meshview/constants"
	"github.com/dorian305/3D-Model-Viewer/internal/models"
)

const (
	writeTimeout = 10 * time.Second
	// sendBuffer is how many events a client may lag behind before it is
	// dropped.
	sendBuffer = 32
)

// client owns one websocket. Only its write loop writes to conn.
type client struct {
	conn *websocket.Conn
	send chan models.Event
}

func (c *client) writeLoop() {
	defer c.conn.Close()

	failed := false
	for ev := range c.send {
		if failed {
			continue
		}
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(ev); err != nil {
			slog.Debug("Drop live client", "error", err)
			failed = true
			c.conn.Close()
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Hub fans events out to every connected websocket client.
type Hub struct {
	clients  map[*client]bool
	mu       sync.Mutex
	upgrader websocket.Upgrader
	server   *http.Server
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // the viewer page may be served from another port
			},
		},
	}
}

// ServeHTTP upgrades the request and keeps the connection until the peer
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan models.Event, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	slog.Debug("Live client connected", "remote", r.RemoteAddr)

	go c.writeLoop()

	// drain reads so close frames are processed
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues ev for every client without waiting on the network.
// Clients whose queue is full are dropped.
func (h *Hub) Broadcast(ev models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			slog.Debug("Drop slow live client", "remote", c.conn.RemoteAddr())
			h.dropLocked(c)
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Start serves the hub on addr until Stop is called.
func (h *Hub) Start(addr string) error {
	mux := http.NewServeMux()
	mux.Handle(constants.LivePath, h)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	h.mu.Lock()
	h.server = srv
	h.mu.Unlock()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	for c := range h.clients {
		h.dropLocked(c)
		c.conn.Close()
	}
	srv := h.server
	h.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Subscribe dials a hub and calls fn for every event until ctx is done or
// the connection drops.
func Subscribe(ctx context.Context, url string, fn func(models.Event)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var ev models.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			slog.Warn("Skip malformed live event", "error", err)
			continue
		}
		fn(ev)
	}
}
