// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 16
	writeWait    = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans snapshots out to websocket viewers and remembers the latest one
// for the JSON endpoint. Viewers that fall behind are disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	latest  []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*hubClient]struct{})}
}

// Publish implements Publisher.
func (h *Hub) Publish(s Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("web: dropping slow viewer %s", c.conn.RemoteAddr())
			h.removeLocked(c)
		}
	}
	return nil
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) removeLocked(c *hubClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// ServeHTTP upgrades the request to a websocket and streams snapshots to
// it. The latest snapshot, if any, is sent first.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("web: viewer connected from %s", conn.RemoteAddr())

	go h.readLoop(c)
	h.writeLoop(c)
}

func (h *Hub) writeLoop(c *hubClient) {
	defer c.conn.Close()
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("web: websocket write error: %v", err)
			h.mu.Lock()
			h.removeLocked(c)
			h.mu.Unlock()
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// readLoop discards viewer messages and unregisters the viewer once the
// connection goes away.
func (h *Hub) readLoop(c *hubClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.mu.Lock()
			h.removeLocked(c)
			h.mu.Unlock()
			return
		}
	}
}

// HandleLatest serves the most recent snapshot as JSON.
func (h *Hub) HandleLatest(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	payload := h.latest
	h.mu.Unlock()
	if payload == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		log.Printf("web: write error: %v", err)
	}
}
