// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tracestream streams display frame reports to WebSocket clients.
//
// Each connected client receives a JSON message per report:
//
//	{"type":"frame","data":{...FrameReport...},"timestamp":"..."}
//
// New clients first receive the most recent reports kept in the backlog.
package tracestream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/display"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	sendBuffer = 256
)

// Message is the envelope written to clients.
type Message struct {
	Type      string              `json:"type"`
	Data      display.FrameReport `json:"data"`
	Timestamp time.Time           `json:"timestamp"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans frame reports out to connected clients. It implements
// display.Reporter and http.Handler; Run must be running for either to
// make progress.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan display.FrameReport
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}

	backlogSize int
	dropped     atomic.Uint64
}

// Option configures a Hub.
type Option func(*Hub)

// WithBacklog sets how many recent reports a new client is sent.
func WithBacklog(n int) Option {
	return func(h *Hub) { h.backlogSize = max(n, 0) }
}

// WithOriginCheck restricts which Origin headers may connect. Requests
// without an Origin header are always accepted.
func WithOriginCheck(allowed func(origin string) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed(origin)
		}
	}
}

// NewHub returns a hub accepting any origin with a backlog of 32 reports.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		register:    make(chan *client),
		unregister:  make(chan *client),
		broadcast:   make(chan display.FrameReport, sendBuffer),
		done:        make(chan struct{}),
		clients:     make(map[*client]struct{}),
		backlogSize: 32,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many reports were discarded because the hub or a
// client could not keep up.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// ReportFrame implements display.Reporter. It never blocks.
func (h *Hub) ReportFrame(r display.FrameReport) {
	select {
	case h.broadcast <- r:
	default:
		h.dropped.Add(1)
	}
}

// Run serves register, unregister and broadcast events until ctx is done,
// then disconnects every client. A hub runs at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	var backlog [][]byte
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			for _, msg := range backlog {
				h.deliver(c, msg)
			}
			compositor.Logger().Debug("tracestream: client connected", "client", c.id)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case r := <-h.broadcast:
			msg, err := json.Marshal(Message{Type: "frame", Data: r, Timestamp: time.Now()})
			if err != nil {
				compositor.Logger().Warn("tracestream: marshal report", "err", err)
				continue
			}
			if h.backlogSize > 0 {
				if len(backlog) == h.backlogSize {
					backlog = backlog[1:]
				}
				backlog = append(backlog, msg)
			}
			h.mu.RLock()
			for c := range h.clients {
				h.deliver(c, msg)
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.dropped.Add(1)
	}
}

// ServeHTTP upgrades the request to a WebSocket stream.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		compositor.Logger().Warn("tracestream: upgrade failed", "err", err)
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		hub:  h,
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump discards client input and notices disconnects.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				compositor.Logger().Debug("tracestream: read error", "client", c.id, "err", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ display.Reporter = (*Hub)(nil)
