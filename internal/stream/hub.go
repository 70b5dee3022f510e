// Package stream fans companion state changes out to websocket observers.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Garsondee/Companion-Sense/internal/companion"
)

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = readTimeout * 9 / 10 // must beat readTimeout
)

// Event is the wire form of one notification.
type Event struct {
	Type   string  `json:"type"`
	Agent  int     `json:"agent"`
	From   string  `json:"from,omitempty"`
	To     string  `json:"to,omitempty"`
	Reason string  `json:"reason,omitempty"`
	Time   float64 `json:"time"`
	Trust  *int    `json:"trust,omitempty"`
}

// StateEvent converts an engine notification.
func StateEvent(ev companion.StateChange) Event {
	return Event{
		Type:   "state_change",
		Agent:  int(ev.Agent),
		From:   ev.From.String(),
		To:     ev.To.String(),
		Reason: ev.Reason,
		Time:   ev.Time,
	}
}

// Hub broadcasts events to every connected observer. Slow observers lose
// messages rather than stalling the simulation.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[uint64]chan []byte
	closed  bool

	// Observers are pinged every pingEvery and dropped when no frame,
	// pong included, arrives within readWait.
	pingEvery time.Duration
	readWait  time.Duration

	nextID  atomic.Uint64
	Dropped atomic.Uint64
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		log:       logger,
		clients:   make(map[uint64]chan []byte),
		pingEvery: pingInterval,
		readWait:  readTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Clients returns the number of connected observers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PublishState broadcasts a state change. It is a companion.StateListener.
func (h *Hub) PublishState(ev companion.StateChange) {
	_ = h.Publish(StateEvent(ev))
}

// Publish marshals v and queues it for every observer.
func (h *Hub) Publish(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- b:
		default:
			h.Dropped.Add(1)
		}
	}
	return nil
}

// Close disconnects every observer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
}

func (h *Hub) register() (uint64, chan []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}
	id := h.nextID.Add(1)
	ch := make(chan []byte, clientBuffer)
	h.clients[id] = ch
	return id, ch, true
}

func (h *Hub) unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[id]; ok {
		close(ch)
		delete(h.clients, id)
	}
}

// Handler upgrades the request and streams events until the observer
// disconnects or the hub closes.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()

		id, out, ok := h.register()
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
			return
		}
		defer h.unregister(id)
		h.log.Info("observer connected", "id", id, "remote", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine; it also owns the pings.
		writeErr := make(chan error, 1)
		go func() {
			ping := time.NewTicker(h.pingEvery)
			defer ping.Stop()
			for {
				select {
				case <-ping.C:
					if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
						writeErr <- err
						return
					}
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b, ok := <-out:
					if !ok {
						_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
						writeErr <- nil
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: observers send nothing but pongs; reads detect close.
		_ = conn.SetReadDeadline(time.Now().Add(h.readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(h.readWait))
		})
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					cancel()
					return
				}
				_ = conn.SetReadDeadline(time.Now().Add(h.readWait))
			}
		}()

		err = <-writeErr
		h.log.Info("observer disconnected", "id", id, "err", err)
	}
}
