// Package hub streams view frames to read-only observers over server-sent
// events.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"fabricview/internal/metrics"
)

// KeepAlive is the interval between SSE comment lines on an idle stream
const KeepAlive = 30 * time.Second

// observer is one connected SSE stream. Its queue holds a single message:
// frames carry the whole view, so only the newest one matters.
type observer struct {
	id    string
	queue chan []byte
}

// offer replaces any undelivered message with msg
func (o *observer) offer(msg []byte) {
	for {
		select {
		case o.queue <- msg:
			return
		default:
		}
		select {
		case <-o.queue:
		default:
		}
	}
}

type message struct {
	event   string
	payload interface{}
}

// Hub fans named events out to SSE observers
type Hub struct {
	mu        sync.RWMutex
	observers map[*observer]struct{}
	join      chan *observer
	leave     chan *observer
	messages  chan message

	// Owned by Run
	seq  uint64
	last []byte
}

// New creates a new Hub
func New() *Hub {
	return &Hub{
		observers: make(map[*observer]struct{}),
		join:      make(chan *observer),
		leave:     make(chan *observer),
		messages:  make(chan message, 64),
	}
}

// Run delivers messages until ctx is done, then ends every stream
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case o := <-h.join:
			h.mu.Lock()
			h.observers[o] = struct{}{}
			total := len(h.observers)
			h.mu.Unlock()

			if h.last != nil {
				o.offer(h.last)
			}
			metrics.ConnectedClients.WithLabelValues("sse").Inc()
			log.Printf("SSE observer connected: %s (total: %d)", o.id, total)

		case o := <-h.leave:
			h.mu.Lock()
			if _, ok := h.observers[o]; ok {
				delete(h.observers, o)
				close(o.queue)
				metrics.ConnectedClients.WithLabelValues("sse").Dec()
			}
			total := len(h.observers)
			h.mu.Unlock()
			log.Printf("SSE observer disconnected: %s (total: %d)", o.id, total)

		case m := <-h.messages:
			msg, err := h.encode(m)
			if err != nil {
				log.Printf("Failed to encode %s event: %v", m.event, err)
				continue
			}
			h.last = msg

			h.mu.RLock()
			for o := range h.observers {
				o.offer(msg)
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for o := range h.observers {
				delete(h.observers, o)
				close(o.queue)
				metrics.ConnectedClients.WithLabelValues("sse").Dec()
			}
			h.mu.Unlock()
			return ctx.Err()
		}
	}
}

// encode renders one SSE message with a sequence id
func (h *Hub) encode(m message) ([]byte, error) {
	data, err := json.Marshal(m.payload)
	if err != nil {
		return nil, err
	}
	h.seq++

	var b bytes.Buffer
	b.WriteString("id: " + strconv.FormatUint(h.seq, 10) + "\n")
	if m.event != "" {
		b.WriteString("event: " + m.event + "\n")
	}
	b.WriteString("data: ")
	b.Write(data)
	b.WriteString("\n\n")
	return b.Bytes(), nil
}

// Broadcast queues a named event for every observer. An empty name sends
// an unnamed "message" event.
func (h *Hub) Broadcast(event string, payload interface{}) {
	select {
	case h.messages <- message{event: event, payload: payload}:
	default:
		log.Printf("SSE queue full, dropping %s event", event)
	}
}

// ObserverCount returns the number of connected observers
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// ServeHTTP streams events to one observer
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	o := &observer{
		id:    uuid.NewString(),
		queue: make(chan []byte, 1),
	}

	select {
	case h.join <- o:
	case <-r.Context().Done():
		return
	}

	defer func() {
		select {
		case h.leave <- o:
		case <-time.After(time.Second):
			// Hub has stopped
		}
	}()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case msg, ok := <-o.queue:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()

		case <-keepAlive.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
