package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fabricview/internal/metrics"
	"fabricview/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsMaxMessage = 4096
)

// Message types exchanged on /ws
const (
	MessageDataset = "dataset"
	MessageError   = "error"
)

// ClientMessage is one message from the browser: a pointer input or a
// dataset selection
type ClientMessage struct {
	Type   string  `json:"type"`
	Node   string  `json:"node,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Source string  `json:"source,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsClient is one interactive browser connection
type wsClient struct {
	id     string
	conn   *websocket.Conn
	viewer Viewer
	events chan session.Event
	send   chan session.Event
	done   chan struct{}
}

// ServeWS upgrades the connection and runs the interactive channel
func (h *ViewHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := &wsClient{
		id:     uuid.NewString(),
		conn:   conn,
		viewer: h.viewer,
		events: h.viewer.Bus().Subscribe(8),
		send:   make(chan session.Event, 16),
		done:   make(chan struct{}),
	}

	metrics.ConnectedClients.WithLabelValues("ws").Inc()
	log.Printf("WebSocket client connected: %s", client.id)

	client.greet(r.Context())

	go client.writePump()
	go client.readPump()
}

// greet sends the current frame, and the startup notice while nothing is loaded
func (c *wsClient) greet(ctx context.Context) {
	frame, err := c.viewer.Snapshot(ctx)
	if err != nil {
		c.reply(session.Event{Type: MessageError, Payload: err.Error()})
		return
	}

	c.reply(session.Event{Type: session.EventFrame, Payload: frame})
	if frame.Dataset == "" && frame.Notice != "" {
		c.reply(session.Event{Type: session.EventNotice, Payload: frame.Notice})
	}
}

func (c *wsClient) reply(ev session.Event) {
	select {
	case c.send <- ev:
	default:
		log.Printf("WebSocket client %s is slow, dropping %s message", c.id, ev.Type)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(ev session.Event) bool {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteJSON(ev); err != nil {
			log.Printf("Error writing message: %v", err)
			return false
		}
		return true
	}

	for {
		// Replies go out before queued frames
		select {
		case ev := <-c.send:
			if !write(ev) {
				return
			}
			continue
		default:
		}

		select {
		case ev := <-c.send:
			if !write(ev) {
				return
			}

		case ev := <-c.events:
			if !write(ev) {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *wsClient) readPump() {
	defer func() {
		c.viewer.Bus().Unsubscribe(c.events)
		close(c.done)
		c.conn.Close()
		metrics.ConnectedClients.WithLabelValues("ws").Dec()
		log.Printf("WebSocket client disconnected: %s", c.id)
	}()

	c.conn.SetReadLimit(wsMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		if err := c.handle(msg); err != nil {
			c.reply(session.Event{Type: MessageError, Payload: err.Error()})
		}
	}
}

func (c *wsClient) handle(msg ClientMessage) error {
	switch msg.Type {
	case MessageDataset:
		ctx, cancel := context.WithTimeout(context.Background(), wsWriteWait)
		defer cancel()
		return c.viewer.Switch(ctx, msg.Source)

	case string(session.InputPointerDown), string(session.InputPointerMove),
		string(session.InputPointerUp), string(session.InputClick), string(session.InputBackground):
		return c.viewer.Dispatch(session.Input{
			Type: session.InputType(msg.Type),
			Node: msg.Node,
			X:    msg.X,
			Y:    msg.Y,
		})

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}
