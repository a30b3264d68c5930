// Package websocket pushes escalation events to dashboard clients over websockets.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/example/logitrack/internal/metrics"
	"github.com/example/logitrack/internal/ports/secondary"
)

// ClientMessage is what a client sends: {"action":"subscribe","channel":"escalations"}.
type ClientMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// ServerMessage is what the hub sends. Data is the published row for
// escalation events and empty for control replies.
type ServerMessage struct {
	Event     string          `json:"event"`
	ID        string          `json:"id,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// Options tunes connection handling.
type Options struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

// Connection is one connected client.
type Connection struct {
	ID       string
	UserID   string
	conn     *gorilla.Conn
	send     chan []byte
	channels map[string]bool
}

// Hub tracks connections and their channel subscriptions.
// It implements secondary.EventPublisher.
type Hub struct {
	upgrader gorilla.Upgrader
	opts     Options
	logger   *zap.Logger

	mu    sync.RWMutex
	conns map[string]*Connection
}

var _ secondary.EventPublisher = (*Hub)(nil)

// NewHub creates a hub. Zero option values fall back to defaults.
func NewHub(logger *zap.Logger, opts Options) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}

	h := &Hub{
		opts:   opts,
		logger: logger.Named("websocket"),
		conns:  make(map[string]*Connection),
	}
	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Name implements secondary.EventPublisher.
func (h *Hub) Name() string { return "websocket" }

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and starts the connection's pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Accept(w, r, "anonymous")
}

// Accept upgrades the request for userID and starts the connection's pumps.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request, userID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &Connection{
		ID:       uuid.New().String(),
		UserID:   userID,
		conn:     ws,
		send:     make(chan []byte, h.opts.SendBuffer),
		channels: make(map[string]bool),
	}

	h.mu.Lock()
	h.conns[c.ID] = c
	total := len(h.conns)
	h.mu.Unlock()

	h.logger.Info("websocket connection established",
		zap.String("connection_id", c.ID),
		zap.String("user_id", userID),
		zap.Int("total_connections", total))

	go h.writer(c)
	go h.reader(c)
}

// Publish implements secondary.EventPublisher. Subscribers whose buffer is
// full are disconnected rather than blocking the publisher.
func (h *Hub) Publish(_ context.Context, event secondary.Event) error {
	msg, err := json.Marshal(ServerMessage{
		Event:     event.Name,
		ID:        event.ID,
		Timestamp: event.Timestamp,
		Data:      json.RawMessage(event.Data),
	})
	if err != nil {
		return err
	}

	var slow []string
	h.mu.RLock()
	for id, c := range h.conns {
		if !c.channels[event.Channel] {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		h.logger.Warn("dropping slow websocket subscriber", zap.String("connection_id", id))
		h.remove(id)
	}
	return nil
}

// Subscribers returns how many connections are subscribed to channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.conns {
		if c.channels[channel] {
			n++
		}
	}
	return n
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.remove(id)
	}
}

func (h *Hub) reader(c *Connection) {
	defer func() {
		h.remove(c.ID)
		_ = c.conn.Close()
	}()

	readTimeout := 2 * h.opts.PingInterval
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.String("connection_id", c.ID), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handle(c, msg)
	}
}

func (h *Hub) writer(c *Connection) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(gorilla.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(gorilla.TextMessage, msg); err != nil {
				h.logger.Debug("websocket write error", zap.String("connection_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := c.conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) handle(c *Connection, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		if msg.Channel == "" {
			h.reply(c, ServerMessage{Event: "error", Message: "channel is required"})
			return
		}
		h.setSubscribed(c, msg.Channel, true)
		h.reply(c, ServerMessage{Event: "subscribed", Channel: msg.Channel})
	case "unsubscribe":
		h.setSubscribed(c, msg.Channel, false)
		h.reply(c, ServerMessage{Event: "unsubscribed", Channel: msg.Channel})
	case "ping":
		h.reply(c, ServerMessage{Event: "pong"})
	default:
		h.reply(c, ServerMessage{Event: "error", Message: "unknown action: " + msg.Action})
	}
}

func (h *Hub) setSubscribed(c *Connection, channel string, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if on {
		c.channels[channel] = true
	} else {
		delete(c.channels, channel)
	}
	h.updateGaugeLocked()
}

// reply queues a control message; it is dropped if the connection is gone or backed up.
func (h *Hub) reply(c *Connection, msg ServerMessage) {
	msg.Timestamp = time.Now().UTC()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Debug("websocket reply dropped", zap.String("connection_id", c.ID))
	}
}

// remove closes the connection's send channel exactly once.
func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[id]
	if !ok {
		return
	}
	close(c.send)
	delete(h.conns, id)
	h.updateGaugeLocked()
	h.logger.Info("websocket connection removed", zap.String("connection_id", id))
}

func (h *Hub) updateGaugeLocked() {
	n := 0
	for _, c := range h.conns {
		if len(c.channels) > 0 {
			n++
		}
	}
	metrics.WebSocketSubscribers.Set(float64(n))
}
