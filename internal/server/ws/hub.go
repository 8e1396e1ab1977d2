// Package ws pushes monitor events to WebSocket clients and accepts
// monitoring control commands from them.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/dexarb/internal/domain"
	"github.com/alanyoungcy/dexarb/internal/service"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// defaultChannels are the bus channels every new client starts subscribed to.
var defaultChannels = []string{
	service.ChannelPrices,
	service.ChannelArb,
	service.ChannelErrors,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origins are enforced by the HTTP CORS layer; the hub accepts all.
		return true
	},
}

// MonitorControl is the monitoring surface clients can drive over the socket.
type MonitorControl interface {
	Start(interval time.Duration) error
	Stop() error
	Running() bool
}

// client is a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool
	mu   sync.RWMutex
}

// clientMsg is the JSON shape clients send: either a monitoring command or a
// subscription change.
type clientMsg struct {
	Command string `json:"command"`
	// Interval is the polling interval in seconds for start_monitoring;
	// zero means the configured default.
	Interval float64  `json:"interval"`
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
}

// Hub fans bus events out to connected clients and routes their commands to
// the monitor.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan broadcastMsg
	register   chan *client
	unregister chan *client
	bus        domain.SignalBus
	control    MonitorControl
	logger     *slog.Logger
	mu         sync.RWMutex
}

type broadcastMsg struct {
	channel string
	data    []byte
}

// NewHub creates a hub bridging the signal bus to WebSocket clients. control
// may be nil, in which case monitoring commands are rejected.
func NewHub(bus domain.SignalBus, control MonitorControl, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan broadcastMsg, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		bus:        bus,
		control:    control,
		logger:     logger.With(slog.String("component", "ws")),
	}
}

// Run starts the hub loop: client registration, unregistration, and event
// broadcasting. It subscribes to the bus channels in the background and exits
// when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for _, ch := range defaultChannels {
		go h.subscribeToChannel(ctx, ch)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("ws: client connected",
				slog.Int("total_clients", h.clientCount()),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws: client disconnected",
				slog.Int("total_clients", h.clientCount()),
			)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if !c.isSubscribed(msg.channel) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					// Full send buffer means a slow client; drop the
					// message rather than stall the broadcast.
					h.logger.Warn("ws: dropping message for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// subscribeToChannel forwards one bus channel into the hub's broadcast loop.
func (h *Hub) subscribeToChannel(ctx context.Context, channel string) {
	msgCh, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("ws: subscribe failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}

	h.logger.Info("ws: subscribed", slog.String("channel", channel))

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-msgCh:
			if !ok {
				h.logger.Warn("ws: subscription closed",
					slog.String("channel", channel),
				)
				return
			}
			h.broadcast <- broadcastMsg{channel: channel, data: data}
		}
	}
}

// HandleWS upgrades the request and registers the client.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]bool, len(defaultChannels)),
	}
	for _, ch := range defaultChannels {
		c.subs[ch] = true
	}

	h.register <- c
	c.sendConnectionResponse()

	go c.writePump()
	go c.readPump()
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump reads client JSON frames: monitoring commands and subscription
// changes. Anything unparseable is ignored.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws: unexpected close error",
					slog.String("error", err.Error()),
				)
			}
			return
		}

		var msg clientMsg
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Command != "" {
			c.handleCommand(msg.Command, msg.Interval)
			continue
		}
		if msg.Action != "" {
			c.handleSubscription(msg)
		}
	}
}

// handleCommand executes a monitoring command and replies on this client's
// connection only.
func (c *client) handleCommand(command string, intervalSeconds float64) {
	status, message := "error", ""

	switch command {
	case "start_monitoring":
		switch {
		case c.hub.control == nil:
			message = "monitoring not available"
		case c.hub.control.Running():
			status, message = "already_running", "monitoring is already running"
		default:
			interval := time.Duration(intervalSeconds * float64(time.Second))
			if err := c.hub.control.Start(interval); err != nil {
				message = err.Error()
			} else {
				status, message = "started", "monitoring started"
			}
		}
	case "stop_monitoring":
		switch {
		case c.hub.control == nil:
			message = "monitoring not available"
		default:
			if err := c.hub.control.Stop(); err != nil {
				if errors.Is(err, domain.ErrNotRunning) {
					status = "not_running"
				}
				message = err.Error()
			} else {
				status, message = "stopped", "monitoring stopped"
			}
		}
	default:
		message = "unknown command " + command
	}

	c.reply(map[string]any{
		"event":     "monitoring_response",
		"command":   command,
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (c *client) handleSubscription(msg clientMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Action {
	case "subscribe":
		for _, ch := range msg.Channels {
			c.subs[ch] = true
		}
	case "unsubscribe":
		for _, ch := range msg.Channels {
			delete(c.subs, ch)
		}
	}
}

// sendConnectionResponse acknowledges the connection so clients can mark it
// healthy before the first monitor event arrives.
func (c *client) sendConnectionResponse() {
	monitoring := false
	if c.hub.control != nil {
		monitoring = c.hub.control.Running()
	}
	c.reply(map[string]any{
		"event":      "connection_response",
		"status":     "connected",
		"channels":   defaultChannels,
		"monitoring": monitoring,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (c *client) reply(payload map[string]any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subs[channel]
}

// writePump sends queued messages as JSON text frames and periodic pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
