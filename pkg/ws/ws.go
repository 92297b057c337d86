// Package ws runs authenticated websocket connections over gorilla/websocket.
//
// Every connection must authenticate with its first frame. After that the
// connection's frames are handed to the Handler one at a time, in order, on
// the connection's own goroutine, so a slow exchange on one connection never
// blocks another. The Hub goroutine only owns the user → connections registry
// used by Push.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//	r.Get("/ws/chat", "ws.chat", hub.Handler(chatHandler))
//	hub.Push(userID, map[string]any{"type": "order", "order": o})
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	authWait       = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Handler authenticates and serves one connection.
type Handler interface {
	// Authenticate inspects the first frame and returns the user it belongs to.
	Authenticate(ctx context.Context, frame []byte) (userID uint, err error)
	// Handle processes one subsequent frame.
	Handle(ctx context.Context, c *Client, frame []byte)
}

// Client is one authenticated connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint
}

// UserID returns the authenticated user.
func (c *Client) UserID() uint { return c.userID }

// Send queues data for this connection. It drops the frame when the
// connection is not keeping up.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		logger.Warn("ws: send buffer full, dropping frame", "user_id", c.userID)
	}
}

// SendJSON marshals v and queues it.
func (c *Client) SendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("ws: marshal frame", "error", err)
		return
	}
	c.Send(data)
}

type push struct {
	userID uint
	data   []byte
}

// Hub tracks authenticated connections by user.
type Hub struct {
	upgrader   websocket.Upgrader
	clients    map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	push       chan push
	count      chan chan int
	done       chan struct{}
}

// NewHub returns a Hub. Run must be started before connections are served.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan push, 256),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// SetCheckOrigin replaces the allow-all origin check.
func (h *Hub) SetCheckOrigin(fn func(*http.Request) bool) { h.upgrader.CheckOrigin = fn }

// Run owns the registry until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					c.conn.Close()
				}
			}
			h.clients = map[uint]map[*Client]struct{}{}
			metrics.WSConnections.Set(0)
			return

		case c := <-h.register:
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			metrics.WSConnections.Inc()

		case c := <-h.unregister:
			if set, ok := h.clients[c.userID]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.send)
					metrics.WSConnections.Dec()
				}
				if len(set) == 0 {
					delete(h.clients, c.userID)
				}
			}

		case p := <-h.push:
			for c := range h.clients[p.userID] {
				select {
				case c.send <- p.data:
				default:
					logger.Warn("ws: push dropped", "user_id", p.userID)
				}
			}

		case reply := <-h.count:
			n := 0
			for _, set := range h.clients {
				n += len(set)
			}
			reply <- n
		}
	}
}

// Push sends v as JSON to every connection of userID.
func (h *Hub) Push(userID uint, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("ws: marshal push", "error", err)
		return
	}
	select {
	case h.push <- push{userID: userID, data: data}:
	case <-h.done:
	}
}

// ClientCount returns the number of authenticated connections.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Handler upgrades the request and serves the connection with handler.
func (h *Hub) Handler(handler Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
			return
		}
		ctx := context.WithoutCancel(r.Context())
		go h.serve(ctx, conn, handler)
	}
}

func (h *Hub) serve(ctx context.Context, conn *websocket.Conn, handler Handler) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log := logger.WithCtx(ctx)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(authWait)) //nolint:errcheck
	_, first, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	userID, err := handler.Authenticate(ctx, first)
	if err != nil {
		log.Info("ws: authentication failed", "error", err)
		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
		conn.WriteJSON(map[string]string{"type": "error", "message": "unauthorized"}) //nolint:errcheck
		conn.WriteMessage(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"))
		conn.Close()
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), userID: userID}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()

	ctx = logger.InjectLogger(ctx, log.With("user_id", userID))
	c.readPump(ctx, handler)
}

func (c *Client) readPump(ctx context.Context, handler Handler) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithCtx(ctx).Warn("ws: unexpected close", "error", err)
			}
			return
		}
		handler.Handle(ctx, c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
