// Package ws streams the market listing to browser clients over WebSocket,
// so dashboards refresh without polling /api/prices.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"Chenex/internal/usecase"
	xlogger "Chenex/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browser clients connect from the dashboard origin; the API is public
	// read-only data, so cross-origin upgrades are accepted.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub fans the listing snapshot out to every connected client on a fixed
// interval. Reads go through the market service, so the response cache
// keeps the upstream cost at one fetch per TTL window regardless of how
// many clients are attached.
type Hub struct {
	logger   *xlogger.Logger
	market   *usecase.MarketService
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(logger *xlogger.Logger, market *usecase.MarketService, interval time.Duration) *Hub {
	return &Hub{
		logger:   logger,
		market:   market,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// RegisterRoutes mounts the stream endpoint.
func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/prices", h.Handle)
}

// Run pushes listing snapshots until ctx is cancelled. Ticks with no
// connected clients skip the fetch entirely.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			if h.clientCount() == 0 {
				continue
			}
			h.push(ctx)
		}
	}
}

// Handle upgrades the connection and registers the client. The first
// snapshot is sent immediately so new clients don't wait a full interval.
func (h *Hub) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn, send: make(chan []byte, 8)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("ws client connected", xlogger.Int("clients", total))

	if b, err := h.snapshot(c.Request().Context()); err == nil {
		cl.send <- b
	}

	go h.writePump(cl)
	go h.readPump(cl)
	return nil
}

func (h *Hub) push(ctx context.Context) {
	b, err := h.snapshot(ctx)
	if err != nil {
		h.logger.Warn("price stream snapshot failed", xlogger.Error(err))
		return
	}
	h.mu.RLock()
	for cl := range h.clients {
		select {
		case cl.send <- b:
		default:
			// Slow consumer: drop the frame rather than stall the tick.
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) snapshot(ctx context.Context) ([]byte, error) {
	rows, err := h.market.Prices(ctx, 1)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: "prices", Data: rows})
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()
	for {
		select {
		case b, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the connection to process control frames; any read error
// unregisters the client.
func (h *Hub) readPump(cl *client) {
	defer h.remove(cl)
	cl.conn.SetReadLimit(512)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	h.mu.Unlock()
	cl.conn.Close()
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
		cl.conn.Close()
	}
	h.mu.Unlock()
}
