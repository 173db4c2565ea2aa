package notify

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait          = 10 * time.Second
	pingInterval       = 30 * time.Second
	pongWait           = 60 * time.Second
	clientSendSize     = 16
	broadcastQueueSize = 16
)

// Hub fans surebet notifications out to websocket subscribers. Broadcast is
// non-blocking: a subscriber that cannot keep up is disconnected rather than
// allowed to stall ingestion. All registration, removal and broadcasting is
// serialized through the run loop, which solely owns the client set; a send
// on a client channel can therefore never race its close.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	count      atomic.Int64
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub and starts its run loop.
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, broadcastQueueSize),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Transport-layer auth/origin policy is out of scope here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}

	go h.run()
	return h
}

// run owns the client set. Only this goroutine adds, removes or closes
// clients, and only this goroutine sends on their channels.
func (h *Hub) run() {
	defer close(h.stopped)

	clients := make(map[*client]struct{})

	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			h.publishCount(len(clients))
			h.logger.Info("subscriber-connected",
				zap.String("client-id", c.id),
				zap.Int("subscriber-count", len(clients)))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.publishCount(len(clients))
				h.logger.Info("subscriber-disconnected",
					zap.String("client-id", c.id),
					zap.Int("subscriber-count", len(clients)))
			}

		case payload := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- payload:
				default:
					// Slow subscriber: drop it instead of blocking the hub.
					MessagesDroppedTotal.Inc()
					h.logger.Warn("subscriber-send-buffer-full",
						zap.String("client-id", c.id))
					delete(clients, c)
					close(c.send)
				}
			}
			h.publishCount(len(clients))
			MessagesPublishedTotal.Inc()

		case <-h.done:
			for c := range clients {
				close(c.send)
			}
			h.publishCount(0)
			h.logger.Info("notification-hub-closed")
			return
		}
	}
}

func (h *Hub) publishCount(n int) {
	h.count.Store(int64(n))
	SubscribersConnected.Set(float64(n))
}

// Publish hands a notification to the run loop for broadcast. Returns
// without error after Close; pending messages on a closed hub are dropped.
func (h *Hub) Publish(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- payload:
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	h.logger.Debug("notification-published",
		zap.Int("surebet-count", n.TotalCount))

	return nil
}

// ServeWS upgrades an HTTP request to a websocket subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket-upgrade-failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	return int(h.count.Load())
}

// Close disconnects all subscribers and stops the run loop. Blocks until the
// run loop has released every client.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() {
		close(h.done)
	})
	<-h.stopped
	return nil
}

// drop asks the run loop to remove a client. Safe to call more than once for
// the same client; after Close it is a no-op.
func (h *Hub) drop(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// writePump drains the client's send queue onto the connection and keeps the
// connection alive with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			err := c.conn.WriteMessage(websocket.TextMessage, payload)
			if err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// readPump discards inbound frames; it exists to process pongs and to notice
// when the peer goes away.
func (h *Hub) readPump(c *client) {
	defer h.drop(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
	}
}
