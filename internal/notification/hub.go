package notification

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 512
	sendBuffer = 256
)

type client struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

// Hub keeps one live websocket per user and pushes delivered notifications to it.
// Push never waits on the network: each connection has a buffered queue drained by its
// own writer goroutine.
type Hub struct {
	connections map[int64]*client
	mutex       sync.RWMutex
	upgrader    websocket.Upgrader
	log         *logrus.Logger
}

func NewHub(log *logrus.Logger, allowedOrigins []string) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		connections: make(map[int64]*client),
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// register makes c the user's connection, closing the queue of any previous one.
func (h *Hub) register(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if old, exists := h.connections[c.userID]; exists {
		close(old.send)
	}
	h.connections[c.userID] = c
}

// unregister drops c if it is still the user's current connection.
func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if cur, exists := h.connections[c.userID]; exists && cur == c {
		delete(h.connections, c.userID)
		close(c.send)
	}
}

// Push queues payload as JSON for the user's connection and reports whether it was queued.
// A full queue means the client is not reading; the message is dropped.
func (h *Hub) Push(userID int64, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("encode websocket payload")
		return false
	}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	c, exists := h.connections[userID]
	if !exists {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		h.log.WithField("user_id", userID).Warn("websocket client too slow, notification not pushed")
		return false
	}
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.connections[userID]
	return exists
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections)
}

// Close ends every connection; writer goroutines send a close frame and exit.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, c := range h.connections {
		close(c.send)
		delete(h.connections, userID)
	}
}

// Serve upgrades the request and holds the connection for userID until the client goes away.
func (h *Hub) Serve(c *gin.Context, userID int64) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("websocket upgrade failed")
		return
	}

	cl := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(cl)
	h.log.WithField("user_id", userID).Debug("notification socket connected")

	go h.writePump(cl)
	h.readPump(cl)
}

// readPump keeps the pong handler running and detects close. Clients only listen.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		h.log.WithField("user_id", c.userID).Debug("notification socket disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithError(err).WithField("user_id", c.userID).Debug("notification socket closed")
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
