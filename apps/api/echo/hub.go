package echoapi

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gimvicurnik/urnik/core"
	"github.com/gimvicurnik/urnik/services/offline"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// hub forwards the offline worker broadcasts to the websocket clients.
type hub struct {
	logger core.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan offline.Message
	once sync.Once
}

func newHub(logger core.Logger) *hub {
	return &hub{logger: logger, clients: make(map[*wsClient]struct{})}
}

func (h *hub) broadcast(msg offline.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// slow client
			h.drop(c)
		}
	}
}

func (h *hub) drop(c *wsClient) {
	delete(h.clients, c)
	c.once.Do(func() { close(c.send) })
}

func (h *hub) register(conn *websocket.Conn) *wsClient {
	c := &wsClient{conn: conn, send: make(chan offline.Message, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.once.Do(func() { close(c.send) })
		return c
	}
	h.clients[c] = struct{}{}
	return c
}

func (h *hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.drop(c)
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// serve writes the broadcasts to the client until it goes away.
func (h *hub) serve(c *wsClient) {
	defer func() { _ = c.conn.Close() }()

	// reader: handles control frames and detects closed connections
	go func() {
		defer h.unregister(c)
		c.conn.SetReadLimit(512)
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("websocket closed", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}
