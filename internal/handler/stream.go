package handler

import (
	"log"
	"net/http"
	"sync"
	"time"

	"perp-pulse/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHub fans committed snapshots out to websocket clients. Writes are
// serialized per connection; a failed write drops the client.
type StreamHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewStreamHub() *StreamHub {
	return &StreamHub{clients: make(map[*streamClient]struct{})}
}

func (h *StreamHub) add(c *streamClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *StreamHub) remove(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	_ = c.conn.Close()
}

func (h *StreamHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends one frame to every connected client. Clients whose write
// fails are dropped.
func (h *StreamHub) Broadcast(frame any) {
	h.mu.Lock()
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(frame); err != nil {
			h.remove(c)
		}
	}
}

func (c *streamClient) writeJSON(frame any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(frame)
}

func tickerFrame(markets []domain.MarketData) gin.H {
	return gin.H{
		"type":    "ticker",
		"at":      time.Now().UnixMilli(),
		"markets": markets,
	}
}

func sentimentFrame(signals []domain.SentimentSignal) gin.H {
	return gin.H{
		"type":    "sentiment",
		"at":      time.Now().UnixMilli(),
		"signals": signals,
	}
}

// Stream godoc
// @Summary      Live snapshot stream
// @Description  Upgrades to a websocket pushing ticker and sentiment frames on each commit
// @Tags         stream
// @Router       /stream [get]
func (h *Handler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &streamClient{conn: conn}
	markets, _ := h.markets.Snapshot()
	if err := client.writeJSON(gin.H{
		"type":    "hello",
		"message": "Market stream connected",
		"markets": markets,
	}); err != nil {
		_ = conn.Close()
		return
	}
	h.hub.add(client)

	// Drain control frames until the peer goes away.
	go func() {
		defer h.hub.remove(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
