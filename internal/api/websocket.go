package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/calvinwijaya/blackjack-table/internal/game"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the HTTP routes
	},
}

// Message represents a WebSocket message
type Message struct {
	Type     string      `json:"type"`
	GameID   string      `json:"gameId,omitempty"`
	TableID  string      `json:"tableId,omitempty"`
	PlayerID string      `json:"playerId,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	tableID  string
	playerID string
	hub      *Hub
}

// Hub routes messages to connected clients by table and by player.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	tables     map[string]map[*Client]bool
	playerMap  map[string]*Client
	logger     *zap.Logger
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		done:       make(chan struct{}),
		tables:     make(map[string]map[*Client]bool),
		playerMap:  make(map[string]*Client),
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				h.drop(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.join(client)

			if client.playerID != "" {
				h.playerMap[client.playerID] = client
			}
			h.mu.Unlock()

			h.logger.Debug("client connected",
				zap.String("player", client.playerID),
				zap.String("table", client.tableID),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// join adds the client to its table. Callers hold h.mu.
func (h *Hub) join(client *Client) {
	if client.tableID == "" {
		return
	}
	if _, exists := h.tables[client.tableID]; !exists {
		h.tables[client.tableID] = make(map[*Client]bool)
	}
	h.tables[client.tableID][client] = true
}

// leave removes the client from its table. Callers hold h.mu.
func (h *Hub) leave(client *Client) {
	if client.tableID == "" || h.tables[client.tableID] == nil {
		return
	}
	delete(h.tables[client.tableID], client)
	if len(h.tables[client.tableID]) == 0 {
		delete(h.tables, client.tableID)
	}
}

// drop forgets a client and closes its send channel. Callers hold h.mu.
func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.leave(client)
	if client.playerID != "" && h.playerMap[client.playerID] == client {
		delete(h.playerMap, client.playerID)
	}
}

// subscribe moves a client to another table.
func (h *Hub) subscribe(client *Client, tableID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	h.leave(client)
	client.tableID = tableID
	h.join(client)
}

// Broadcast sends a message to every connected client. It is a no-op once
// the hub has stopped.
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	}
}

// BroadcastToTable sends message to every client seated at tableID.
func (h *Hub) BroadcastToTable(tableID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", zap.String("table", tableID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.tables[tableID] {
		h.offer(client, data)
	}
}

// offer queues data for client without blocking. A client whose buffer is
// full misses the message.
func (h *Hub) offer(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Debug("client lagging, message dropped",
			zap.String("player", client.playerID),
			zap.String("table", client.tableID),
		)
	}
}

// BroadcastGameUpdate sends every client at the game's table its own view
// of the game. Callers must hold the session's lock.
func (h *Hub) BroadcastGameUpdate(g *game.BlackjackGame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.tables[g.TableID] {
		msg := Message{
			Type:    "gameUpdate",
			GameID:  g.ID,
			TableID: g.TableID,
			Data:    g.View(client.playerID),
		}

		data, err := json.Marshal(msg)
		if err != nil {
			h.logger.Error("failed to marshal game update", zap.String("game", g.ID), zap.Error(err))
			continue
		}
		h.offer(client, data)
	}
}

// SendToPlayer sends message to the connection registered for playerID.
func (h *Hub) SendToPlayer(playerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", zap.String("player", playerID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.playerMap[playerID]; ok {
		h.offer(client, data)
	}
}

// WebSocketHandler upgrades the request and registers a client for the
// playerId and tableId query parameters.
func (h *Hub) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	playerID := r.URL.Query().Get("playerId")
	tableID := r.URL.Query().Get("tableId")

	client := &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		tableID:  tableID,
		playerID: playerID,
		hub:      h,
	}

	welcome, _ := json.Marshal(Message{
		Type:     "welcome",
		TableID:  tableID,
		PlayerID: playerID,
		Data: map[string]string{
			"message": "Connected to blackjack table server",
		},
	})
	client.send <- welcome

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.readPump()
	go client.writePump()
}

// readPump pumps messages from the WebSocket connection to the hub. The only
// request a client makes is {"type":"subscribe","tableId":...}.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
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
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", zap.String("player", c.playerID), zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.logger.Debug("ignoring malformed message", zap.String("player", c.playerID), zap.Error(err))
			continue
		}

		switch msg.Type {
		case "subscribe":
			c.hub.subscribe(c, msg.TableID)
		default:
			c.hub.logger.Debug("ignoring message", zap.String("type", msg.Type))
		}
	}
}

// writePump writes queued messages, batching whatever is pending into one
// frame separated by newlines, and pings on an idle connection.
func (c *Client) writePump() {
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
				// dropped by the hub
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
