package live

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one websocket spectator attached to a battle feed.
type Client struct {
	BattleID string
	Conn     *websocket.Conn
	Send     chan []byte
}

// Hub fans battle events out to the spectators of each battle.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[c.BattleID] == nil {
		h.rooms[c.BattleID] = make(map[*Client]bool)
	}
	h.rooms[c.BattleID][c] = true
	log.Printf("[LIVE] Spectator joined battle %s", c.BattleID)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[c.BattleID]; ok && room[c] {
		delete(room, c)
		close(c.Send)
		if len(room) == 0 {
			delete(h.rooms, c.BattleID)
		}
	}
}

// Broadcast sends a payload to every spectator of the battle. Slow clients
// are dropped rather than blocking the sender.
func (h *Hub) Broadcast(battleID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[battleID] {
		select {
		case client.Send <- data:
		default:
			delete(h.rooms[battleID], client)
			close(client.Send)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS upgrades the connection and attaches it to the battle named in
// the query string.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	battleID := r.URL.Query().Get("battle")
	if battleID == "" {
		http.Error(w, "missing battle id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Live upgrade error:", err)
		return
	}

	client := &Client{
		BattleID: battleID,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}
	h.register(client)

	go client.writePump()
	go h.readPump(client)
}

// readPump drains incoming frames; the feed is one-way, so messages are
// ignored and a read error tears the client down.
func (h *Hub) readPump(c *Client) {
	defer func() {
		h.unregister(c)
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.Conn.Close()
	for message := range c.Send {
		c.Conn.WriteMessage(websocket.TextMessage, message)
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
