package events

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"nhooyr.io/websocket"
)

// Hub fans scan lifecycle events out to connected WebSocket clients. Slow
// clients never block a broadcast: each client has a buffered send channel
// and messages are dropped when it is full.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*client]bool
	activeTasks map[string]json.RawMessage // task_id -> last task:update payload
	tasksMu     sync.RWMutex
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*client]bool),
		activeTasks: make(map[string]json.RawMessage),
	}
}

func (h *Hub) Broadcast(event string, data interface{}) {
	msg, err := json.Marshal(message{Event: event, Data: data})
	if err != nil {
		return
	}

	if event == "task:update" {
		h.trackTask(data, msg)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// trackTask keeps a snapshot of each running task so a client connecting
// mid-scan sees current state immediately.
func (h *Hub) trackTask(data interface{}, raw []byte) {
	m, ok := data.(map[string]interface{})
	if !ok {
		return
	}
	taskID, _ := m["task_id"].(string)
	status, _ := m["status"].(string)
	if taskID == "" {
		return
	}

	h.tasksMu.Lock()
	defer h.tasksMu.Unlock()
	if status == "complete" || status == "failed" {
		delete(h.activeTasks, taskID)
	} else {
		h.activeTasks[taskID] = json.RawMessage(raw)
	}
}

func (h *Hub) sendActiveTasks(c *client) {
	h.tasksMu.RLock()
	defer h.tasksMu.RUnlock()
	for _, msg := range h.activeTasks {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (h *Hub) addClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and pumps hub messages to the client until
// it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("Events: websocket accept: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}
	h.addClient(c)
	h.sendActiveTasks(c)
	log.Printf("Events: client connected (%d total)", h.ClientCount())

	ctx := r.Context()

	go func() {
		defer conn.Close(websocket.StatusNormalClosure, "")
		for msg := range c.send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop keeps the connection alive and notices disconnects.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.removeClient(c)
	log.Printf("Events: client disconnected (%d total)", h.ClientCount())
}
