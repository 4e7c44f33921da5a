package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// ChangeEvent is one mutation pushed to subscribed clients.
type ChangeEvent struct {
	Collection string      `json:"collection"`
	Action     string      `json:"action"`
	Document   interface{} `json:"document"`
}

// Change actions.
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// ChangeHub pushes collection change events to websocket subscribers. A
// client subscribes to collections via the query string; an empty list means
// everything.
type ChangeHub struct {
	mutex   sync.Mutex
	clients map[*websocket.Conn]map[string]bool
}

// NewChangeHub returns an empty hub.
func NewChangeHub() *ChangeHub {
	return &ChangeHub{clients: make(map[*websocket.Conn]map[string]bool)}
}

// ServeWS upgrades the connection and registers the client until it hangs up.
func (h *ChangeHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorf("WebSocket upgrade error: %v", err)
		return
	}

	var collections map[string]bool
	if raw := r.URL.Query().Get("collections"); raw != "" {
		collections = make(map[string]bool)
		for _, c := range strings.Split(raw, ",") {
			collections[strings.TrimSpace(c)] = true
		}
	}

	h.mutex.Lock()
	h.clients[conn] = collections
	h.mutex.Unlock()
	zap.S().Debugw("client connected to /ws/changes", "collections", collections)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, conn)
		h.mutex.Unlock()
		zap.S().Debug("client disconnected from /ws/changes")
		return nil
	})

	// Keep connection alive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
			break
		}
	}
}

// Broadcast pushes one change event to every client subscribed to the
// collection. Stale connections are evicted on write error.
func (h *ChangeHub) Broadcast(collection, action string, document interface{}) {
	if h == nil {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()

	event := ChangeEvent{Collection: collection, Action: action, Document: document}
	for conn, collections := range h.clients {
		if collections != nil && !collections[collection] {
			continue
		}
		if err := conn.WriteJSON(event); err != nil {
			zap.S().Warnf("error broadcasting change event: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
