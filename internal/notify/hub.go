package notify

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careview/careview/internal/platform/guard"
	"github.com/careview/careview/internal/session"
)

// Client is one connected browser. Its role is fixed at connect time from
// the session; clients never choose their own topics.
type Client struct {
	ID   string
	Role session.Role
	Send chan []byte
}

// Hub fans notifications out to connected browsers by role. All operations
// are thread-safe via sync.RWMutex.
type Hub struct {
	mu      sync.RWMutex
	byRole  map[session.Role]map[*Client]struct{}
	clients map[*Client]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		byRole:  make(map[session.Role]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// Register adds a client under its role.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	if h.byRole[c.Role] == nil {
		h.byRole[c.Role] = make(map[*Client]struct{})
	}
	h.byRole[c.Role][c] = struct{}{}
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if peers, ok := h.byRole[c.Role]; ok {
		delete(peers, c)
		if len(peers) == 0 {
			delete(h.byRole, c.Role)
		}
	}
	close(c.Send)
}

// Broadcast delivers a notification to every client of the given role; an
// empty role reaches everyone.
func (h *Hub) Broadcast(role session.Role, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := h.clients
	if role != "" {
		targets = h.byRole[role]
	}
	for c := range targets {
		select {
		case c.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoleCount returns the number of clients connected under a role.
func (h *Hub) RoleCount(role session.Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byRole[role])
}

// ---------------------------------------------------------------------------
// Handler — Echo HTTP handler for WebSocket connections
// ---------------------------------------------------------------------------

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Same-origin enforcement happens at the CORS layer.
	},
}

// Handler upgrades authenticated requests to websocket connections bound to
// the session's role.
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a Handler bound to the given Hub.
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// Connect upgrades the connection and pumps notifications until the browser
// goes away. The route must sit behind the guard middleware.
func (h *Handler) Connect(c echo.Context) error {
	sess := guard.FromContext(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.New().String(),
		Role: sess.Role,
		Send: make(chan []byte, 256),
	}
	h.hub.Register(client)
	h.logger.Debug().Str("client_id", client.ID).Str("role", string(client.Role)).Msg("websocket connected")

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

// readPump drains inbound frames; the browser sends nothing we act on, but
// the read loop is what detects the close.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Unregister(client)
		ws.Close()
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump writes notifications from the Send channel to the connection.
func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()
	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			return
		}
	}
}
