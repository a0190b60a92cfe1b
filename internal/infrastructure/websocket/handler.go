package websocket

import (
	"net/http"
	"sync"

	"marketplace-auction/internal/domain"
	"marketplace-auction/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP requests to live auction-update subscriptions.
// The socket is read-only for clients; bids go through the HTTP API.
type Handler struct {
	connManager domain.ConnectionManager
	log         logger.Logger
}

func NewHandler(connManager domain.ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		connManager: connManager,
		log:         log,
	}
}

// HandleConnection upgrades the request and keeps the connection
// registered until the client goes away. The caller resolves userID and
// postToken and checks the auction exists.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, userID, postToken string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return err
	}

	wsConn := NewConnection(conn, userID, postToken)

	if err := h.connManager.RegisterConnection(userID, postToken, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		conn.Close()
		return err
	}

	go h.readLoop(wsConn, userID, postToken)
	return nil
}

func (h *Handler) readLoop(conn *Connection, userID, postToken string) {
	defer func() {
		h.connManager.UnregisterConnection(userID, postToken)
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			return
		}

		// The only client-initiated frame is a keepalive.
		if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}

type Connection struct {
	conn      *websocket.Conn
	userID    string
	postToken string
	writeMu   sync.Mutex
}

func NewConnection(conn *websocket.Conn, userID, postToken string) *Connection {
	return &Connection{
		conn:      conn,
		userID:    userID,
		postToken: postToken,
	}
}

func (c *Connection) Send(message interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(message)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

func (c *Connection) UserID() string {
	return c.userID
}

func (c *Connection) PostToken() string {
	return c.postToken
}
