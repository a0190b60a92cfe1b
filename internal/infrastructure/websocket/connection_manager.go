package websocket

import (
	"encoding/json"
	"sync"

	"marketplace-auction/internal/domain"
	"marketplace-auction/pkg/logger"
)

// ConnectionManagerImpl tracks live connections per post token. Auctions
// are keyed by post token on the wire so pages can subscribe before they
// know the auction id.
type ConnectionManagerImpl struct {
	connections map[string]map[string]domain.WebSocketConnection // post token -> user id -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManagerImpl {
	return &ConnectionManagerImpl{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManagerImpl) RegisterConnection(userID, postToken string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[postToken] == nil {
		cm.connections[postToken] = make(map[string]domain.WebSocketConnection)
	}
	// A reconnect replaces the previous connection for this user.
	if previous, exists := cm.connections[postToken][userID]; exists {
		previous.Close()
	}
	cm.connections[postToken][userID] = conn

	cm.log.Info("Connection registered", "user_id", userID, "post_token", postToken)
	return nil
}

func (cm *ConnectionManagerImpl) UnregisterConnection(userID, postToken string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if postConns, exists := cm.connections[postToken]; exists {
		delete(postConns, userID)
		if len(postConns) == 0 {
			delete(cm.connections, postToken)
		}
	}

	cm.log.Info("Connection unregistered", "user_id", userID, "post_token", postToken)
	return nil
}

func (cm *ConnectionManagerImpl) CloseAndUnregisterConnections(postToken string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if postConns, exists := cm.connections[postToken]; exists {
		for userID, conn := range postConns {
			if err := conn.Close(); err != nil {
				cm.log.Error("Failed to close connection", "user_id", userID,
					"post_token", postToken, "error", err)
			}
		}
		delete(cm.connections, postToken)
	}

	cm.log.Info("Connections closed for post", "post_token", postToken)
	return nil
}

func (cm *ConnectionManagerImpl) GetConnectionsForPost(postToken string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []domain.WebSocketConnection
	for _, conn := range cm.connections[postToken] {
		connections = append(connections, conn)
	}

	return connections
}

func (cm *ConnectionManagerImpl) BroadcastToPost(postToken string, message interface{}) error {
	connections := cm.GetConnectionsForPost(postToken)

	// Marshal once; RawMessage keeps WriteJSON from re-encoding per conn.
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	payload := json.RawMessage(messageBytes)

	for _, conn := range connections {
		if err := conn.Send(payload); err != nil {
			cm.log.Error("Failed to send message", "user_id", conn.UserID(),
				"post_token", postToken, "error", err)
			// Continue to other connections
		}
	}

	return nil
}
