package websocket

import (
	"encoding/json"
	"sync"

	"lot-bidding/internal/domain"
	"lot-bidding/pkg/logger"
)

type ConnectionManager struct {
	connections map[string]map[string]domain.WebSocketConnection // auctionID -> connID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]domain.WebSocketConnection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(auctionID string, conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[string]domain.WebSocketConnection)
	}
	cm.connections[auctionID][conn.ID()] = conn

	cm.log.Info("Connection registered", "conn_id", conn.ID(), "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(auctionID string, connID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if room, exists := cm.connections[auctionID]; exists {
		delete(room, connID)
		if len(room) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	cm.log.Info("Connection unregistered", "conn_id", connID, "auction_id", auctionID)
	return nil
}

func (cm *ConnectionManager) CloseAndUnregisterConnections(auctionID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for connID, conn := range cm.connections[auctionID] {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close connection", "conn_id", connID, "auction_id", auctionID, "error", err)
		}
	}
	delete(cm.connections, auctionID)

	cm.log.Info("Connections closed for auction", "auction_id", auctionID)
	return nil
}

// CloseAll closes every room. Call it before shutting the HTTP server down;
// upgraded connections are not tracked by http.Server.
func (cm *ConnectionManager) CloseAll() {
	cm.mutex.RLock()
	auctions := make([]string, 0, len(cm.connections))
	for auctionID := range cm.connections {
		auctions = append(auctions, auctionID)
	}
	cm.mutex.RUnlock()

	for _, auctionID := range auctions {
		if err := cm.CloseAndUnregisterConnections(auctionID); err != nil {
			cm.log.Error("Failed to close auction room", "auction_id", auctionID, "error", err)
		}
	}
}

func (cm *ConnectionManager) GetConnectionsForAuction(auctionID string) []domain.WebSocketConnection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	connections := make([]domain.WebSocketConnection, 0, len(cm.connections[auctionID]))
	for _, conn := range cm.connections[auctionID] {
		connections = append(connections, conn)
	}
	return connections
}

// BroadcastToAuction encodes message once and sends it to every connection in
// the room. A failing connection does not stop delivery to the others.
func (cm *ConnectionManager) BroadcastToAuction(auctionID string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	connections := cm.GetConnectionsForAuction(auctionID)
	cm.log.Debug("Broadcasting to auction", "auction_id", auctionID, "connections", len(connections))

	for _, conn := range connections {
		if err := conn.Send(json.RawMessage(payload)); err != nil {
			cm.log.Warn("Failed to send message", "conn_id", conn.ID(), "auction_id", auctionID, "error", err)
		}
	}

	return nil
}
