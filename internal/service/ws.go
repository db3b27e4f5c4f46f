package service

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// maxConnsPerOrg caps how many live dashboard sockets one organization can
// hold open.
const maxConnsPerOrg = 10

// WSManager manages WebSocket connections per organization for the live
// alert feed.
type WSManager struct {
	connections map[string]map[*websocket.Conn]bool // orgID -> set of connections
	mutex       sync.Mutex
	logger      *logrus.Logger
}

// NewWSManager returns an empty connection registry.
func NewWSManager(logger *logrus.Logger) *WSManager {
	return &WSManager{
		connections: make(map[string]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// AddConnection registers a dashboard socket for an organization.
func (m *WSManager) AddConnection(orgID string, conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.connections[orgID]; !exists {
		m.connections[orgID] = make(map[*websocket.Conn]bool)
	}
	if len(m.connections[orgID]) >= maxConnsPerOrg {
		m.logger.Warnf("Max connections reached for org %s", orgID)
		return
	}
	m.connections[orgID][conn] = true
	m.logger.Infof("Added WebSocket connection for org %s (total: %d)", orgID, len(m.connections[orgID]))
}

// RemoveConnection drops a socket from the registry.
func (m *WSManager) RemoveConnection(orgID string, conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if conns, exists := m.connections[orgID]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.connections, orgID)
		}
		m.logger.Infof("Removed WebSocket connection for org %s (remaining: %d)", orgID, len(conns))
	}
}

// Broadcast sends a message to every open socket of an organization, dropping
// connections that fail to write.
func (m *WSManager) Broadcast(orgID string, message []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if conns, exists := m.connections[orgID]; exists {
		for conn := range conns {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				m.logger.Errorf("Failed to send WebSocket message to org %s: %v", orgID, err)
				delete(conns, conn)
			}
		}
		if len(conns) == 0 {
			delete(m.connections, orgID)
		}
	}
}
