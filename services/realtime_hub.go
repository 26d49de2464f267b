package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const wsWriteWait = 10 * time.Second

type WSClient struct {
	OrgID  uint
	UserID uint
	Conn   *websocket.Conn

	// gorilla connections allow one concurrent writer
	writeMu sync.Mutex
}

func (c *WSClient) Write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.Conn.WriteMessage(messageType, data)
}

// RealtimeHub fans dashboard events out to the websocket connections of an
// organization.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
	log     *zap.Logger
}

func NewRealtimeHub(log *zap.Logger) *RealtimeHub {
	if log == nil {
		log = zap.NewNop()
	}
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{}), log: log}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.OrgID] == nil {
		h.clients[c.OrgID] = make(map[*WSClient]struct{})
	}
	h.clients[c.OrgID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.OrgID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.OrgID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// Connections reports how many sockets an organization has open.
func (h *RealtimeHub) Connections(orgID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[orgID])
}

// Broadcast sends payload as JSON to every connection of orgID. Slow or
// broken connections are dropped by their read loop, not here.
func (h *RealtimeHub) Broadcast(orgID uint, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("unable to encode realtime event", zap.Error(err))
		return
	}
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients[orgID]))
	for c := range h.clients[orgID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.Write(websocket.TextMessage, msg); err != nil {
			h.log.Debug("realtime write failed", zap.Uint("user_id", c.UserID), zap.Error(err))
		}
	}
}
