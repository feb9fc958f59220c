package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait (seconds) are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains pg_hostel_id -> set of connections and broadcasts issue events.
// Uses Redis pub/sub for horizontal scaling: local broadcast + publish to Redis.
type Hub struct {
	// pgHostelID -> map[clientID]*Client
	rooms    map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per PG
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishPGEvent(pgHostelID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to PG channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribePG(pgHostelID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a PG room. Starts the Redis subscription for this PG
// when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.PGHostelID] == nil {
		h.rooms[c.PGHostelID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribePG(c.PGHostelID, func(event string, payload []byte) {
				h.BroadcastToPG(c.PGHostelID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Error("redis subscribe failed, cross-instance events disabled for pg",
					zap.Error(err), zap.String("pg_id", c.PGHostelID.String()))
			} else {
				h.subs[c.PGHostelID] = cancel
			}
		}
	}
	h.rooms[c.PGHostelID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined pg room", zap.String("client_id", c.ID), zap.String("pg_id", c.PGHostelID.String()))
}

// Unregister removes a client from a PG room. Cancels the Redis subscription
// when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.PGHostelID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.PGHostelID)
			if cancel, ok := h.subs[c.PGHostelID]; ok {
				cancel()
				delete(h.subs, c.PGHostelID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left pg room", zap.String("client_id", c.ID), zap.String("pg_id", c.PGHostelID.String()))
}

// BroadcastToPG sends a message to all clients in a PG room (local only).
func (h *Hub) BroadcastToPG(pgHostelID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[pgHostelID]
	h.mu.RUnlock()

	if clients == nil {
		return
	}
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// BroadcastToPGAndPublish delivers an event to every instance's clients. When
// Redis is configured it publishes only; the subscriber callback performs the
// local broadcast exactly once per instance, avoiding duplicate delivery.
func (h *Hub) BroadcastToPGAndPublish(pgHostelID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishPGEvent(pgHostelID, event, data)
		return
	}
	h.BroadcastToPG(pgHostelID, event, json.RawMessage(data))
}

// ClientCount returns the number of connected clients for a PG.
func (h *Hub) ClientCount(pgHostelID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[pgHostelID])
}
