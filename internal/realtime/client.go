package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket connection watching a PG's issue events.
type Client struct {
	ID         string
	PGHostelID uuid.UUID
	UserID     uuid.UUID
	hub        *Hub
	conn       *websocket.Conn
	send       chan WSMessage
}

// ValidateFunc validates the bearer token from the query string.
type ValidateFunc func(token string) (userID uuid.UUID, role string, err error)

// OwnershipFunc reports whether the user owns the PG.
type OwnershipFunc func(ctx context.Context, pgHostelID, userID uuid.UUID) (bool, error)

// ServeWs handles the WebSocket upgrade for GET /ws?pg_hostel_id=&token= and
// runs the client loop. Only the PG's owner may subscribe to its event stream.
func ServeWs(hub *Hub, logger *zap.Logger, validate ValidateFunc, ownsPG OwnershipFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		pgIDStr := c.Query("pg_hostel_id")
		token := c.Query("token")
		if pgIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pg_hostel_id and token required"})
			return
		}
		pgID, err := uuid.Parse(pgIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pg_hostel_id"})
			return
		}
		userID, role, err := validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if role != "owner" {
			c.JSON(http.StatusForbidden, gin.H{"error": "owner role required"})
			return
		}
		owns, err := ownsPG(c.Request.Context(), pgID, userID)
		if err != nil || !owns {
			c.JSON(http.StatusForbidden, gin.H{"error": "you are not the owner of this PG/Hostel"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:         uuid.New().String(),
			PGHostelID: pgID,
			UserID:     userID,
			hub:        hub,
			conn:       conn,
			send:       make(chan WSMessage, 256),
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

// readPump consumes inbound frames. The stream is server-to-client; inbound
// messages only keep the read deadline fresh.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
