package hub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024

	sendBufferSize = 256
)

// Client is one persistent connection. Group membership is fixed at
// construction and torn down with the connection.
type Client struct {
	id       uuid.UUID
	hub      *Hub
	conn     *websocket.Conn
	identity Identity
	send     chan []byte
}

func newClient(h *Hub, conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		id:       uuid.New(),
		hub:      h,
		conn:     conn,
		identity: identity,
		send:     make(chan []byte, sendBufferSize),
	}
}

// ID returns the connection identifier reported by GetMyGroups.
func (c *Client) ID() uuid.UUID {
	return c.id
}

// invokeRequest is a client-to-server call. Both operations are
// side-effect-free diagnostics.
type invokeRequest struct {
	ID     string `json:"id"`
	Method string `json:"method"`
}

type invokeResponse struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// groupInfo is the GetMyGroups reply.
type groupInfo struct {
	UserCode     string   `json:"userCode"`
	SubeIDs      []int64  `json:"subeIds"`
	Groups       []string `json:"groups"`
	ConnectionID string   `json:"connectionId"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.log.Warn("Client read failed",
					zap.String("connection_id", c.id.String()),
					zap.Error(err),
				)
			}

			return
		}

		var req invokeRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			c.respond(invokeResponse{Error: "malformed invoke frame"})

			continue
		}

		c.respond(c.invoke(req))
	}
}

func (c *Client) invoke(req invokeRequest) invokeResponse {
	switch req.Method {
	case "Ping":
		return invokeResponse{
			ID:     req.ID,
			Result: fmt.Sprintf("Pong from server at %s", time.Now().UTC().Format(time.RFC3339Nano)),
		}
	case "GetMyGroups":
		return invokeResponse{
			ID: req.ID,
			Result: groupInfo{
				UserCode:     c.identity.UserCode,
				SubeIDs:      c.identity.SubeIDs,
				Groups:       c.identity.Groups(),
				ConnectionID: c.id.String(),
			},
		}
	default:
		return invokeResponse{
			ID:    req.ID,
			Error: fmt.Sprintf("unknown method: %s", req.Method),
		}
	}
}

func (c *Client) respond(resp invokeResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		c.hub.log.Warn("Failed to marshal invoke response", zap.Error(err))

		return
	}

	select {
	case c.send <- raw:
	default:
		c.hub.log.Warn("Client send buffer full, dropping invoke response",
			zap.String("connection_id", c.id.String()),
		)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})

				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
