package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stokhub/internal/hub"
	"stokhub/internal/model"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
)

type WSHandler struct {
	BaseHandler

	log      *zap.Logger
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(log *zap.Logger, h *hub.Hub, allowAllOrigins bool) *WSHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
	}

	if allowAllOrigins {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}

	return &WSHandler{
		log:      log,
		hub:      h,
		upgrader: upgrader,
	}
}

// Connect upgrades the request to a WebSocket session. Scopes come from
// the validated token claims, never from the client.
func (h *WSHandler) Connect(c *gin.Context) {
	userCode, err := h.GetStringValue(c, model.UserCodeKey)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ResponseWithMessage{
			Status:  StatusNotPermitted,
			Message: "no data about the user",
		})

		return
	}

	rawSubeIDs, err := h.GetStringValue(c, model.UserSubeIDsKey)
	if err != nil {
		rawSubeIDs = ""
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade connection",
			zap.String("user_code", userCode),
			zap.Error(err),
		)

		return
	}

	identity := hub.Identity{
		UserCode: userCode,
		SubeIDs:  model.ParseSubeIDs(rawSubeIDs),
	}

	client := h.hub.HandleConnection(conn, identity)

	h.log.Info("WebSocket session opened",
		zap.String("user_code", userCode),
		zap.String("connection_id", client.ID().String()),
		zap.Int64s("sube_ids", identity.SubeIDs),
	)
}
