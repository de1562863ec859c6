package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocomet/trip-dispatch/pkg/logger"
	"github.com/gocomet/trip-dispatch/pkg/websocket"
	gorilla "github.com/gorilla/websocket"
)

// HandleWebSocket handles GET /v1/ws. The caller's identity comes from
// the same trusted gateway headers as the REST surface.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	actor, ok := identity(c)
	if !ok {
		badRequest(c, "An identity is required")
		return
	}

	upgrader := gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := websocket.NewClient(h.Hub, conn, actor.ID.String(), actor.Role, h.Logger)
	h.Hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
