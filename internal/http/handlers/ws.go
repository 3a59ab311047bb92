package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mineduel/internal/logger"
	"mineduel/internal/service"
	"mineduel/internal/ws"
)

// WS upgrades the request and runs the client. A valid ?token= binds the
// connection to that user id, otherwise the player gets a random id.
func (h *Handler) WS(allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		id := uuid.NewString()
		if token := c.Query("token"); token != "" && service.JWTEnabled() {
			userID, err := service.ParseJWT(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			id = strconv.FormatInt(userID, 10)
		}

		// WebSocket upgrade
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("ws upgrade error", "error", err)
			return
		}

		client := ws.NewClient(id, conn, h.Hub)
		go client.Run()
	}
}
