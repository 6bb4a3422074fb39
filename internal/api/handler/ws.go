package handler

import (
	"log"
	"net/http"

	"blogchat/backend/internal/chathub"
	"blogchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the reverse proxy in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket authenticates the request, resolves the user's identity
// and upgrades the connection. Any identity failure terminates the
// attempt before the connection reaches the hub.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	tokenString, err := bearerToken(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	userID, err := h.verifyToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Storage.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Connection error: user %d lookup failed: %v", userID, err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "사용자를 찾을 수 없습니다"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, models.Identity{
		ConnID:   uuid.New().String(),
		UserID:   user.ID,
		UserCode: user.UserCode,
		Nickname: user.Name,
	})

	h.Hub.RegisterCh <- client
	client.Run()
}
