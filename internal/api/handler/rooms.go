package handler

import (
	"net/http"
	"strconv"

	"blogchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
)

// ListRooms returns the active open chat rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Storage.ListActiveRooms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoomMessages returns the recent history window for a room along with
// its current member count, for clients rendering a room preview before
// opening a socket.
func (h *Handler) GetRoomMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	roomKey := chathub.RoomKey(roomID)
	messages, err := h.Hub.Coordinator.GetMessages(c.Request.Context(), roomKey, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}
	activeUsers, err := h.Hub.Coordinator.GetActiveUsers(c.Request.Context(), roomKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load room state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomId":      roomID,
		"activeUsers": activeUsers,
		"messages":    messages,
	})
}
