package chathub

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blogchat/backend/internal/config"
	"blogchat/backend/internal/models"

	"github.com/google/uuid"
)

// Validation errors carry the exact client-facing reason strings; the
// transport sends them verbatim, so they are part of the wire contract.
var (
	ErrRoomUnavailable = errors.New("채팅방을 찾을 수 없거나 비활성화되었습니다")
	ErrEmptyMessage    = errors.New("메시지 내용을 입력해주세요")
	ErrMessageTooLong  = errors.New("메시지는 1000자를 초과할 수 없습니다")
)

// RoomValidator answers whether a room exists and is active. It is backed
// by persistent storage and may be slow or fail; a failed call is an
// error, never "room inactive".
type RoomValidator interface {
	IsRoomActive(ctx context.Context, roomID int64) (bool, error)
}

// RoomKey derives the presence/history key for a room id.
func RoomKey(roomID int64) string {
	return fmt.Sprintf("room:%d", roomID)
}

// RoomID parses a room key back into the numeric room id.
func RoomID(roomKey string) (int64, error) {
	raw, ok := strings.CutPrefix(roomKey, "room:")
	if !ok {
		return 0, fmt.Errorf("malformed room key %q", roomKey)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// JoinResult is what the transport broadcasts after a successful join.
type JoinResult struct {
	RoomID      int64
	ActiveUsers int
}

// Coordinator is the only component that mutates the PresenceStore and
// MessageBuffer. The transport layer calls it and fans the results out to
// the sockets in the affected room.
type Coordinator struct {
	presence  PresenceStore
	buffer    MessageBuffer
	validator RoomValidator
}

func NewCoordinator(p PresenceStore, b MessageBuffer, v RoomValidator) *Coordinator {
	return &Coordinator{presence: p, buffer: b, validator: v}
}

// ValidateRoom reports whether the room exists and is marked active.
// Missing and inactive both come back false; only a storage failure is an
// error, and it is passed through untouched so the caller can tell the
// two apart.
func (c *Coordinator) ValidateRoom(ctx context.Context, roomID int64) (bool, error) {
	return c.validator.IsRoomActive(ctx, roomID)
}

// JoinRoom registers the participant in the room. The caller must have
// confirmed ValidateRoom beforehand; this method does not re-validate.
// Membership is unbounded: open rooms have no capacity limit.
func (c *Coordinator) JoinRoom(ctx context.Context, roomKey string, p Participant) (JoinResult, error) {
	roomID, err := RoomID(roomKey)
	if err != nil {
		return JoinResult{}, err
	}
	active, err := c.presence.Join(ctx, roomKey, p)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{RoomID: roomID, ActiveUsers: active}, nil
}

// LeaveRoom removes the connection from roomKey, or from every occupied
// room when roomKey is empty (connection teardown). It returns the room
// keys the connection was removed from.
func (c *Coordinator) LeaveRoom(ctx context.Context, connID, roomKey string) ([]string, error) {
	return c.presence.Leave(ctx, connID, roomKey)
}

// SendMessage stores a new message in the room's history window and
// returns it. Content must already be trimmed and length-checked at the
// transport boundary.
func (c *Coordinator) SendMessage(ctx context.Context, roomKey string, sender models.Identity, content string) (models.ChatMessage, error) {
	roomID, err := RoomID(roomKey)
	if err != nil {
		return models.ChatMessage{}, err
	}
	msg := models.ChatMessage{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    sender.UserID,
		UserCode:  sender.UserCode,
		Nickname:  sender.Nickname,
		Content:   content,
		Timestamp: time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	if err := c.buffer.Append(ctx, roomKey, msg); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// GetActiveUsers returns the distinct user count for the room.
func (c *Coordinator) GetActiveUsers(ctx context.Context, roomKey string) (int, error) {
	return c.presence.ActiveUsers(ctx, roomKey)
}

// GetMessages returns up to limit recent messages in chronological order.
// A non-positive limit falls back to the default history size.
func (c *Coordinator) GetMessages(ctx context.Context, roomKey string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = config.DefaultHistoryLimit
	}
	return c.buffer.Recent(ctx, roomKey, limit)
}

// Connections exposes the room's live connection IDs for fan-out.
func (c *Coordinator) Connections(ctx context.Context, roomKey string) ([]string, error) {
	return c.presence.Connections(ctx, roomKey)
}
