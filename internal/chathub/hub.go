package chathub

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"blogchat/backend/internal/config"
	"blogchat/backend/internal/models"
)

// validateTimeout bounds the room validity check so a stalled storage
// call fails one join attempt instead of hanging its connection forever.
const validateTimeout = 5 * time.Second

// InboundAction pairs a decoded client frame with the connection that
// issued it.
type InboundAction struct {
	Client Client
	Action models.ClientAction
}

// Hub owns the set of live connections and routes every inbound action
// through the Coordinator. All state changes happen on the single Run
// goroutine, so actions from one connection are processed in issuance
// order and the Clients map needs no locking.
type Hub struct {
	Clients map[string]Client // connID -> client

	RegisterCh   chan Client
	UnregisterCh chan Client
	ActionCh     chan InboundAction

	Coordinator *Coordinator
}

func NewHub(coordinator *Coordinator) *Hub {
	return &Hub{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		ActionCh:     make(chan InboundAction),
		Coordinator:  coordinator,
	}
}

// Run is the hub's main dispatch loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.RegisterCh:
			h.handleRegister(client)
		case client := <-h.UnregisterCh:
			h.handleUnregister(client)
		case in := <-h.ActionCh:
			h.handleAction(in)
		}
	}
}

func (h *Hub) handleRegister(client Client) {
	id := client.Identity()
	if old, ok := h.Clients[id.ConnID]; ok && old != client {
		old.Close()
	}
	h.Clients[id.ConnID] = client
	log.Printf("Client connected: %s (user %d %q)", id.ConnID, id.UserID, id.Nickname)
}

// handleUnregister tears the connection down: it leaves every occupied
// room in one step and tells the remaining participants per room.
func (h *Hub) handleUnregister(client Client) {
	id := client.Identity()
	if current, ok := h.Clients[id.ConnID]; !ok || current != client {
		return // already replaced or removed
	}
	delete(h.Clients, id.ConnID)

	ctx := context.Background()
	rooms, err := h.Coordinator.LeaveRoom(ctx, id.ConnID, "")
	if err != nil {
		log.Printf("ERROR: leave all rooms for %s: %v", id.ConnID, err)
	}
	for _, roomKey := range rooms {
		h.notifyUserLeft(ctx, roomKey, id)
	}

	client.Close()
	log.Printf("Client disconnected: %s", id.ConnID)
}

func (h *Hub) handleAction(in InboundAction) {
	switch in.Action.Action {
	case models.ActionJoinRoom:
		h.handleJoinRoom(in.Client, in.Action.RoomID)
	case models.ActionLeaveRoom:
		h.handleLeaveRoom(in.Client, in.Action.RoomID)
	case models.ActionMessage:
		h.handleMessage(in.Client, in.Action.RoomID, in.Action.Content)
	case models.ActionGetMessages:
		h.handleGetMessages(in.Client, in.Action.RoomID, in.Action.Limit)
	default:
		log.Printf("Unknown action %q from %s", in.Action.Action, in.Client.Identity().ConnID)
	}
}

func (h *Hub) handleJoinRoom(client Client, roomID int64) {
	id := client.Identity()

	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	valid, err := h.Coordinator.ValidateRoom(ctx, roomID)
	cancel()
	if err != nil {
		// A validator failure is not "room invalid"; it must stay visible
		// in the logs even though the client sees the same rejection.
		log.Printf("ERROR: room %d validation failed for %s: %v", roomID, id.ConnID, err)
		h.sendError(client, roomID, ErrRoomUnavailable)
		return
	}
	if !valid {
		h.sendError(client, roomID, ErrRoomUnavailable)
		return
	}

	ctx = context.Background()
	roomKey := RoomKey(roomID)
	result, err := h.Coordinator.JoinRoom(ctx, roomKey, Participant{
		ConnID:   id.ConnID,
		UserID:   id.UserID,
		UserCode: id.UserCode,
		Nickname: id.Nickname,
	})
	if err != nil {
		log.Printf("ERROR: join room %d for %s: %v", roomID, id.ConnID, err)
		h.sendError(client, roomID, err)
		return
	}

	h.sendTo(client, models.ServerEvent{
		Event:       models.EventJoined,
		RoomID:      result.RoomID,
		ActiveUsers: result.ActiveUsers,
	})
	h.broadcast(ctx, roomKey, models.ServerEvent{
		Event:       models.EventUserJoined,
		RoomID:      result.RoomID,
		UserID:      id.UserID,
		Nickname:    id.Nickname,
		ActiveUsers: result.ActiveUsers,
	}, id.ConnID)
}

func (h *Hub) handleLeaveRoom(client Client, roomID int64) {
	id := client.Identity()
	ctx := context.Background()

	if _, err := h.Coordinator.LeaveRoom(ctx, id.ConnID, RoomKey(roomID)); err != nil {
		log.Printf("ERROR: leave room %d for %s: %v", roomID, id.ConnID, err)
		return
	}
	h.notifyUserLeft(ctx, RoomKey(roomID), id)
}

func (h *Hub) handleMessage(client Client, roomID int64, content string) {
	id := client.Identity()

	content = strings.TrimSpace(content)
	if content == "" {
		h.sendError(client, roomID, ErrEmptyMessage)
		return
	}
	if utf8.RuneCountInString(content) > config.MaxMessageLength {
		h.sendError(client, roomID, ErrMessageTooLong)
		return
	}

	ctx := context.Background()
	roomKey := RoomKey(roomID)
	msg, err := h.Coordinator.SendMessage(ctx, roomKey, id, content)
	if err != nil {
		log.Printf("ERROR: send message to room %d from %s: %v", roomID, id.ConnID, err)
		h.sendError(client, roomID, err)
		return
	}

	// Everyone in the room gets the message, sender included.
	h.broadcast(ctx, roomKey, models.ServerEvent{
		Event:   models.EventMessage,
		RoomID:  roomID,
		Message: &msg,
	}, "")
}

func (h *Hub) handleGetMessages(client Client, roomID int64, limit int) {
	ctx := context.Background()
	msgs, err := h.Coordinator.GetMessages(ctx, RoomKey(roomID), limit)
	if err != nil {
		log.Printf("ERROR: get messages for room %d: %v", roomID, err)
		h.sendError(client, roomID, err)
		return
	}
	h.sendTo(client, models.ServerEvent{
		Event:    models.EventMessages,
		RoomID:   roomID,
		Messages: msgs,
	})
}

// notifyUserLeft broadcasts the updated member count after id left
// roomKey, and echoes the event to the leaver's own socket when it is
// still connected (an explicit leave, as opposed to a teardown).
func (h *Hub) notifyUserLeft(ctx context.Context, roomKey string, id models.Identity) {
	active, err := h.Coordinator.GetActiveUsers(ctx, roomKey)
	if err != nil {
		log.Printf("ERROR: active users for %s: %v", roomKey, err)
		return
	}
	roomID, err := RoomID(roomKey)
	if err != nil {
		log.Printf("ERROR: %v", err)
		return
	}

	event := models.ServerEvent{
		Event:       models.EventUserLeft,
		RoomID:      roomID,
		UserID:      id.UserID,
		Nickname:    id.Nickname,
		ActiveUsers: active,
	}
	h.broadcast(ctx, roomKey, event, "")
	if client, ok := h.Clients[id.ConnID]; ok {
		h.sendTo(client, event)
	}
}

// broadcast fans an event out to every connection in the room except
// excludeConnID. Fan-out targets come from the presence store, so the
// hub never keeps its own room membership.
func (h *Hub) broadcast(ctx context.Context, roomKey string, event models.ServerEvent, excludeConnID string) {
	conns, err := h.Coordinator.Connections(ctx, roomKey)
	if err != nil {
		log.Printf("ERROR: connections for %s: %v", roomKey, err)
		return
	}
	for _, connID := range conns {
		if connID == excludeConnID {
			continue
		}
		if client, ok := h.Clients[connID]; ok {
			h.sendTo(client, event)
		}
	}
}

// sendTo delivers an event without blocking the dispatch loop. A client
// whose buffer is full is torn down like a disconnect.
func (h *Hub) sendTo(client Client, event models.ServerEvent) {
	select {
	case client.Send() <- event:
	default:
		log.Printf("Client %s send buffer full, dropping connection", client.Identity().ConnID)
		h.handleUnregister(client)
	}
}

func (h *Hub) sendError(client Client, roomID int64, err error) {
	h.sendTo(client, models.ServerEvent{
		Event:  models.EventError,
		RoomID: roomID,
		Error:  err.Error(),
	})
}
