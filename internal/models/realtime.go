package models

// Identity is the resolved owner of one live connection. It is attached by
// the transport layer after token verification and user lookup; the chat
// core never authenticates by itself.
type Identity struct {
	ConnID   string
	UserID   int64
	UserCode string
	Nickname string
}

// ChatMessage is one message held in the per-room history window.
// It is immutable once created and carries a second-precision timestamp
// formatted as "2006-01-02 15:04:05" (UTC, no offset suffix).
type ChatMessage struct {
	ID        string `json:"id"`
	RoomID    int64  `json:"roomId"`
	UserID    int64  `json:"userId"`
	UserCode  string `json:"userCode"`
	Nickname  string `json:"nickname"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Client action names accepted on the wire.
const (
	ActionJoinRoom    = "joinRoom"
	ActionLeaveRoom   = "leaveRoom"
	ActionMessage     = "message"
	ActionGetMessages = "getMessages"
)

// Server event names emitted on the wire.
const (
	EventJoined     = "joined"
	EventUserJoined = "userJoined"
	EventUserLeft   = "userLeft"
	EventMessage    = "message"
	EventMessages   = "messages"
	EventError      = "error"
)

// ClientAction is an inbound frame from a connected client.
type ClientAction struct {
	Action  string `json:"action"`
	RoomID  int64  `json:"roomId"`
	Content string `json:"content,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// ServerEvent is an outbound frame. Fields are populated depending on
// Event; unset fields are omitted from the JSON encoding.
type ServerEvent struct {
	Event       string        `json:"event"`
	RoomID      int64         `json:"roomId,omitempty"`
	UserID      int64         `json:"userId,omitempty"`
	Nickname    string        `json:"nickname,omitempty"`
	ActiveUsers int           `json:"activeUsers,omitempty"`
	Message     *ChatMessage  `json:"message,omitempty"`
	Messages    []ChatMessage `json:"messages,omitempty"`
	Error       string        `json:"error,omitempty"`
}
