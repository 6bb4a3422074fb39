package chathub

import (
	"context"
	"sync"

	"blogchat/backend/internal/models"
)

// MessageBuffer holds the most recent messages per room for replay to
// newly joined or reconnecting clients. Messages beyond the capacity are
// evicted oldest-first; durability past that window is out of scope.
type MessageBuffer interface {
	// Append stores msg at the end of the room's history.
	Append(ctx context.Context, roomKey string, msg models.ChatMessage) error

	// Recent returns the last limit messages in chronological order.
	// An unknown room yields an empty slice, never an error.
	Recent(ctx context.Context, roomKey string, limit int) ([]models.ChatMessage, error)
}

// MemoryBuffer is the in-process MessageBuffer.
type MemoryBuffer struct {
	mu       sync.RWMutex
	cap      int
	messages map[string][]models.ChatMessage
}

func NewMemoryBuffer(capacity int) *MemoryBuffer {
	return &MemoryBuffer{
		cap:      capacity,
		messages: make(map[string][]models.ChatMessage),
	}
}

func (b *MemoryBuffer) Append(_ context.Context, roomKey string, msg models.ChatMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := append(b.messages[roomKey], msg)
	if len(list) > b.cap {
		// Reallocate so the evicted prefix does not pin the old array.
		list = append([]models.ChatMessage(nil), list[len(list)-b.cap:]...)
	}
	b.messages[roomKey] = list
	return nil
}

func (b *MemoryBuffer) Recent(_ context.Context, roomKey string, limit int) ([]models.ChatMessage, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := b.messages[roomKey]
	if limit < 0 {
		limit = 0
	}
	if limit > len(list) {
		limit = len(list)
	}
	out := make([]models.ChatMessage, limit)
	copy(out, list[len(list)-limit:])
	return out, nil
}
