package chathub_test

import (
	"context"
	"sync"

	"blogchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockValidator is a testify mock for the RoomValidator contract.
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) IsRoomActive(ctx context.Context, roomID int64) (bool, error) {
	args := m.Called(roomID)
	return args.Bool(0), args.Error(1)
}

// MockClient is a channel-backed test double for the chathub.Client
// interface. It records nothing and never touches a real socket.
type MockClient struct {
	identity models.Identity
	RecvCh   chan models.ServerEvent

	closeOnce sync.Once
}

func newMockClient(connID string, userID int64, userCode, nickname string) *MockClient {
	return &MockClient{
		identity: models.Identity{
			ConnID:   connID,
			UserID:   userID,
			UserCode: userCode,
			Nickname: nickname,
		},
		// Buffered so the hub never sees a full client in tests.
		RecvCh: make(chan models.ServerEvent, 32),
	}
}

func (c *MockClient) Identity() models.Identity       { return c.identity }
func (c *MockClient) Send() chan<- models.ServerEvent { return c.RecvCh }
func (c *MockClient) Run()                            {}

func (c *MockClient) Close() {
	c.closeOnce.Do(func() {
		close(c.RecvCh)
	})
}

// drain returns the events received so far without blocking.
func (c *MockClient) drain() []models.ServerEvent {
	var events []models.ServerEvent
	for {
		select {
		case ev, ok := <-c.RecvCh:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}
