package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogchat/backend/internal/api/handler"
	"blogchat/backend/internal/chathub"
	"blogchat/backend/internal/config"
	"blogchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) IsRoomActive(ctx context.Context, roomID int64) (bool, error) {
	args := m.Called(roomID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) GetRoomByID(ctx context.Context, roomID int64) (*models.ChatRoom, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatRoom), args.Error(1)
}

func (m *MockStorage) ListActiveRooms(ctx context.Context) ([]models.ChatRoom, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatRoom), args.Error(1)
}

func (m *MockStorage) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	args := m.Called(room)
	return args.Error(0)
}

func (m *MockStorage) SetRoomActive(ctx context.Context, roomID int64, active bool) error {
	args := m.Called(roomID, active)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestServer(t *testing.T, store *MockStorage) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	coordinator := chathub.NewCoordinator(
		chathub.NewMemoryPresence(),
		chathub.NewMemoryBuffer(config.MessageBufferCap),
		store,
	)
	hub := chathub.NewHub(coordinator)
	go hub.Run()

	h := handler.NewHandler(hub, store, testSecret)
	r := gin.New()
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/chat/rooms", h.ListRooms)
	r.GET("/chat/rooms/:id/messages", h.GetRoomMessages)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, userID int64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestServeWebSocket_RejectsMissingToken(t *testing.T) {
	srv := newTestServer(t, new(MockStorage))

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWebSocket_RejectsInvalidToken(t *testing.T) {
	srv := newTestServer(t, new(MockStorage))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ws", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWebSocket_RejectsUnknownUser(t *testing.T) {
	store := new(MockStorage)
	store.On("GetUserByID", int64(42)).Return(nil, assert.AnError)
	srv := newTestServer(t, store)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ws", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, 42))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWebSocket_JoinRoundTrip(t *testing.T) {
	store := new(MockStorage)
	store.On("GetUserByID", int64(1)).Return(&models.User{
		ID: 1, UserCode: "USER0001", Name: "alice", Email: "alice@example.com", Provider: "local",
	}, nil)
	store.On("IsRoomActive", int64(1)).Return(true, nil)
	srv := newTestServer(t, store)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+signToken(t, 1))
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	err = conn.WriteJSON(models.ClientAction{Action: models.ActionJoinRoom, RoomID: 1})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event models.ServerEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, models.EventJoined, event.Event)
	assert.Equal(t, int64(1), event.RoomID)
	assert.Equal(t, 1, event.ActiveUsers)
}

func TestServeWebSocket_AcceptsQueryToken(t *testing.T) {
	store := new(MockStorage)
	store.On("GetUserByID", int64(1)).Return(&models.User{
		ID: 1, UserCode: "USER0001", Name: "alice", Email: "alice@example.com", Provider: "local",
	}, nil)
	srv := newTestServer(t, store)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+signToken(t, 1), nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	conn.Close()
}

func TestGetRoomMessages_InvalidID(t *testing.T) {
	srv := newTestServer(t, new(MockStorage))

	resp, err := http.Get(srv.URL + "/chat/rooms/abc/messages")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListRooms(t *testing.T) {
	store := new(MockStorage)
	store.On("ListActiveRooms").Return([]models.ChatRoom{
		{ID: 1, Title: "general", IsActive: true, CreatedBy: 1},
	}, nil)
	srv := newTestServer(t, store)

	resp, err := http.Get(srv.URL + "/chat/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Rooms []models.ChatRoom `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "general", body.Rooms[0].Title)
}
