package storage_test

import (
	"context"
	"testing"

	"blogchat/backend/internal/models"
	"blogchat/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ChatRoom{}))
	return db
}

func seedRoom(t *testing.T, s *storage.Service, title string, active bool) *models.ChatRoom {
	t.Helper()
	room := &models.ChatRoom{Title: title, IsActive: active, CreatedBy: 1}
	require.NoError(t, s.CreateRoom(context.Background(), room))
	return room
}

func TestService_IsRoomActive(t *testing.T) {
	s := storage.NewStorageService(newTestDB(t), nil)
	ctx := context.Background()

	activeRoom := seedRoom(t, s, "general", true)
	inactiveRoom := seedRoom(t, s, "archived", false)

	active, err := s.IsRoomActive(ctx, activeRoom.ID)
	assert.NoError(t, err)
	assert.True(t, active)

	active, err = s.IsRoomActive(ctx, inactiveRoom.ID)
	assert.NoError(t, err)
	assert.False(t, active, "inactive room must not validate")

	active, err = s.IsRoomActive(ctx, 9999)
	assert.NoError(t, err)
	assert.False(t, active, "missing room must not validate")
}

func TestService_IsRoomActiveUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := storage.NewStorageService(newTestDB(t), rdb)
	ctx := context.Background()

	room := seedRoom(t, s, "general", true)

	active, err := s.IsRoomActive(ctx, room.ID)
	assert.NoError(t, err)
	assert.True(t, active)

	// Flip the flag behind the cache's back: the cached value wins until
	// the TTL runs out or the flag is changed through SetRoomActive.
	require.NoError(t, s.DB.Model(&models.ChatRoom{}).
		Where("id = ?", room.ID).
		Update("is_active", false).Error)

	active, err = s.IsRoomActive(ctx, room.ID)
	assert.NoError(t, err)
	assert.True(t, active, "stale cache entry is expected within the TTL")

	// SetRoomActive invalidates the cache entry.
	require.NoError(t, s.SetRoomActive(ctx, room.ID, false))
	active, err = s.IsRoomActive(ctx, room.ID)
	assert.NoError(t, err)
	assert.False(t, active)
}

func TestService_SetRoomActive(t *testing.T) {
	s := storage.NewStorageService(newTestDB(t), nil)
	ctx := context.Background()

	room := seedRoom(t, s, "general", true)

	assert.NoError(t, s.SetRoomActive(ctx, room.ID, false))
	active, _ := s.IsRoomActive(ctx, room.ID)
	assert.False(t, active)

	err := s.SetRoomActive(ctx, 9999, false)
	assert.ErrorIs(t, err, storage.ErrRoomNotFound)
}

func TestService_GetRoomByID(t *testing.T) {
	s := storage.NewStorageService(newTestDB(t), nil)
	ctx := context.Background()

	room := seedRoom(t, s, "general", true)

	got, err := s.GetRoomByID(ctx, room.ID)
	assert.NoError(t, err)
	assert.Equal(t, "general", got.Title)

	_, err = s.GetRoomByID(ctx, 9999)
	assert.ErrorIs(t, err, storage.ErrRoomNotFound)
}

func TestService_ListActiveRooms(t *testing.T) {
	s := storage.NewStorageService(newTestDB(t), nil)
	ctx := context.Background()

	seedRoom(t, s, "general", true)
	seedRoom(t, s, "random", true)
	seedRoom(t, s, "archived", false)

	rooms, err := s.ListActiveRooms(ctx)
	assert.NoError(t, err)
	assert.Len(t, rooms, 2)
	for _, room := range rooms {
		assert.True(t, room.IsActive)
	}
}

func TestService_GetUserByID(t *testing.T) {
	s := storage.NewStorageService(newTestDB(t), nil)
	ctx := context.Background()

	user := &models.User{Email: "alice@example.com", Name: "alice", Provider: "local"}
	require.NoError(t, s.DB.Create(user).Error)

	got, err := s.GetUserByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Len(t, got.UserCode, 8, "user code is assigned on create")

	_, err = s.GetUserByID(ctx, 9999)
	assert.Error(t, err)
}
