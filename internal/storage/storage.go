package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"blogchat/backend/internal/config"
	"blogchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrRoomNotFound is returned by room lookups that must distinguish a
// missing room from a storage failure.
var ErrRoomNotFound = errors.New("chat room not found")

// Storage is the read/write surface the realtime layer and the admin CLI
// use against persistent state.
type Storage interface {
	// IsRoomActive reports whether the room exists and is active. Both
	// "missing" and "inactive" are (false, nil); only a storage failure
	// returns an error.
	IsRoomActive(ctx context.Context, roomID int64) (bool, error)

	GetRoomByID(ctx context.Context, roomID int64) (*models.ChatRoom, error)
	ListActiveRooms(ctx context.Context) ([]models.ChatRoom, error)
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	SetRoomActive(ctx context.Context, roomID int64, active bool) error

	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Service implements Storage on PostgreSQL via GORM, with a small Redis
// cache in front of the room validity check since it sits on the hot
// join path. Redis may be nil; the cache is then skipped.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb}
}

func roomActiveCacheKey(roomID int64) string {
	return fmt.Sprintf("room:%d:active", roomID)
}

// IsRoomActive checks the cache first and falls back to the database.
// Cache errors are logged and ignored; only the database is authoritative.
func (s *Service) IsRoomActive(ctx context.Context, roomID int64) (bool, error) {
	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, roomActiveCacheKey(roomID)).Result()
		if err == nil {
			return cached == "1", nil
		}
		if !errors.Is(err, redis.Nil) {
			log.Printf("WARNING: room cache read for %d failed: %v", roomID, err)
		}
	}

	var count int64
	err := s.DB.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("id = ? AND is_active = ?", roomID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	active := count > 0

	if s.Redis != nil {
		value := "0"
		if active {
			value = "1"
		}
		if err := s.Redis.Set(ctx, roomActiveCacheKey(roomID), value, config.RoomCacheTTL).Err(); err != nil {
			log.Printf("WARNING: room cache write for %d failed: %v", roomID, err)
		}
	}
	return active, nil
}

func (s *Service) GetRoomByID(ctx context.Context, roomID int64) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := s.DB.WithContext(ctx).First(&room, roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Service) ListActiveRooms(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at desc").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Service) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	return s.DB.WithContext(ctx).Create(room).Error
}

// SetRoomActive flips the active flag and drops the cached validity so
// deactivation takes effect without waiting out the TTL.
func (s *Service) SetRoomActive(ctx context.Context, roomID int64, active bool) error {
	result := s.DB.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}

	if s.Redis != nil {
		if err := s.Redis.Del(ctx, roomActiveCacheKey(roomID)).Err(); err != nil {
			log.Printf("WARNING: room cache invalidation for %d failed: %v", roomID, err)
		}
	}
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
