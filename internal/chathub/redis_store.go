package chathub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"blogchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// Redis-backed PresenceStore and MessageBuffer. Same contract as the
// in-memory variants, with state held in a shared Redis so another
// process can observe it. Every command is keyed under the "chat:"
// namespace.
//
// Layout per room:
//
//	chat:<roomKey>:conns    hash  connID -> participant JSON
//	chat:<roomKey>:users    hash  userID -> live connection count
//	chat:<roomKey>:messages list  message JSON, trimmed to capacity
//
// and per connection:
//
//	chat:conn:<connID>:rooms set  occupied roomKeys

const redisKeyPrefix = "chat:"

func roomConnsKey(roomKey string) string    { return redisKeyPrefix + roomKey + ":conns" }
func roomUsersKey(roomKey string) string    { return redisKeyPrefix + roomKey + ":users" }
func roomMessagesKey(roomKey string) string { return redisKeyPrefix + roomKey + ":messages" }
func connRoomsKey(connID string) string     { return redisKeyPrefix + "conn:" + connID + ":rooms" }

// RedisPresence implements PresenceStore on go-redis.
type RedisPresence struct {
	client *redis.Client
}

func NewRedisPresence(client *redis.Client) *RedisPresence {
	return &RedisPresence{client: client}
}

func (s *RedisPresence) Join(ctx context.Context, roomKey string, p Participant) (int, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("encode participant: %w", err)
	}

	added, err := s.client.HSetNX(ctx, roomConnsKey(roomKey), p.ConnID, payload).Result()
	if err != nil {
		return 0, err
	}
	if added {
		userField := strconv.FormatInt(p.UserID, 10)
		if err := s.client.HIncrBy(ctx, roomUsersKey(roomKey), userField, 1).Err(); err != nil {
			return 0, err
		}
	}
	if err := s.client.SAdd(ctx, connRoomsKey(p.ConnID), roomKey).Err(); err != nil {
		return 0, err
	}

	count, err := s.client.HLen(ctx, roomUsersKey(roomKey)).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *RedisPresence) Leave(ctx context.Context, connID, roomKey string) ([]string, error) {
	if roomKey != "" {
		if err := s.removeConn(ctx, connID, roomKey); err != nil {
			return nil, err
		}
		if err := s.client.SRem(ctx, connRoomsKey(connID), roomKey).Err(); err != nil {
			return nil, err
		}
		return []string{roomKey}, nil
	}

	rooms, err := s.client.SMembers(ctx, connRoomsKey(connID)).Result()
	if err != nil {
		return nil, err
	}
	for _, rk := range rooms {
		if err := s.removeConn(ctx, connID, rk); err != nil {
			return nil, err
		}
	}
	if err := s.client.Del(ctx, connRoomsKey(connID)).Err(); err != nil {
		return nil, err
	}
	sort.Strings(rooms)
	return rooms, nil
}

// removeConn drops one connection from a room and releases its user's
// membership count when it was the user's last connection there.
func (s *RedisPresence) removeConn(ctx context.Context, connID, roomKey string) error {
	payload, err := s.client.HGet(ctx, roomConnsKey(roomKey), connID).Result()
	if err == redis.Nil {
		return nil // never joined, safe no-op
	}
	if err != nil {
		return err
	}

	var p Participant
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("decode participant: %w", err)
	}

	if err := s.client.HDel(ctx, roomConnsKey(roomKey), connID).Err(); err != nil {
		return err
	}
	userField := strconv.FormatInt(p.UserID, 10)
	left, err := s.client.HIncrBy(ctx, roomUsersKey(roomKey), userField, -1).Result()
	if err != nil {
		return err
	}
	if left <= 0 {
		if err := s.client.HDel(ctx, roomUsersKey(roomKey), userField).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisPresence) ActiveUsers(ctx context.Context, roomKey string) (int, error) {
	count, err := s.client.HLen(ctx, roomUsersKey(roomKey)).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *RedisPresence) Connections(ctx context.Context, roomKey string) ([]string, error) {
	conns, err := s.client.HKeys(ctx, roomConnsKey(roomKey)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(conns)
	return conns, nil
}

// RedisBuffer implements MessageBuffer on a Redis list per room, trimmed
// to capacity on every append and expired after the retention window.
type RedisBuffer struct {
	client    *redis.Client
	cap       int
	retention time.Duration
}

func NewRedisBuffer(client *redis.Client, capacity int, retention time.Duration) *RedisBuffer {
	return &RedisBuffer{client: client, cap: capacity, retention: retention}
}

func (b *RedisBuffer) Append(ctx context.Context, roomKey string, msg models.ChatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	key := roomMessagesKey(roomKey)
	pipe := b.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-b.cap), -1)
	if b.retention > 0 {
		pipe.Expire(ctx, key, b.retention)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (b *RedisBuffer) Recent(ctx context.Context, roomKey string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return []models.ChatMessage{}, nil
	}

	raw, err := b.client.LRange(ctx, roomMessagesKey(roomKey), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}
