package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"blogchat/backend/internal/api/handler"
	"blogchat/backend/internal/chathub"
	"blogchat/backend/internal/config"
	"blogchat/backend/internal/models"
	"blogchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

// chatStores picks the presence/history backend. The in-memory stores are
// the default; CHAT_STORE=redis keeps the state in Redis so it survives a
// restart and can be shared.
func chatStores(rdb *redis.Client) (chathub.PresenceStore, chathub.MessageBuffer) {
	if os.Getenv("CHAT_STORE") == "redis" {
		log.Println("Using Redis-backed chat stores")
		return chathub.NewRedisPresence(rdb), chathub.NewRedisBuffer(rdb, config.MessageBufferCap, 24*time.Hour)
	}
	return chathub.NewMemoryPresence(), chathub.NewMemoryBuffer(config.MessageBufferCap)
}

func main() {
	log.Println("Starting BlogChat Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	jwtSecret := os.Getenv("JWT_ACCESS_TOKEN_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_ACCESS_TOKEN_SECRET is not set")
	}

	db, rdb := setupDependencies()
	store := storage.NewStorageService(db, rdb)

	presence, buffer := chatStores(rdb)
	coordinator := chathub.NewCoordinator(presence, buffer, store)
	hub := chathub.NewHub(coordinator)
	go hub.Run()

	r := gin.Default()
	h := handler.NewHandler(hub, store, []byte(jwtSecret))

	r.GET("/ws", h.ServeWebSocket)
	r.GET("/chat/rooms", h.ListRooms)
	r.GET("/chat/rooms/:id/messages", h.GetRoomMessages)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:    addr,
		Handler: r,
		// No ReadTimeout: it would kill long-lived WebSocket connections.
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
