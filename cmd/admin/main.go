package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"blogchat/backend/internal/models"
	"blogchat/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewStorageService(db, nil) // No redis needed for admin CLI
	ctx := context.Background()

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "create-room":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin create-room <creator_user_id> <title> [description]")
			os.Exit(1)
		}
		creatorID, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Invalid creator user id. Please provide an integer.")
			os.Exit(1)
		}
		room := &models.ChatRoom{
			Title:       os.Args[3],
			Description: strings.Join(os.Args[4:], " "),
			IsActive:    true,
			CreatedBy:   creatorID,
		}
		if err := storageSvc.CreateRoom(ctx, room); err != nil {
			log.Fatalf("Error creating room: %v", err)
		}
		fmt.Printf("Room %d (%s) created.\n", room.ID, room.Title)

	case "activate-room", "deactivate-room":
		if len(os.Args) != 3 {
			fmt.Printf("Usage: admin %s <room_id>\n", os.Args[1])
			os.Exit(1)
		}
		roomID, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Invalid room id. Please provide an integer.")
			os.Exit(1)
		}
		active := os.Args[1] == "activate-room"
		if err := storageSvc.SetRoomActive(ctx, roomID, active); err != nil {
			log.Fatalf("Error updating room: %v", err)
		}
		fmt.Printf("Room %d active=%v.\n", roomID, active)

	case "list-rooms":
		rooms, err := storageSvc.ListActiveRooms(ctx)
		if err != nil {
			log.Fatalf("Error listing rooms: %v", err)
		}
		for _, room := range rooms {
			fmt.Printf("%d\t%s\t%s\n", room.ID, room.Title, room.Description)
		}

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
