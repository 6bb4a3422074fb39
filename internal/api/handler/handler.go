package handler

import (
	"blogchat/backend/internal/chathub"
	"blogchat/backend/internal/storage"
)

// Handler wires the HTTP surface to the chat hub and storage.
type Handler struct {
	Hub       *chathub.Hub
	Storage   storage.Storage
	JWTSecret []byte
}

func NewHandler(hub *chathub.Hub, s storage.Storage, jwtSecret []byte) *Handler {
	return &Handler{Hub: hub, Storage: s, JWTSecret: jwtSecret}
}
