package chathub

import "blogchat/backend/internal/models"

// Client is the interface for one live, already-authenticated connection.
// It abstracts the underlying transport so the hub can manage connection
// types uniformly (the production client is a WebSocket; tests use a
// channel-backed fake).
type Client interface {
	// Identity returns the resolved identity attached at connection time.
	Identity() models.Identity

	// Send returns the channel the hub writes outbound events to.
	// It is a send-only channel.
	Send() chan<- models.ServerEvent

	// Run starts the client's read and write pumps.
	Run()

	// Close shuts down the client's connection and send channel. It is
	// safe to call more than once.
	Close()
}
