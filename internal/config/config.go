package config

import "time"

const (
	// Chat history window
	MessageBufferCap    = 100
	DefaultHistoryLimit = 50

	// Message validation (transport boundary)
	MaxMessageLength = 1000

	// Room validity cache
	RoomCacheTTL = 30 * time.Second
)
