package models

import "time"

// ChatRoom is an open chat room created by an administrator.
// The realtime layer never creates or mutates rooms; it only checks the
// IsActive flag before letting a connection join.
type ChatRoom struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:100;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"not null;default:true" json:"isActive"`
	CreatedBy   int64  `gorm:"not null" json:"createdBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
