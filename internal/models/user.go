package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account in the blog/social service.
// Accounts are created through the auth flow (local or OAuth); the chat
// subsystem only reads them to resolve a connection identity.
type User struct {
	ID              int64  `gorm:"primaryKey" json:"id"`
	Email           string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	UserCode        string `gorm:"size:8;uniqueIndex;not null" json:"userCode"`
	Name            string `gorm:"size:255;not null" json:"name"`
	ProfileImageURL string `gorm:"size:255" json:"profileImageUrl"`
	Password        string `gorm:"size:255" json:"-"`
	Provider        string `gorm:"size:50;not null" json:"provider"`
	Role            string `gorm:"size:20;not null;default:user" json:"role"`
	Bio             string `gorm:"type:text" json:"bio"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate is a GORM hook that assigns a public 8-character user code
// when one has not been set. The code is shown instead of the numeric ID.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.UserCode == "" {
		raw := strings.ReplaceAll(uuid.New().String(), "-", "")
		u.UserCode = strings.ToUpper(raw[:8])
	}
	return
}
