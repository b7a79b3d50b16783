package model

import "time"

// User is the account a task belongs to. Registration and credentials are handled elsewhere.
type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Username         string    `gorm:"uniqueIndex" json:"username"`
	Email            string    `json:"email"`
	Verified         bool      `gorm:"default:false" json:"verified"`
	IsAdmin          bool      `gorm:"default:false" json:"is_admin"`
	TelegramUsername string    `gorm:"index" json:"telegram_username,omitempty"`
	TelegramChatID   int64     `gorm:"index" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
