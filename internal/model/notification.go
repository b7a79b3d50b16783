package model

import "time"

const (
	NotificationReminder = "reminder"
	NotificationSystem   = "system"
)

// Notification is an in-app message shown to a user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Kind      string    `gorm:"type:varchar(20);default:system" json:"type"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
