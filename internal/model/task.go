package model

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task represents a single item in the planner.
type Task struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index" json:"user_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	// StartTime is ISO-8601, empty when the task is unscheduled.
	StartTime      string     `json:"start_time,omitempty"`
	Location       string     `json:"location,omitempty"`
	Duration       string     `json:"duration,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	Status         TaskStatus `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	CompletionRate float64    `gorm:"default:0" json:"completion_rate"`
	ReminderTimes  Offsets    `gorm:"serializer:json" json:"reminder_times"`
	SentReminders  Offsets    `gorm:"serializer:json" json:"sent_reminders"`
	ShowOnHomepage bool       `gorm:"default:false" json:"show_on_homepage"`
	Version        uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Scheduled reports whether the task carries a start time.
func (t Task) Scheduled() bool {
	return t.StartTime != ""
}
