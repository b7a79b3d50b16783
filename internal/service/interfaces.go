package service

import (
	"context"

	"smart-todo/internal/model"
)

// TaskStore is the task persistence the engine relies on.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	ListByUser(ctx context.Context, userID uint) ([]model.Task, error)
	ListScheduled(ctx context.Context) ([]model.Task, error)
	SaveVersioned(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, id uint, mutate func(*model.Task) error) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
}

// UserDirectory looks up task owners.
type UserDirectory interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// Notifier stores an in-app notification and returns its id.
type Notifier interface {
	Add(ctx context.Context, userID uint, title, content, kind string) (uint, error)
}

// Mailer sends a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Messenger pushes a chat message, e.g. over Telegram.
type Messenger interface {
	SendText(chatID int64, text string) error
}

// ReminderDefaults provides the globally configured reminder offsets.
type ReminderDefaults interface {
	DefaultReminderTimes(ctx context.Context) []int
}
