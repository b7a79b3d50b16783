package service

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"smart-todo/internal/lock"
	"smart-todo/internal/logger"
	"smart-todo/internal/model"
	"smart-todo/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent map[int64][]string
}

func (m *fakeMessenger) SendText(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = make(map[int64][]string)
	}
	m.sent[chatID] = append(m.sent[chatID], text)
	return nil
}

type staticDefaults []int

func (d staticDefaults) DefaultReminderTimes(context.Context) []int { return d }

// noLock lets concurrent reconciles race so only the version check protects them.
type noLock struct{}

func (noLock) Lock(context.Context, string) (func(), error) { return func() {}, nil }

var errBrokenMailer = errors.New("smtp down")

type fixture struct {
	ctx       context.Context
	clock     *fakeClock
	tasks     *repository.TaskRepository
	users     *repository.UserRepository
	notes     *repository.NotificationRepository
	mailer    *fakeMailer
	messenger *fakeMessenger
	reminders *ReminderService
	service   *TaskService
	settings  *SettingsService
	accounts  *AccountService
	user      *model.User
}

func newFixture(t *testing.T, locker lock.Locker) *fixture {
	t.Helper()
	db, err := repository.NewDB("sqlite", filepath.Join(t.TempDir(), "service.db"), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		ctx:       context.Background(),
		clock:     &fakeClock{now: evalNow},
		tasks:     repository.NewTaskRepository(db),
		users:     repository.NewUserRepository(db),
		notes:     repository.NewNotificationRepository(db),
		mailer:    &fakeMailer{},
		messenger: &fakeMessenger{},
	}
	f.user = &model.User{Username: "alice", Email: "alice@example.com", TelegramChatID: 42}
	if err := f.users.Create(f.ctx, f.user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	defaults := staticDefaults{30, 5}
	f.reminders = NewReminderService(ReminderDeps{
		Tasks:     f.tasks,
		Users:     f.users,
		Notifier:  f.notes,
		Mailer:    f.mailer,
		Messenger: f.messenger,
		Defaults:  defaults,
		Locker:    locker,
		Clock:     f.clock.Now,
		Location:  time.UTC,
		Log:       logger.Discard(),
	})
	f.service = NewTaskService(f.tasks, f.reminders, defaults, f.clock.Now, time.UTC, logger.Discard())
	f.settings = NewSettingsService(repository.NewSettingRepository(db), model.Setting{DefaultReminderTimes: model.Offsets{30, 5}}, logger.Discard())
	f.accounts = NewAccountService(f.users, f.notes, f.mailer, f.settings, f.clock.Now, logger.Discard())
	return f
}

// seed stores a task directly, bypassing validation.
func (f *fixture) seed(t *testing.T, task model.Task) *model.Task {
	t.Helper()
	if task.UserID == 0 {
		task.UserID = f.user.ID
	}
	if task.Name == "" {
		task.Name = "task"
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if err := f.tasks.Create(f.ctx, &task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return &task
}

func (f *fixture) reload(t *testing.T, id uint) *model.Task {
	t.Helper()
	task, err := f.tasks.FindByID(f.ctx, id)
	if err != nil {
		t.Fatalf("reload task %d: %v", id, err)
	}
	return task
}

func (f *fixture) notifications(t *testing.T) []model.Notification {
	t.Helper()
	page, err := f.notes.Page(f.ctx, f.user.ID, 1, 100)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return page.Notifications
}
