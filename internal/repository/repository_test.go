package repository

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"reflect"
	"testing"

	"gorm.io/gorm"

	"smart-todo/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB("sqlite", filepath.Join(t.TempDir(), "test.db"), log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	task := &model.Task{
		UserID:        7,
		Name:          "standup",
		StartTime:     "2030-01-02T09:00:00Z",
		Status:        model.StatusPending,
		ReminderTimes: model.Offsets{30, 5},
	}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == 0 || task.Version != 1 {
		t.Fatalf("unexpected id/version: %d/%d", task.ID, task.Version)
	}

	got, err := repo.FindByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !reflect.DeepEqual(got.ReminderTimes, model.Offsets{30, 5}) {
		t.Fatalf("reminder times = %v", got.ReminderTimes)
	}
	if len(got.SentReminders) != 0 {
		t.Fatalf("sent reminders = %v", got.SentReminders)
	}

	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskRepositorySaveVersionedDetectsConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	task := &model.Task{UserID: 1, Name: "a", StartTime: "2030-01-02T09:00:00", Status: model.StatusPending}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, _ := repo.FindByID(ctx, task.ID)
	second, _ := repo.FindByID(ctx, task.ID)

	first.SentReminders = first.SentReminders.With(30)
	if err := repo.SaveVersioned(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("version = %d; want 2", first.Version)
	}

	second.SentReminders = second.SentReminders.With(30)
	if err := repo.SaveVersioned(ctx, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, _ := repo.FindByID(ctx, task.ID)
	if !reflect.DeepEqual(stored.SentReminders, model.Offsets{30}) {
		t.Fatalf("sent reminders = %v", stored.SentReminders)
	}
}

func TestTaskRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	task := &model.Task{UserID: 1, Name: "a", Status: model.StatusPending}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := repo.Update(ctx, task.ID, func(task *model.Task) error {
		task.Status = model.StatusInProgress
		return nil
	})
	if err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	got, _ := repo.FindByID(ctx, task.ID)
	if got.Status != model.StatusInProgress {
		t.Fatalf("status = %s", got.Status)
	}

	ok, err = repo.Update(ctx, 12345, func(*model.Task) error { return nil })
	if err != nil || ok {
		t.Fatalf("update missing: ok=%v err=%v", ok, err)
	}

	deleted, err := repo.Delete(ctx, task.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: %v %v", deleted, err)
	}
	if _, err := repo.FindByID(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTaskRepositoryListScheduled(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	for _, start := range []string{"", "2030-01-01T10:00:00", "garbage"} {
		if err := repo.Create(ctx, &model.Task{UserID: 1, Name: "t", StartTime: start}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	tasks, err := repo.ListScheduled(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d scheduled tasks; want 2", len(tasks))
	}
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(openTestDB(t))

	id, err := repo.Add(ctx, 3, "Task starting soon", "body", model.NotificationReminder)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if n, _ := repo.CountUnread(ctx, 3); n != 1 {
		t.Fatalf("unread = %d; want 1", n)
	}
	if err := repo.MarkRead(ctx, 4, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign user must not mark read, got %v", err)
	}
	if err := repo.MarkRead(ctx, 3, id); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n, _ := repo.CountUnread(ctx, 3); n != 0 {
		t.Fatalf("unread = %d; want 0", n)
	}
}

func TestNotificationRepositoryPage(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(openTestDB(t))

	var ids []uint
	for i := 0; i < 5; i++ {
		id, err := repo.Add(ctx, 3, "Notice", "body", model.NotificationSystem)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids = append(ids, id)
	}

	first, err := repo.Page(ctx, 3, 1, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if first.Total != 5 || first.TotalPages != 3 || first.HasPrev || !first.HasNext {
		t.Fatalf("page 1 = %+v", first)
	}
	if len(first.Notifications) != 2 || first.Notifications[0].ID != ids[4] {
		t.Fatalf("page 1 items = %+v", first.Notifications)
	}

	last, err := repo.Page(ctx, 3, 9, 2)
	if err != nil {
		t.Fatalf("page 9: %v", err)
	}
	if last.Page != 3 || !last.HasPrev || last.HasNext || len(last.Notifications) != 1 || last.Notifications[0].ID != ids[0] {
		t.Fatalf("clamped last page = %+v", last)
	}

	if p, _ := repo.Page(ctx, 3, 0, 2); p.Page != 1 {
		t.Fatalf("page 0 clamped to %d", p.Page)
	}
	empty, err := repo.Page(ctx, 99, 2, 0)
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if empty.Total != 0 || empty.TotalPages != 0 || empty.PerPage != 20 || len(empty.Notifications) != 0 {
		t.Fatalf("empty page = %+v", empty)
	}
}

func TestSettingRepositorySeedsDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepository(openTestDB(t))

	s, err := repo.Load(ctx, model.Setting{DefaultReminderTimes: model.Offsets{30, 5}, MailPort: 587})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.EmailVerificationEnabled = true
	s.DefaultReminderTimes = model.Offsets{60}
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, err := repo.Load(ctx, model.Setting{DefaultReminderTimes: model.Offsets{30, 5}})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !again.EmailVerificationEnabled || !reflect.DeepEqual(again.DefaultReminderTimes, model.Offsets{60}) {
		t.Fatalf("settings not persisted: %+v", again)
	}
}

func TestUserRepositoryLinkTelegram(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	u := &model.User{Username: "ann", Email: "ann@example.com", TelegramUsername: "ann_tg"}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.LinkTelegram(ctx, "nobody", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.LinkTelegram(ctx, "ann_tg", 4242); err != nil {
		t.Fatalf("link: %v", err)
	}
	got, err := repo.FindByTelegramChatID(ctx, 4242)
	if err != nil || got.ID != u.ID {
		t.Fatalf("find by chat: %+v %v", got, err)
	}
}

func TestOffsetsNormalize(t *testing.T) {
	got := model.Offsets{5, 30, 0, -3, 30, 15}.Normalize()
	if !reflect.DeepEqual(got, model.Offsets{30, 15, 5}) {
		t.Fatalf("Normalize = %v", got)
	}
}
