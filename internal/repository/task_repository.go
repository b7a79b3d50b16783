package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smart-todo/internal/model"
)

// maxUpdateAttempts bounds the retry loop of Update when concurrent writers race.
const maxUpdateAttempts = 3

// mutableTaskColumns are written by SaveVersioned. id, user_id and created_at never change.
var mutableTaskColumns = []string{
	"name", "description", "start_time", "location", "duration", "notes",
	"status", "completion_rate", "reminder_times", "sent_reminders",
	"show_on_homepage", "version", "updated_at",
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.Version == 0 {
		task.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, id).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListScheduled returns every task, of every user, that has a start time.
func (r *TaskRepository) ListScheduled(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("start_time <> ''").Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list scheduled tasks: %w", err)
	}
	return tasks, nil
}

// SaveVersioned writes the mutable columns of task if the stored version still equals
// task.Version. On success task.Version is incremented.
func (r *TaskRepository) SaveVersioned(ctx context.Context, task *model.Task) error {
	next := *task
	next.ID = 0
	next.Version = task.Version + 1
	next.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Select(mutableTaskColumns).
		Updates(&next)
	if res.Error != nil {
		return fmt.Errorf("save task %d: %w", task.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, task.ID); err != nil {
			return err
		}
		return ErrConflict
	}
	task.Version = next.Version
	task.UpdatedAt = next.UpdatedAt
	return nil
}

// Update merges changes into a stored task. mutate is re-applied to a fresh copy when a
// concurrent writer wins the version check. It reports false when the task does not exist.
func (r *TaskRepository) Update(ctx context.Context, id uint, mutate func(*model.Task) error) (bool, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		task, err := r.FindByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if err := mutate(task); err != nil {
			return true, err
		}
		err = r.SaveVersioned(ctx, task)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, ErrNotFound):
			return false, nil
		case errors.Is(err, ErrConflict):
			continue
		default:
			return true, err
		}
	}
	return true, fmt.Errorf("update task %d: %w", id, ErrConflict)
}

// Delete removes a task. It reports false when nothing was deleted.
func (r *TaskRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Task{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
