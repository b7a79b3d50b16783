package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"smart-todo/internal/model"
	"smart-todo/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	StartTime      string `json:"start_time"`
	Location       string `json:"location"`
	Duration       string `json:"duration"`
	Notes          string `json:"notes"`
	ShowOnHomepage bool   `json:"show_on_homepage"`
	ReminderTimes  []int  `json:"reminder_times"`
}

// TaskPatch carries an edit; nil fields are left untouched.
type TaskPatch struct {
	Name           *string           `json:"name"`
	Description    *string           `json:"description"`
	StartTime      *string           `json:"start_time"`
	Location       *string           `json:"location"`
	Duration       *string           `json:"duration"`
	Notes          *string           `json:"notes"`
	ShowOnHomepage *bool             `json:"show_on_homepage"`
	ReminderTimes  []int             `json:"reminder_times"`
	Status         *model.TaskStatus `json:"status"`
	CompletionRate *float64          `json:"completion_rate"`
}

// StatsDays is the length of the daily completion series.
const StatsDays = 7

// Stats summarises a user's tasks. Dates and Rates hold the average completion rate of
// tasks created on each of the last StatsDays days, oldest first.
type Stats struct {
	Total             int       `json:"total_tasks"`
	Completed         int       `json:"completed_tasks"`
	InProgress        int       `json:"in_progress_tasks"`
	Pending           int       `json:"pending_tasks"`
	AvgCompletionRate float64   `json:"avg_completion_rate"`
	Dates             []string  `json:"dates"`
	Rates             []float64 `json:"rates"`
}

// TaskService wraps task-related business logic. Every read goes through the reminder
// service so returned statuses are never stale.
type TaskService struct {
	tasks     TaskStore
	reminders *ReminderService
	defaults  ReminderDefaults
	clock     Clock
	loc       *time.Location
	log       *logrus.Entry
}

func NewTaskService(tasks TaskStore, reminders *ReminderService, defaults ReminderDefaults, clock Clock, loc *time.Location, log *logrus.Entry) *TaskService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{tasks: tasks, reminders: reminders, defaults: defaults, clock: clock, loc: loc, log: log}
}

func (s *TaskService) CreateTask(ctx context.Context, userID uint, input TaskInput) (*model.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	start, err := validateStartTime(input.StartTime, s.loc)
	if err != nil {
		return nil, err
	}

	status, _ := DeriveStatus(start, s.clock(), "", s.loc)
	task := model.Task{
		UserID:         userID,
		Name:           name,
		Description:    input.Description,
		StartTime:      start,
		Location:       input.Location,
		Duration:       input.Duration,
		Notes:          input.Notes,
		Status:         status,
		ReminderTimes:  s.reminderTimes(ctx, input.ReminderTimes),
		SentReminders:  model.Offsets{},
		ShowOnHomepage: input.ShowOnHomepage,
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"task_id": task.ID, "user_id": userID, "status": task.Status}).Info("task created")
	return &task, nil
}

// GetTask returns a task visible to viewerID: their own, or any task shown on the homepage.
func (s *TaskService) GetTask(ctx context.Context, viewerID, taskID uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != viewerID && !task.ShowOnHomepage {
		return nil, ErrForbidden
	}
	return s.refresh(ctx, *task), nil
}

// ListTasks returns the user's tasks oldest first with freshly derived statuses.
func (s *TaskService) ListTasks(ctx context.Context, userID uint) ([]model.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i] = *s.refresh(ctx, tasks[i])
	}
	return tasks, nil
}

// refresh reconciles a scheduled task. A failure is logged and the stored copy returned,
// so one bad task never breaks a listing.
func (s *TaskService) refresh(ctx context.Context, task model.Task) *model.Task {
	if !task.Scheduled() {
		return &task
	}
	fresh, err := s.reminders.Reconcile(ctx, task.ID)
	if err != nil {
		s.log.WithError(err).WithField("task_id", task.ID).Warn("reconcile task on read")
		return &task
	}
	return fresh
}

// EditTask applies a patch from the owner. Status and completion rate of a pending task
// cannot be changed, and a completion rate is only accepted for completed tasks.
func (s *TaskService) EditTask(ctx context.Context, userID, taskID uint, patch TaskPatch) (*model.Task, error) {
	var start string
	if patch.StartTime != nil {
		v, err := validateStartTime(*patch.StartTime, s.loc)
		if err != nil {
			return nil, err
		}
		start = v
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *patch.Status)
	}
	if patch.CompletionRate != nil && (*patch.CompletionRate < 0 || *patch.CompletionRate > 100) {
		return nil, fmt.Errorf("%w: completion rate must be between 0 and 100", ErrInvalidInput)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	var reminderTimes model.Offsets
	if patch.ReminderTimes != nil {
		reminderTimes = s.reminderTimes(ctx, patch.ReminderTimes)
	}

	unlock, err := s.reminders.locker.Lock(ctx, taskLockKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("lock task %d: %w", taskID, err)
	}
	found, err := s.tasks.Update(ctx, taskID, func(t *model.Task) error {
		if t.UserID != userID {
			return ErrForbidden
		}
		applyPatch(t, patch, start, reminderTimes)
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, repository.ErrNotFound
	}

	s.log.WithFields(logrus.Fields{"task_id": taskID, "user_id": userID}).Info("task updated")
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, *task), nil
}

func applyPatch(t *model.Task, p TaskPatch, start string, reminderTimes model.Offsets) {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.StartTime != nil {
		// Sent offsets survive a reschedule.
		t.StartTime = start
	}
	if p.Location != nil {
		t.Location = *p.Location
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.ShowOnHomepage != nil {
		t.ShowOnHomepage = *p.ShowOnHomepage
	}
	if reminderTimes != nil {
		t.ReminderTimes = reminderTimes
	}

	if t.Status == model.StatusPending {
		return
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.CompletionRate != nil && t.Status == model.StatusCompleted {
		t.CompletionRate = *p.CompletionRate
	}
}

// CompleteTask marks a started task as completed with the given rate.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID uint, rate float64) (*model.Task, error) {
	current, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, ErrForbidden
	}
	if current.Status == model.StatusPending {
		return nil, fmt.Errorf("%w: task has not started yet", ErrInvalidInput)
	}
	status := model.StatusCompleted
	return s.EditTask(ctx, userID, taskID, TaskPatch{Status: &status, CompletionRate: &rate})
}

// DeleteTask removes a task owned by userID. Sent reminders go with it.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	unlock, err := s.reminders.locker.Lock(ctx, taskLockKey(taskID))
	if err != nil {
		return fmt.Errorf("lock task %d: %w", taskID, err)
	}
	defer unlock()

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.UserID != userID {
		return ErrForbidden
	}
	if _, err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"task_id": taskID, "user_id": userID}).Info("task deleted")
	return nil
}

func (s *TaskService) Stats(ctx context.Context, userID uint) (Stats, error) {
	tasks, err := s.ListTasks(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(tasks)}
	var sum float64
	byDay := make(map[string][]float64)
	for _, t := range tasks {
		day := t.CreatedAt.In(s.loc).Format(time.DateOnly)
		byDay[day] = append(byDay[day], t.CompletionRate)
		switch t.Status {
		case model.StatusCompleted:
			st.Completed++
		case model.StatusInProgress:
			st.InProgress++
		case model.StatusPending:
			st.Pending++
		}
		sum += t.CompletionRate
	}
	if st.Total > 0 {
		st.AvgCompletionRate = round1(sum / float64(st.Total))
	}

	today := s.clock().In(s.loc)
	for i := StatsDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(time.DateOnly)
		var rate float64
		if rates := byDay[day]; len(rates) > 0 {
			var total float64
			for _, r := range rates {
				total += r
			}
			rate = round1(total / float64(len(rates)))
		}
		st.Dates = append(st.Dates, day)
		st.Rates = append(st.Rates, rate)
	}
	return st, nil
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// reminderTimes normalizes user offsets and falls back to the global defaults.
func (s *TaskService) reminderTimes(ctx context.Context, times []int) model.Offsets {
	if set := model.Offsets(times).Normalize(); len(set) > 0 {
		return set
	}
	return model.Offsets(s.defaults.DefaultReminderTimes(ctx)).Normalize()
}

func validateStartTime(raw string, loc *time.Location) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if _, err := ParseStartTime(raw, loc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return raw, nil
}

// ParseOffsets parses a comma separated list of minutes as typed by a user. Anything that
// is not a plain positive number is ignored and duplicates collapse.
func ParseOffsets(raw string) []int {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.TrimLeft(part, "0123456789") != "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}
	return model.Offsets(out).Normalize()
}

// IsNotFound reports errors a caller should surface as a missing task.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrForbidden)
}
