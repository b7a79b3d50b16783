package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"smart-todo/internal/lock"
	"smart-todo/internal/metrics"
	"smart-todo/internal/model"
	"smart-todo/internal/repository"
)

// ReminderDeps wires the collaborators of ReminderService.
type ReminderDeps struct {
	Tasks     TaskStore
	Users     UserDirectory
	Notifier  Notifier
	Mailer    Mailer
	Messenger Messenger
	Defaults  ReminderDefaults
	Locker    lock.Locker
	Clock     Clock
	Location  *time.Location
	Log       *logrus.Entry
}

// ReminderService keeps task status and reminders in step with the clock.
// Every read-modify-write of a task runs under the task's lock and is saved with a
// version check, so the scheduler and concurrent readers never send an offset twice.
type ReminderService struct {
	tasks     TaskStore
	users     UserDirectory
	notifier  Notifier
	mailer    Mailer
	messenger Messenger
	defaults  ReminderDefaults
	locker    lock.Locker
	clock     Clock
	loc       *time.Location
	log       *logrus.Entry
}

func NewReminderService(d ReminderDeps) *ReminderService {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Locker == nil {
		d.Locker = lock.NewLocal()
	}
	return &ReminderService{
		tasks:     d.Tasks,
		users:     d.Users,
		notifier:  d.Notifier,
		mailer:    d.Mailer,
		messenger: d.Messenger,
		defaults:  d.Defaults,
		locker:    d.Locker,
		clock:     d.Clock,
		loc:       d.Location,
		log:       d.Log,
	}
}

// SetMessenger attaches a chat channel after construction.
func (s *ReminderService) SetMessenger(m Messenger) {
	s.messenger = m
}

// CheckSummary describes one pass over all scheduled tasks.
type CheckSummary struct {
	Scanned int `json:"scanned"`
	Fired   int `json:"fired"`
	Failed  int `json:"failed"`
}

// Reconcile derives the task's status, fires at most one due reminder and persists the
// result before returning the task.
func (s *ReminderService) Reconcile(ctx context.Context, id uint) (*model.Task, error) {
	task, _, err := s.reconcile(ctx, id)
	return task, err
}

func (s *ReminderService) reconcile(ctx context.Context, id uint) (*model.Task, int, error) {
	unlock, err := s.locker.Lock(ctx, taskLockKey(id))
	if err != nil {
		return nil, 0, fmt.Errorf("lock task %d: %w", id, err)
	}
	defer unlock()

	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	now := s.clock()
	status, transitioned := DeriveStatus(task.StartTime, now, task.Status, s.loc)
	task.Status = status

	fired := 0
	if task.Scheduled() {
		d, err := Evaluate(*task, now, s.defaults.DefaultReminderTimes(ctx), s.loc)
		switch {
		case err != nil:
			s.log.WithError(err).WithField("task_id", id).Debug("skip reminders")
		default:
			if d.Fire > 0 {
				// Claim before delivery: a lost version race must not send twice.
				task.SentReminders = task.SentReminders.With(d.Fire)
				fired = d.Fire
			}
			if d.Start && task.Status == model.StatusPending {
				task.Status = model.StatusInProgress
				transitioned = true
			}
		}
	}

	if !transitioned && fired == 0 {
		return task, 0, nil
	}
	if err := s.tasks.SaveVersioned(ctx, task); err != nil {
		return nil, 0, fmt.Errorf("save task %d: %w", id, err)
	}

	if transitioned {
		metrics.StatusTransitions.WithLabelValues(string(task.Status)).Inc()
		s.log.WithFields(logrus.Fields{"task_id": id, "status": task.Status}).Info("task status updated")
	}
	if fired > 0 {
		metrics.RemindersFired.Inc()
		s.deliver(ctx, *task, fired)
	}
	return task, fired, nil
}

// CheckAll evaluates every scheduled task once. A failing task is logged and counted and
// never stops the pass; only failing to load the task list is returned as an error.
func (s *ReminderService) CheckAll(ctx context.Context, trigger string) (CheckSummary, error) {
	tasks, err := s.tasks.ListScheduled(ctx)
	if err != nil {
		return CheckSummary{}, fmt.Errorf("load tasks: %w", err)
	}
	metrics.ReminderPasses.WithLabelValues(trigger).Inc()

	now := s.clock()
	defaults := s.defaults.DefaultReminderTimes(ctx)
	sum := CheckSummary{Scanned: len(tasks)}

	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		fired, err := s.checkOne(ctx, t, now, defaults)
		if err != nil {
			sum.Failed++
			metrics.TaskEvaluationErrors.Inc()
			s.log.WithError(err).WithField("task_id", t.ID).Warn("evaluate task")
			continue
		}
		if fired > 0 {
			sum.Fired++
		}
	}

	s.log.WithFields(logrus.Fields{
		"trigger": trigger,
		"scanned": sum.Scanned,
		"fired":   sum.Fired,
		"failed":  sum.Failed,
	}).Info("reminder pass finished")
	return sum, nil
}

// checkOne evaluates the listed copy first and only takes the lock when there is work.
func (s *ReminderService) checkOne(ctx context.Context, t model.Task, now time.Time, defaults []int) (fired int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	d, err := Evaluate(t, now, defaults, s.loc)
	if err != nil {
		return 0, err
	}
	if _, transition := DeriveStatus(t.StartTime, now, t.Status, s.loc); d.Empty() && !transition {
		return 0, nil
	}

	_, fired, err = s.reconcile(ctx, t.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	return fired, err
}

// TestResult reports what a test reminder reached.
type TestResult struct {
	Notified   bool   `json:"notified"`
	Emailed    bool   `json:"emailed"`
	EmailError string `json:"email_error,omitempty"`
}

// SendTest delivers a reminder for the task right away without marking any offset sent.
func (s *ReminderService) SendTest(ctx context.Context, userID, taskID uint) (TestResult, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return TestResult{}, err
	}
	if task.UserID != userID {
		return TestResult{}, ErrForbidden
	}

	var res TestResult
	content := fmt.Sprintf("Test reminder for task %q has been sent.", task.Name)
	if _, err := s.notifier.Add(ctx, userID, "Test reminder", content, model.NotificationReminder); err != nil {
		return res, fmt.Errorf("add notification: %w", err)
	}
	res.Notified = true

	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user.Email == "" {
		return res, nil
	}
	subject, body := testEmail(*task)
	if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
		s.log.WithError(err).WithField("task_id", taskID).Warn("send test reminder email")
		res.EmailError = err.Error()
		return res, nil
	}
	res.Emailed = true
	return res, nil
}

// deliver is best effort on every channel; each failure is logged and counted only.
func (s *ReminderService) deliver(ctx context.Context, task model.Task, offset int) {
	log := s.log.WithFields(logrus.Fields{"task_id": task.ID, "user_id": task.UserID, "offset": offset})
	log.Info("reminder fired")

	content := fmt.Sprintf("Task %q starts in %d minutes.", task.Name, offset)
	if _, err := s.notifier.Add(ctx, task.UserID, "Task starting soon", content, model.NotificationReminder); err != nil {
		metrics.ReminderDeliveryErrors.WithLabelValues("notification").Inc()
		log.WithError(err).Error("add reminder notification")
	}

	user, err := s.users.FindByID(ctx, task.UserID)
	if err != nil {
		log.WithError(err).Warn("load task owner")
		return
	}

	if user.Email != "" && s.mailer != nil {
		subject, body := reminderEmail(task, offset)
		if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
			metrics.ReminderDeliveryErrors.WithLabelValues("email").Inc()
			log.WithError(err).Warn("send reminder email")
		}
	}

	if user.TelegramChatID != 0 && s.messenger != nil {
		if err := s.messenger.SendText(user.TelegramChatID, reminderChatText(task, offset)); err != nil {
			metrics.ReminderDeliveryErrors.WithLabelValues("telegram").Inc()
			log.WithError(err).Warn("send reminder message")
		}
	}
}

func taskLockKey(id uint) string {
	return "task:" + strconv.FormatUint(uint64(id), 10)
}
