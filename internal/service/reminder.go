package service

import (
	"time"

	"smart-todo/internal/model"
)

// ReminderTolerance is the half-width, in minutes, of the window around an offset in
// which a reminder still counts as on time. It absorbs the coarse scheduler tick.
const ReminderTolerance = 2.0

// Decision is the outcome of evaluating one task at one instant.
type Decision struct {
	MinutesToStart float64
	// Fire is the offset to send now, 0 when nothing is due.
	Fire int
	// Start is set when a pending task has reached its start time.
	Start bool
}

// Empty reports whether the decision requires no write.
func (d Decision) Empty() bool {
	return d.Fire == 0 && !d.Start
}

// ReminderSet returns the offsets that apply to task: its own when set, defaults otherwise.
// The result is deduplicated, positive and sorted descending.
func ReminderSet(task model.Task, defaults []int) model.Offsets {
	if set := task.ReminderTimes.Normalize(); len(set) > 0 {
		return set
	}
	return model.Offsets(defaults).Normalize()
}

// Evaluate decides which reminder, if any, fires for task at now.
//
// Offsets are tried from the longest lead time down, so when two offsets are due together
// the earlier warning wins. At most one offset fires per call; offsets already in
// SentReminders never fire again.
func Evaluate(task model.Task, now time.Time, defaults []int, loc *time.Location) (Decision, error) {
	start, err := ParseStartTime(task.StartTime, loc)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{MinutesToStart: MinutesUntil(start, now)}
	for _, m := range ReminderSet(task, defaults) {
		lead := float64(m)
		if d.MinutesToStart < lead-ReminderTolerance || d.MinutesToStart > lead+ReminderTolerance {
			continue
		}
		if task.SentReminders.Contains(m) {
			continue
		}
		d.Fire = m
		break
	}

	if d.MinutesToStart <= 0 && task.Status == model.StatusPending {
		d.Start = true
	}
	return d, nil
}
