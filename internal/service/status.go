package service

import (
	"time"

	"smart-todo/internal/model"
)

// DeriveStatus maps a task's start time and the current time to its status.
//
// A future start time means pending, and regresses in_progress or completed tasks back to
// pending. A reached start time moves pending tasks to in_progress; completed tasks stay
// completed. A missing or unparsable start time keeps a known status and defaults to
// pending otherwise.
//
// The second result reports whether the status differs from current.
func DeriveStatus(startTime string, now time.Time, current model.TaskStatus, loc *time.Location) (model.TaskStatus, bool) {
	start, err := ParseStartTime(startTime, loc)
	if err != nil {
		if current.Valid() {
			return current, false
		}
		return model.StatusPending, true
	}

	if now.Before(start) {
		return model.StatusPending, current != model.StatusPending
	}
	if current == model.StatusPending || !current.Valid() {
		return model.StatusInProgress, true
	}
	return current, false
}
