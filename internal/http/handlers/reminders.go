package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"smart-todo/internal/http/middleware"
	"smart-todo/internal/logger"
	"smart-todo/internal/service"
)

// triggerTimeout bounds a pass started over HTTP. The pass outlives the caller's connection.
const triggerTimeout = 2 * time.Minute

// ReminderTrigger runs a reminder pass on demand, e.g. from an external cron.
type ReminderTrigger struct {
	reminders *service.ReminderService
	secret    string
	log       *logrus.Entry
}

func NewReminderTrigger(reminders *service.ReminderService, secret string, log *logrus.Entry) *ReminderTrigger {
	return &ReminderTrigger{reminders: reminders, secret: secret, log: log}
}

// CheckReminders handles GET /check_reminders?secret=... and runs the pass synchronously.
func (t *ReminderTrigger) CheckReminders(c *gin.Context) {
	log := logger.WithRequestID(t.log, middleware.GetRequestID(c))
	given := c.Query("secret")
	if t.secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(t.secret)) != 1 {
		log.Warn("reminder trigger rejected")
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Invalid secret"})
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), triggerTimeout)
	defer cancel()
	sum, err := t.reminders.CheckAll(ctx, "http")
	if err != nil {
		log.WithError(err).Error("reminder trigger failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Reminders checked: %d tasks, %d fired, %d failed", sum.Scanned, sum.Fired, sum.Failed),
		"summary": sum,
	})
}
