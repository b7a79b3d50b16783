package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"smart-todo/internal/http/middleware"
	"smart-todo/internal/logger"
	"smart-todo/internal/repository"
	"smart-todo/internal/service"
)

// Handler serves the JSON API.
type Handler struct {
	tasks         *service.TaskService
	reminders     *service.ReminderService
	settings      *service.SettingsService
	accounts      *service.AccountService
	notifications *repository.NotificationRepository
	log           *logrus.Entry
}

func NewHandler(tasks *service.TaskService, reminders *service.ReminderService, settings *service.SettingsService,
	accounts *service.AccountService, notifications *repository.NotificationRepository, log *logrus.Entry) *Handler {
	return &Handler{
		tasks:         tasks,
		reminders:     reminders,
		settings:      settings,
		accounts:      accounts,
		notifications: notifications,
		log:           log,
	}
}

func (h *Handler) logFor(c *gin.Context) *logrus.Entry {
	return logger.WithRequestID(h.log, middleware.GetRequestID(c))
}

// writeError maps service errors to status codes. Foreign tasks look missing.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "task was modified concurrently, retry"})
	default:
		_ = c.Error(err)
		h.logFor(c).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
