package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-todo/internal/http/middleware"
	"smart-todo/internal/mail"
	"smart-todo/internal/service"
)

func (h *Handler) GetSettings(c *gin.Context) {
	st, err := h.settings.Get(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": st})
}

func (h *Handler) ToggleEmailVerification(c *gin.Context) {
	enabled, err := h.settings.ToggleEmailVerification(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"enabled": enabled,
		"message": "Email verification " + state,
	})
}

func (h *Handler) UpdateEmailSettings(c *gin.Context) {
	var update service.MailUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.settings.UpdateMail(c.Request.Context(), update); err != nil {
		h.writeError(c, err)
		return
	}
	h.logFor(c).Info("mail settings updated")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email settings saved"})
}

type reminderTimesRequest struct {
	ReminderTimes []int `json:"reminder_times"`
}

func (h *Handler) UpdateReminderTimes(c *gin.Context) {
	var req reminderTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := c.Request.Context()
	if err := h.settings.SetDefaultReminderTimes(ctx, req.ReminderTimes); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reminder_times": h.settings.DefaultReminderTimes(ctx)})
}

type broadcastRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Broadcast sends a system notification to every user.
func (h *Handler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sent, err := h.accounts.Broadcast(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "recipients": sent})
}

// TestEmail mails the calling admin to check the SMTP settings.
func (h *Handler) TestEmail(c *gin.Context) {
	to, err := h.accounts.SendTestEmail(c.Request.Context(), middleware.UserID(c))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Test email sent to " + to})
	case errors.Is(err, mail.ErrNotConfigured):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email is not configured, set the SMTP settings first"})
	case errors.Is(err, service.ErrInvalidInput):
		h.writeError(c, err)
	default:
		h.logFor(c).WithError(err).Warn("test email failed")
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Test email failed, check the SMTP settings"})
	}
}
