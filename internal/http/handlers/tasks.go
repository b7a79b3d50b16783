package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smart-todo/internal/http/middleware"
	"smart-todo/internal/service"
)

func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) CreateTask(c *gin.Context) {
	var input service.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task, err := h.tasks.CreateTask(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (h *Handler) GetTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch service.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	task, err := h.tasks.EditTask(c.Request.Context(), middleware.UserID(c), id, patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

type completeRequest struct {
	CompletionRate *float64 `json:"completion_rate"`
}

func (h *Handler) CompleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req completeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	rate := 100.0
	if req.CompletionRate != nil {
		rate = *req.CompletionRate
	}
	task, err := h.tasks.CompleteTask(c.Request.Context(), middleware.UserID(c), id, rate)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TestReminder sends a reminder for the task right away.
func (h *Handler) TestReminder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.reminders.SendTest(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	message := "Test reminder sent"
	if res.EmailError != "" {
		message = "Test notification sent, but the email failed: " + res.EmailError
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "result": res})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.tasks.Stats(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
