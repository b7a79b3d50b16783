package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"smart-todo/internal/http/middleware"
)

const maxPerPage = 100

// ListNotifications serves ?page=&per_page=; limit is accepted as an alias of per_page.
func (h *Handler) ListNotifications(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	perPage := 20
	for _, key := range []string{"limit", "per_page"} {
		if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
			perPage = min(v, maxPerPage)
		}
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	result, err := h.notifications.Page(ctx, userID, page, perPage)
	if err != nil {
		h.writeError(c, err)
		return
	}
	unread, err := h.notifications.CountUnread(ctx, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": result.Notifications,
		"total":         result.Total,
		"page":          result.Page,
		"per_page":      result.PerPage,
		"total_pages":   result.TotalPages,
		"has_prev":      result.HasPrev,
		"has_next":      result.HasNext,
		"unread":        unread,
	})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
