package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"smart-todo/internal/model"
)

// NotificationRepository stores in-app notifications.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Add stores a new unread notification and returns its id.
func (r *NotificationRepository) Add(ctx context.Context, userID uint, title, content, kind string) (uint, error) {
	n := model.Notification{UserID: userID, Title: title, Content: content, Kind: kind}
	if err := r.db.WithContext(ctx).Create(&n).Error; err != nil {
		return 0, fmt.Errorf("create notification: %w", err)
	}
	return n.ID, nil
}

// NotificationPage is one page of a user's notifications, newest first.
type NotificationPage struct {
	Notifications []model.Notification `json:"notifications"`
	Total         int64                `json:"total"`
	Page          int                  `json:"page"`
	PerPage       int                  `json:"per_page"`
	TotalPages    int                  `json:"total_pages"`
	HasPrev       bool                 `json:"has_prev"`
	HasNext       bool                 `json:"has_next"`
}

// Page returns the requested page. Out of range pages are clamped to the first or last.
func (r *NotificationRepository) Page(ctx context.Context, userID uint, page, perPage int) (*NotificationPage, error) {
	if perPage <= 0 {
		perPage = 20
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if page < 1 {
		page = 1
	} else if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	out := &NotificationPage{Total: total, Page: page, PerPage: perPage, TotalPages: totalPages}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&out.Notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out.HasPrev = page > 1
	out.HasNext = page < totalPages
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

// MarkRead flags a notification owned by userID as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
