package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"smart-todo/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	return r.first(ctx, &user, r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *UserRepository) FindByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	var user model.User
	return r.first(ctx, &user, r.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID))
}

// LinkTelegram stores chatID on the user whose telegram username matches.
func (r *UserRepository) LinkTelegram(ctx context.Context, telegramUsername string, chatID int64) (*model.User, error) {
	var user model.User
	if _, err := r.first(ctx, &user, r.db.WithContext(ctx).Where("telegram_username = ?", telegramUsername)); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&user).Update("telegram_chat_id", chatID).Error; err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) first(_ context.Context, user *model.User, q *gorm.DB) (*model.User, error) {
	err := q.First(user).Error
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}
