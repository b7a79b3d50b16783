package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"smart-todo/internal/model"
)

// SettingRepository persists the single settings row.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Load returns the settings row, creating it from defaults on first use.
func (r *SettingRepository) Load(ctx context.Context, defaults model.Setting) (*model.Setting, error) {
	defaults.ID = model.SettingsID
	var s model.Setting
	if err := r.db.WithContext(ctx).Where(model.Setting{ID: model.SettingsID}).
		Attrs(defaults).FirstOrCreate(&s).Error; err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &s, nil
}

func (r *SettingRepository) Save(ctx context.Context, s *model.Setting) error {
	s.ID = model.SettingsID
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
