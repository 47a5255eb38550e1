package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cueline/cueline/internal/models"
)

// SettingsRepository handles database operations for the extension
// preferences row. The table holds a single row with id 1; Get lazily
// creates it so a fresh install starts with defaults without a seed step.
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the preferences row, creating it with defaults on first use.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := r.db.WithContext(ctx).Where("id = ?", 1).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(MapGormError(err), ErrNotFound) {
		return nil, MapGormError(err)
	}

	defaults := models.DefaultSettings()
	if err := r.db.WithContext(ctx).Create(defaults).Error; err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", MapGormError(err))
	}
	return defaults, nil
}

// Update overwrites the preferences row. The id is pinned to 1 so a caller
// cannot grow the table past its single row.
func (r *SettingsRepository) Update(ctx context.Context, settings *models.Settings) error {
	settings.ID = 1
	settings.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Where("id = ?", 1).Select("*").Omit("id").Updates(settings)
	if result.Error != nil {
		return fmt.Errorf("failed to update settings: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
