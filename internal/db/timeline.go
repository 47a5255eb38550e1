// Package db provides database connection management and repository interfaces.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/models"
)

// TimelineRepository handles database operations for cue timelines
type TimelineRepository struct {
	db *DB
}

// NewTimelineRepository creates a new timeline repository
func NewTimelineRepository(db *DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Create inserts a new timeline into the database
func (r *TimelineRepository) Create(ctx context.Context, timeline *models.Timeline) error {
	result := r.db.WithContext(ctx).Create(timeline)
	if result.Error != nil {
		return fmt.Errorf("failed to create timeline: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a timeline by its UUID
func (r *TimelineRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Timeline, error) {
	var timeline models.Timeline
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&timeline)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &timeline, nil
}

// GetBySourceURL retrieves the most recently updated timeline authored for
// the given host page URL. The bridge uses this to resolve which timeline a
// connecting content script should play.
func (r *TimelineRepository) GetBySourceURL(ctx context.Context, sourceURL string) (*models.Timeline, error) {
	var timeline models.Timeline
	result := r.db.WithContext(ctx).
		Where("source_url = ?", sourceURL).
		Order("updated_at DESC").
		First(&timeline)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &timeline, nil
}

// List retrieves all timelines ordered by creation date (newest first)
func (r *TimelineRepository) List(ctx context.Context) ([]*models.Timeline, error) {
	var timelines []*models.Timeline
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&timelines)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list timelines: %w", MapGormError(result.Error))
	}
	return timelines, nil
}

// Update updates an existing timeline
func (r *TimelineRepository) Update(ctx context.Context, timeline *models.Timeline) error {
	timeline.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Where("id = ?", timeline.ID.String()).
		Select("title", "source_url", "updated_at").
		Updates(timeline)
	if result.Error != nil {
		return fmt.Errorf("failed to update timeline: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a timeline by its UUID (cascade delete to cue rows)
func (r *TimelineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Timeline{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete timeline: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
