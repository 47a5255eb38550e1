package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cueline/cueline/internal/models"
)

// CueRepository handles database operations for timeline cues
type CueRepository struct {
	db *DB
}

// NewCueRepository creates a new cue repository
func NewCueRepository(db *DB) *CueRepository {
	return &CueRepository{db: db}
}

// Create inserts a new cue row into the database
func (r *CueRepository) Create(ctx context.Context, row *models.CueRow) error {
	result := r.db.WithContext(ctx).Create(row)
	if result.Error != nil {
		return fmt.Errorf("failed to create cue: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a cue row by its UUID
func (r *CueRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CueRow, error) {
	var row models.CueRow
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&row)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &row, nil
}

// GetByTimelineID retrieves all cues for a timeline in playback order:
// trigger time ascending, insertion position breaking ties
func (r *CueRepository) GetByTimelineID(ctx context.Context, timelineID uuid.UUID) ([]*models.CueRow, error) {
	var rows []*models.CueRow
	result := r.db.WithContext(ctx).
		Where("timeline_id = ?", timelineID.String()).
		Order("trigger_time ASC, position ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get cues by timeline: %w", MapGormError(result.Error))
	}
	return rows, nil
}

// NextPosition returns the next insertion position for a timeline
func (r *CueRepository) NextPosition(ctx context.Context, timelineID uuid.UUID) (int, error) {
	var max *int
	result := r.db.WithContext(ctx).
		Model(&models.CueRow{}).
		Where("timeline_id = ?", timelineID.String()).
		Select("MAX(position)").
		Scan(&max)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get next cue position: %w", MapGormError(result.Error))
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

// Update updates an existing cue row
func (r *CueRepository) Update(ctx context.Context, row *models.CueRow) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", row.ID.String()).
		Select("trigger_time", "type", "payload", "position", "updated_at").
		Updates(row)
	if result.Error != nil {
		return fmt.Errorf("failed to update cue: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a cue row by its UUID
func (r *CueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.CueRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete cue: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByTimelineID deletes all cues for a timeline
func (r *CueRepository) DeleteByTimelineID(ctx context.Context, timelineID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("timeline_id = ?", timelineID.String()).Delete(&models.CueRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete cues by timeline: %w", MapGormError(result.Error))
	}
	return nil
}

// ReplaceForTimeline atomically replaces a timeline's cue list. The editing
// UI saves whole lists, not diffs, mirroring how the engine consumes them.
func (r *CueRepository) ReplaceForTimeline(ctx context.Context, timelineID uuid.UUID, rows []*models.CueRow) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("timeline_id = ?", timelineID.String()).Delete(&models.CueRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear cues: %w", MapGormError(err))
		}
		for _, row := range rows {
			if err := tx.Create(row).Error; err != nil {
				return fmt.Errorf("failed to insert cue %s: %w", row.ID, MapGormError(err))
			}
		}
		return nil
	})
}
