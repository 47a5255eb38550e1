package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/models"
)

// MediaAssetRepository handles database operations for overlay media assets
type MediaAssetRepository struct {
	db *DB
}

// NewMediaAssetRepository creates a new media asset repository
func NewMediaAssetRepository(db *DB) *MediaAssetRepository {
	return &MediaAssetRepository{db: db}
}

// Create inserts a new media asset into the database
func (r *MediaAssetRepository) Create(ctx context.Context, asset *models.MediaAsset) error {
	result := r.db.WithContext(ctx).Create(asset)
	if result.Error != nil {
		return fmt.Errorf("failed to create media asset: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a media asset by its UUID
func (r *MediaAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	var asset models.MediaAsset
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&asset)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &asset, nil
}

// List retrieves all media assets ordered by upload date (newest first)
func (r *MediaAssetRepository) List(ctx context.Context) ([]*models.MediaAsset, error) {
	var assets []*models.MediaAsset
	result := r.db.WithContext(ctx).Order("created_at DESC").Find(&assets)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list media assets: %w", MapGormError(result.Error))
	}
	return assets, nil
}

// Delete deletes a media asset by its UUID
func (r *MediaAssetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.MediaAsset{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete media asset: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
