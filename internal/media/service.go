package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/db"
	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/models"
)

// Service combines the on-disk library with the asset catalog. Overlay cues
// reference assets through the URLs this service hands out.
type Service struct {
	library *Library
	assets  *db.MediaAssetRepository
}

// NewService creates a media service over the given library and repository
func NewService(library *Library, assets *db.MediaAssetRepository) *Service {
	return &Service{library: library, assets: assets}
}

// UploadResult describes a completed upload, including the probed duration
// for video and audio so the editor can prefill the cue's overlay duration.
type UploadResult struct {
	Asset    *models.MediaAsset `json:"asset"`
	URL      string             `json:"url"`
	Duration float64            `json:"duration,omitempty"` // seconds, 0 when unknown
}

// Upload stores an uploaded file and catalogs it. Duration probing is best
// effort: a missing ffprobe or an unprobeable file still uploads fine.
func (s *Service) Upload(ctx context.Context, originalName string, src io.Reader) (*UploadResult, error) {
	stored, err := s.library.Save(originalName, src)
	if err != nil {
		return nil, err
	}

	asset := models.NewMediaAsset(stored.FileName, originalName, stored.MIME, stored.Size)
	if err := s.assets.Create(ctx, asset); err != nil {
		_ = s.library.Remove(stored.FileName) // nolint:errcheck // best-effort cleanup
		logger.Log.Error().
			Err(err).
			Str("file_name", stored.FileName).
			Msg("Failed to catalog media asset")
		return nil, fmt.Errorf("failed to catalog media asset: %w", err)
	}

	result := &UploadResult{
		Asset: asset,
		URL:   s.URLFor(asset),
	}

	if strings.HasPrefix(stored.MIME, "video/") || strings.HasPrefix(stored.MIME, "audio/") {
		path, perr := s.library.Path(stored.FileName)
		if perr == nil {
			if duration, perr := ProbeDuration(ctx, path); perr == nil {
				result.Duration = duration
			} else {
				logger.Log.Warn().
					Err(perr).
					Str("file_name", stored.FileName).
					Msg("Could not probe media duration")
			}
		}
	}

	return result, nil
}

// Clone duplicates an asset: the stored file is copied under a fresh
// generated name and cataloged as a new row. Cues referencing the copy are
// unaffected when the original is later deleted.
func (s *Service) Clone(ctx context.Context, id uuid.UUID) (*UploadResult, error) {
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := s.library.Path(asset.FilePath)
	if err != nil {
		return nil, err
	}
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	defer src.Close() // nolint:errcheck // read-only handle

	// the stored name carries the extension, which is all Save reads from it
	stored, err := s.library.Save(asset.FilePath, src)
	if err != nil {
		return nil, err
	}

	clone := models.NewMediaAsset(stored.FileName, asset.Name, stored.MIME, stored.Size)
	if err := s.assets.Create(ctx, clone); err != nil {
		_ = s.library.Remove(stored.FileName) // nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("failed to catalog cloned asset: %w", err)
	}

	logger.Log.Info().
		Str("source_id", id.String()).
		Str("clone_id", clone.ID.String()).
		Str("file_name", clone.FilePath).
		Msg("Media asset cloned")

	return &UploadResult{Asset: clone, URL: s.URLFor(clone)}, nil
}

// Get retrieves an asset by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// List retrieves all cataloged assets.
func (s *Service) List(ctx context.Context) ([]*models.MediaAsset, error) {
	return s.assets.List(ctx)
}

// Delete removes an asset from the catalog and the library. The row goes
// first: a file with no row is garbage, a row with no file is a 404.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	asset, err := s.assets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.assets.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.library.Remove(asset.FilePath); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("file_name", asset.FilePath).
			Msg("Asset row deleted but file removal failed")
	}

	logger.Log.Info().
		Str("asset_id", id.String()).
		Str("file_name", asset.FilePath).
		Msg("Media asset deleted")
	return nil
}

// FilePath resolves an asset's stored file for serving.
func (s *Service) FilePath(fileName string) (string, error) {
	return s.library.Path(fileName)
}

// URLFor returns the URL overlay cues should reference the asset by,
// relative to the server root.
func (s *Service) URLFor(asset *models.MediaAsset) string {
	return "/api/v1/media/files/" + asset.FilePath
}
