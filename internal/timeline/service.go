// Package timeline provides business logic for cue timelines: CRUD over
// the persisted rows and assembly of the ordered cue snapshots the playback
// engine consumes.
package timeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/cue"
	"github.com/cueline/cueline/internal/db"
	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/models"
)

// TimelineService handles business logic for timeline operations
type TimelineService struct {
	repos *db.Repositories
}

// NewTimelineService creates a new timeline service instance
func NewTimelineService(repos *db.Repositories) *TimelineService {
	return &TimelineService{
		repos: repos,
	}
}

// CreateTimeline creates a new timeline with validation
func (s *TimelineService) CreateTimeline(ctx context.Context, title, sourceURL string) (*models.Timeline, error) {
	title = strings.TrimSpace(title)
	sourceURL = strings.TrimSpace(sourceURL)
	if title == "" || sourceURL == "" {
		return nil, fmt.Errorf("failed to create timeline: %w", db.ErrInvalidInput)
	}

	timeline := models.NewTimeline(title, sourceURL)

	if err := s.repos.Timelines.Create(ctx, timeline); err != nil {
		logger.Log.Error().
			Err(err).
			Str("title", title).
			Msg("Failed to create timeline in database")
		return nil, fmt.Errorf("failed to create timeline: %w", err)
	}

	logger.Log.Info().
		Str("timeline_id", timeline.ID.String()).
		Str("title", timeline.Title).
		Str("source_url", timeline.SourceURL).
		Msg("Timeline created successfully")

	return timeline, nil
}

// GetByID retrieves a timeline by its ID
func (s *TimelineService) GetByID(ctx context.Context, id uuid.UUID) (*models.Timeline, error) {
	timeline, err := s.repos.Timelines.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrTimelineNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("timeline_id", id.String()).
			Msg("Failed to get timeline by ID")
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}

	return timeline, nil
}

// GetBySourceURL retrieves the timeline authored for a host page URL
func (s *TimelineService) GetBySourceURL(ctx context.Context, sourceURL string) (*models.Timeline, error) {
	timeline, err := s.repos.Timelines.GetBySourceURL(ctx, sourceURL)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrTimelineNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("source_url", sourceURL).
			Msg("Failed to get timeline by source URL")
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}

	return timeline, nil
}

// List retrieves all timelines
func (s *TimelineService) List(ctx context.Context) ([]*models.Timeline, error) {
	timelines, err := s.repos.Timelines.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list timelines")
		return nil, fmt.Errorf("failed to list timelines: %w", err)
	}

	return timelines, nil
}

// UpdateTimeline updates an existing timeline's metadata
func (s *TimelineService) UpdateTimeline(ctx context.Context, timeline *models.Timeline) error {
	if _, err := s.GetByID(ctx, timeline.ID); err != nil {
		return err
	}

	timeline.UpdatedAt = time.Now().UTC()

	if err := s.repos.Timelines.Update(ctx, timeline); err != nil {
		logger.Log.Error().
			Err(err).
			Str("timeline_id", timeline.ID.String()).
			Msg("Failed to update timeline in database")
		return fmt.Errorf("failed to update timeline: %w", err)
	}

	logger.Log.Info().
		Str("timeline_id", timeline.ID.String()).
		Str("title", timeline.Title).
		Msg("Timeline updated successfully")

	return nil
}

// DeleteTimeline deletes a timeline by its ID (cascade to cues)
func (s *TimelineService) DeleteTimeline(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repos.Timelines.Delete(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("timeline_id", id.String()).
			Msg("Failed to delete timeline from database")
		return fmt.Errorf("failed to delete timeline: %w", err)
	}

	logger.Log.Info().
		Str("timeline_id", id.String()).
		Msg("Timeline deleted successfully")

	return nil
}

// Snapshot assembles the ordered cue snapshot for a timeline, the form the
// playback engine consumes. Rows that fail to decode are skipped with a
// warning rather than failing the whole snapshot: one corrupt cue must not
// take the timeline offline.
func (s *TimelineService) Snapshot(ctx context.Context, timelineID uuid.UUID) (cue.Set, error) {
	rows, err := s.repos.Cues.GetByTimelineID(ctx, timelineID)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("timeline_id", timelineID.String()).
			Msg("Failed to load cues for snapshot")
		return cue.Set{}, fmt.Errorf("failed to load cues: %w", err)
	}

	cues := make([]cue.Cue, 0, len(rows))
	for _, row := range rows {
		c, err := row.Cue()
		if err != nil {
			logger.Log.Warn().
				Err(err).
				Str("cue_id", row.ID.String()).
				Msg("Skipping undecodable cue")
			continue
		}
		cues = append(cues, c)
	}

	return cue.NewSet(cues), nil
}

// AddCue validates and appends a cue to a timeline
func (s *TimelineService) AddCue(ctx context.Context, timelineID uuid.UUID, c cue.Cue) (*models.CueRow, error) {
	if _, err := s.GetByID(ctx, timelineID); err != nil {
		return nil, err
	}
	if err := validateCue(c); err != nil {
		return nil, err
	}

	position, err := s.repos.Cues.NextPosition(ctx, timelineID)
	if err != nil {
		return nil, fmt.Errorf("failed to add cue: %w", err)
	}

	row, err := models.NewCueRow(timelineID, c, position)
	if err != nil {
		return nil, fmt.Errorf("failed to add cue: %w", err)
	}

	if err := s.repos.Cues.Create(ctx, row); err != nil {
		logger.Log.Error().
			Err(err).
			Str("timeline_id", timelineID.String()).
			Msg("Failed to create cue in database")
		return nil, fmt.Errorf("failed to add cue: %w", err)
	}

	logger.Log.Info().
		Str("cue_id", row.ID.String()).
		Str("timeline_id", timelineID.String()).
		Str("type", row.Type).
		Int64("trigger_ms", row.TriggerTime).
		Msg("Cue added")

	return row, nil
}

// UpdateCue validates and replaces a cue's content, keeping its insertion
// position so same-trigger-time ordering stays stable across edits
func (s *TimelineService) UpdateCue(ctx context.Context, cueID uuid.UUID, c cue.Cue) (*models.CueRow, error) {
	existing, err := s.repos.Cues.GetByID(ctx, cueID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrCueNotFound
		}
		return nil, fmt.Errorf("failed to update cue: %w", err)
	}

	c.ID = cueID.String()
	if err := validateCue(c); err != nil {
		return nil, err
	}

	row, err := models.NewCueRow(existing.TimelineID, c, existing.Position)
	if err != nil {
		return nil, fmt.Errorf("failed to update cue: %w", err)
	}
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = time.Now().UTC()

	if err := s.repos.Cues.Update(ctx, row); err != nil {
		logger.Log.Error().
			Err(err).
			Str("cue_id", cueID.String()).
			Msg("Failed to update cue in database")
		return nil, fmt.Errorf("failed to update cue: %w", err)
	}

	logger.Log.Info().
		Str("cue_id", cueID.String()).
		Str("type", row.Type).
		Int64("trigger_ms", row.TriggerTime).
		Msg("Cue updated")

	return row, nil
}

// DeleteCue removes a cue from its timeline
func (s *TimelineService) DeleteCue(ctx context.Context, cueID uuid.UUID) (*models.CueRow, error) {
	existing, err := s.repos.Cues.GetByID(ctx, cueID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrCueNotFound
		}
		return nil, fmt.Errorf("failed to delete cue: %w", err)
	}

	if err := s.repos.Cues.Delete(ctx, cueID); err != nil {
		logger.Log.Error().
			Err(err).
			Str("cue_id", cueID.String()).
			Msg("Failed to delete cue from database")
		return nil, fmt.Errorf("failed to delete cue: %w", err)
	}

	logger.Log.Info().
		Str("cue_id", cueID.String()).
		Str("timeline_id", existing.TimelineID.String()).
		Msg("Cue deleted")

	return existing, nil
}

// ReplaceCues atomically replaces a timeline's cue list. Positions are
// assigned from slice order so authored order survives as the tie-break for
// cues sharing a trigger time.
func (s *TimelineService) ReplaceCues(ctx context.Context, timelineID uuid.UUID, cues []cue.Cue) ([]*models.CueRow, error) {
	if _, err := s.GetByID(ctx, timelineID); err != nil {
		return nil, err
	}

	rows := make([]*models.CueRow, 0, len(cues))
	for i, c := range cues {
		if err := validateCue(c); err != nil {
			return nil, err
		}
		row, err := models.NewCueRow(timelineID, c, i)
		if err != nil {
			return nil, fmt.Errorf("failed to replace cues: %w", err)
		}
		rows = append(rows, row)
	}

	if err := s.repos.Cues.ReplaceForTimeline(ctx, timelineID, rows); err != nil {
		logger.Log.Error().
			Err(err).
			Str("timeline_id", timelineID.String()).
			Msg("Failed to replace cue list in database")
		return nil, fmt.Errorf("failed to replace cues: %w", err)
	}

	logger.Log.Info().
		Str("timeline_id", timelineID.String()).
		Int("cue_count", len(rows)).
		Msg("Cue list replaced")

	return rows, nil
}

// validateCue enforces the boundary contract: the engine assumes cue data
// is well-formed, so the editing surface is where malformed cues stop.
func validateCue(c cue.Cue) error {
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCue, c.Type)
	}
	if c.TriggerTime < 0 {
		return fmt.Errorf("%w: negative trigger time", ErrInvalidCue)
	}

	switch c.Type {
	case cue.TypeSkip:
		if c.SkipToTime < 0 {
			return fmt.Errorf("%w: negative skip target", ErrInvalidCue)
		}
	case cue.TypePause:
		if c.PauseDuration < 0 {
			return fmt.Errorf("%w: negative pause duration", ErrInvalidCue)
		}
	case cue.TypeOverlay:
		if c.OverlayMedia == nil {
			return fmt.Errorf("%w: overlay cue without media", ErrInvalidCue)
		}
		if c.OverlayMedia.URL == "" {
			return fmt.Errorf("%w: overlay media without url", ErrInvalidCue)
		}
		if c.OverlayDuration < 0 || c.OverlayMedia.Duration < 0 {
			return fmt.Errorf("%w: negative overlay duration", ErrInvalidCue)
		}
	case cue.TypeTextOverlay:
		if c.TextOverlay == nil {
			return fmt.Errorf("%w: text overlay cue without text payload", ErrInvalidCue)
		}
		if c.OverlayDuration < 0 {
			return fmt.Errorf("%w: negative overlay duration", ErrInvalidCue)
		}
	}

	return nil
}
