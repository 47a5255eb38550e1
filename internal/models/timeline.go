// Package models defines the persisted entities: cue timelines, their
// cue rows, uploaded overlay media assets, and extension settings.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Timeline represents a cue timeline authored for one host video page
type Timeline struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Title     string    `json:"title" gorm:"type:text;not null;column:title" validate:"required,min=1,max=255"`
	SourceURL string    `json:"source_url" gorm:"type:text;not null;index;column:source_url" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`

	// Populated by joins, not stored in database
	Cues []*CueRow `json:"cues,omitempty" gorm:"-"`
}

// NewTimeline creates a new Timeline with generated UUID and timestamps
func NewTimeline(title, sourceURL string) *Timeline {
	now := time.Now().UTC()
	return &Timeline{
		ID:        uuid.New(),
		Title:     title,
		SourceURL: sourceURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
