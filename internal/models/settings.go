package models

import (
	"time"
)

// Settings represents per-install extension preferences kept server-side
// so they survive browser profile resets
type Settings struct {
	ID                     int       `json:"id" gorm:"type:integer;primaryKey;default:1;column:id"`
	DefaultOverlayDuration float64   `json:"default_overlay_duration" gorm:"type:real;default:5;column:default_overlay_duration" validate:"gt=0"` // seconds
	MuteOverlaysByDefault  bool      `json:"mute_overlays_by_default" gorm:"type:integer;default:0;column:mute_overlays_by_default"`
	PauseOnOverlayDefault  bool      `json:"pause_on_overlay_default" gorm:"type:integer;default:0;column:pause_on_overlay_default"`
	UpdatedAt              time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// DefaultSettings returns settings with default values
func DefaultSettings() *Settings {
	return &Settings{
		ID:                     1,
		DefaultOverlayDuration: 5,
		UpdatedAt:              time.Now().UTC(),
	}
}
