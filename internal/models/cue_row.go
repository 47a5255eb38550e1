package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/cue"
)

// CueRow represents one persisted cue on a timeline. The variant payload
// (overlay media, text style, skip target, flags) is stored as JSON: the
// engine treats cues as an opaque tagged union and the editing UI owns
// their shape, so a column per field would buy nothing but migrations.
type CueRow struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	TimelineID  uuid.UUID `json:"timeline_id" gorm:"type:text;not null;index;column:timeline_id" validate:"required"`
	TriggerTime int64     `json:"trigger_time" gorm:"type:integer;not null;column:trigger_time" validate:"gte=0"` // ms
	Type        string    `json:"type" gorm:"type:text;not null;column:type" validate:"required"`
	Payload     string    `json:"payload" gorm:"type:text;not null;column:payload"`
	Position    int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"` // insertion order, tie-break for equal trigger times
	CreatedAt   time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// TableName maps CueRow to the cues table created by the migrations
func (CueRow) TableName() string {
	return "cues"
}

// NewCueRow creates a CueRow from a domain cue
func NewCueRow(timelineID uuid.UUID, c cue.Cue, position int) (*CueRow, error) {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		id = uuid.New()
		c.ID = id.String()
	}
	payload, err := cue.Encode(c)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &CueRow{
		ID:          id,
		TimelineID:  timelineID,
		TriggerTime: c.TriggerTime,
		Type:        c.Type.String(),
		Payload:     string(payload),
		Position:    position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Cue decodes the row's payload into the domain cue the engine consumes.
// The indexed columns (trigger time, type) win over whatever the payload
// says, so a stale payload cannot desynchronize matching from storage.
func (r *CueRow) Cue() (cue.Cue, error) {
	c, err := cue.Decode([]byte(r.Payload))
	if err != nil {
		return cue.Cue{}, err
	}
	c.ID = r.ID.String()
	c.TriggerTime = r.TriggerTime
	c.Type = cue.Type(r.Type)
	return c, nil
}
