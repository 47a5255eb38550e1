package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaAsset represents an uploaded overlay media file (video, audio, or
// image) stored in the local library and referenced by overlay cues via URL
type MediaAsset struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	FilePath  string    `json:"file_path" gorm:"type:text;not null;uniqueIndex;column:file_path" validate:"required"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	MIME      string    `json:"mime" gorm:"type:text;not null;column:mime" validate:"required"`
	FileSize  int64     `json:"file_size" gorm:"type:integer;not null;column:file_size"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewMediaAsset creates a new MediaAsset with generated UUID and timestamp
func NewMediaAsset(filePath, name, mime string, fileSize int64) *MediaAsset {
	return &MediaAsset{
		ID:        uuid.New(),
		FilePath:  filePath,
		Name:      name,
		MIME:      mime,
		FileSize:  fileSize,
		CreatedAt: time.Now().UTC(),
	}
}
