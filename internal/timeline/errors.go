package timeline

import "errors"

// Common errors
var (
	ErrTimelineNotFound = errors.New("timeline not found")
	ErrCueNotFound      = errors.New("cue not found")
	ErrInvalidCue       = errors.New("invalid cue")
)
