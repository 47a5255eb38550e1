package db

// Repositories provides access to all database repositories
type Repositories struct {
	Timelines   *TimelineRepository
	Cues        *CueRepository
	MediaAssets *MediaAssetRepository
	Settings    *SettingsRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Timelines:   NewTimelineRepository(db),
		Cues:        NewCueRepository(db),
		MediaAssets: NewMediaAssetRepository(db),
		Settings:    NewSettingsRepository(db),
	}
}
