//go:build integration
// +build integration

package integration

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cueline/cueline/internal/api"
	"github.com/cueline/cueline/internal/cue"
	"github.com/cueline/cueline/internal/db"
	"github.com/cueline/cueline/internal/overlay"
	"github.com/cueline/cueline/internal/timeline"
)

// setupTestDB creates an in-memory test database with migrations applied
func setupTestDB(t *testing.T) (*db.DB, *db.Repositories, func()) {
	t.Helper()

	database, err := db.New(":memory:")
	require.NoError(t, err, "Failed to create in-memory database")

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Resolve the migrations directory relative to this file so tests work
	// regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)                     // test/integration
	rootDir := filepath.Dir(filepath.Dir(testDir))        // repository root
	migrationsDir := filepath.Join(rootDir, "migrations") // migrations
	migrationsPath := "file://" + migrationsDir

	err = db.RunMigrations(sqlDB, migrationsPath)
	require.NoError(t, err, "Failed to run migrations")

	repos := db.NewRepositories(database)

	cleanup := func() {
		_ = database.Close()
	}

	return database, repos, cleanup
}

// noopPusher stands in for the bridge manager when no pages are connected
type noopPusher struct{}

func (noopPusher) PushTimeline(context.Context, uuid.UUID) error { return nil }
func (noopPusher) HideCue(uuid.UUID, string)                     {}

// setupTestRouter creates a test Gin router with timeline routes configured
func setupTestRouter(service *timeline.TimelineService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api/v1")
	api.SetupTimelineRoutes(apiGroup, service, noopPusher{})

	return router
}

// recordingSink captures overlay commands emitted during playback
type recordingSink struct {
	mu     sync.Mutex
	shown  []overlay.ShowCommand
	hidden []string
}

func (s *recordingSink) ShowOverlay(cmd overlay.ShowCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = append(s.shown, cmd)
	return nil
}

func (s *recordingSink) UpdateOverlay(overlay.UpdateCommand) error { return nil }

func (s *recordingSink) HideOverlay(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = append(s.hidden, id)
	return nil
}

func (s *recordingSink) shownIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.shown))
	for _, cmd := range s.shown {
		ids = append(ids, cmd.ID)
	}
	return ids
}

// seedTimeline creates a timeline with the given cues through the service
func seedTimeline(t *testing.T, service *timeline.TimelineService, cues ...cue.Cue) uuid.UUID {
	t.Helper()

	tl, err := service.CreateTimeline(context.Background(), "Integration Timeline", "https://videos.example/watch?v=int")
	require.NoError(t, err)

	for _, c := range cues {
		_, err := service.AddCue(context.Background(), tl.ID, c)
		require.NoError(t, err)
	}

	return tl.ID
}
