// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cueline/cueline/internal/api"
	"github.com/cueline/cueline/internal/bridge"
	"github.com/cueline/cueline/internal/config"
	"github.com/cueline/cueline/internal/db"
	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/media"
	"github.com/cueline/cueline/internal/middleware"
	"github.com/cueline/cueline/internal/timeline"
)

// Server represents the HTTP server
type Server struct {
	config          *config.Config
	db              *db.DB
	repos           *db.Repositories
	timelineService *timeline.TimelineService
	mediaService    *media.Service
	bridgeManager   *bridge.Manager
	router          *gin.Engine
	server          *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) (*Server, error) {
	repos := db.NewRepositories(database)
	timelineService := timeline.NewTimelineService(repos)

	library, err := media.NewLibrary(cfg.Media.LibraryPath, cfg.Media.SupportedFormats)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media library: %w", err)
	}
	mediaService := media.NewService(library, repos.MediaAssets)

	bridgeManager := bridge.NewManager(timelineService, cfg.Playback, nil)

	return &Server{
		config:          cfg,
		db:              database,
		repos:           repos,
		timelineService: timelineService,
		mediaService:    mediaService,
		bridgeManager:   bridgeManager,
	}, nil
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestLogger())
	s.router.Use(gin.Recovery())
	// the content script runs in the origin of whatever page it is injected
	// into, so every origin must be allowed
	s.router.Use(cors.Default())

	apiGroup := s.router.Group("/api/v1")

	api.SetupHealthRoutes(apiGroup, s.db, s.bridgeManager)
	api.SetupTimelineRoutes(apiGroup, s.timelineService, s.bridgeManager)
	api.SetupMediaRoutes(apiGroup, s.mediaService)
	api.SetupSessionRoutes(apiGroup, s.bridgeManager)
	api.SetupSettingsRoutes(apiGroup, s.repos.Settings)

	// content script WebSocket endpoint
	s.router.GET("/ws", func(c *gin.Context) {
		s.bridgeManager.HandleWebSocket(c.Writer, c.Request)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.setupRouter()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Close live sessions first so content scripts disconnect cleanly
	if s.bridgeManager != nil {
		s.bridgeManager.Shutdown()
	}

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
