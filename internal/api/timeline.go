package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/cue"
	"github.com/cueline/cueline/internal/db"
	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/models"
	"github.com/cueline/cueline/internal/timeline"
)

// Request/Response DTOs

// CreateTimelineRequest represents a request to create a new timeline
type CreateTimelineRequest struct {
	Title     string `json:"title" binding:"required"`
	SourceURL string `json:"source_url" binding:"required"`
}

// UpdateTimelineRequest represents a request to update timeline metadata (partial update)
type UpdateTimelineRequest struct {
	Title     *string `json:"title,omitempty"`
	SourceURL *string `json:"source_url,omitempty"`
}

// TimelineResponse represents a timeline in API responses
type TimelineResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	SourceURL string    `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimelineListResponse represents a list of timelines
type TimelineListResponse struct {
	Timelines []*TimelineResponse `json:"timelines"`
}

// CueListResponse represents a timeline's cues in playback order
type CueListResponse struct {
	TimelineID string    `json:"timeline_id"`
	Cues       []cue.Cue `json:"cues"`
}

// ReplaceCuesRequest replaces a timeline's whole cue list
type ReplaceCuesRequest struct {
	Cues []cue.Cue `json:"cues" binding:"required"`
}

// sessionPusher pushes timeline edits into live playback sessions
type sessionPusher interface {
	PushTimeline(ctx context.Context, timelineID uuid.UUID) error
	HideCue(timelineID uuid.UUID, cueID string)
}

// TimelineHandler handles timeline and cue API requests
type TimelineHandler struct {
	timelineService *timeline.TimelineService
	sessions        sessionPusher
}

// NewTimelineHandler creates a new timeline handler instance
func NewTimelineHandler(timelineService *timeline.TimelineService, sessions sessionPusher) *TimelineHandler {
	return &TimelineHandler{
		timelineService: timelineService,
		sessions:        sessions,
	}
}

// toTimelineResponse converts a timeline model to API response format
func toTimelineResponse(t *models.Timeline) *TimelineResponse {
	return &TimelineResponse{
		ID:        t.ID.String(),
		Title:     t.Title,
		SourceURL: t.SourceURL,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// CreateTimeline handles POST /api/v1/timelines
func (h *TimelineHandler) CreateTimeline(c *gin.Context) {
	var req CreateTimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	created, err := h.timelineService.CreateTimeline(ctx, req.Title, req.SourceURL)
	if err != nil {
		if errors.Is(err, db.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_input",
				Message: err.Error(),
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("title", req.Title).
			Msg("Failed to create timeline")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create timeline",
		})
		return
	}

	c.JSON(http.StatusCreated, toTimelineResponse(created))
}

// ListTimelines handles GET /api/v1/timelines
func (h *TimelineHandler) ListTimelines(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	timelines, err := h.timelineService.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list timelines",
		})
		return
	}

	response := TimelineListResponse{Timelines: make([]*TimelineResponse, 0, len(timelines))}
	for _, t := range timelines {
		response.Timelines = append(response.Timelines, toTimelineResponse(t))
	}
	c.JSON(http.StatusOK, response)
}

// GetTimeline handles GET /api/v1/timelines/:timeline_id
func (h *TimelineHandler) GetTimeline(c *gin.Context) {
	timelineID, ok := parseTimelineID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	t, err := h.timelineService.GetByID(ctx, timelineID)
	if err != nil {
		respondTimelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimelineResponse(t))
}

// ResolveTimeline handles GET /api/v1/timelines/resolve?url=...
// Returns the timeline authored for a host page, with its cue list. The
// content script uses this to decide whether a page has a timeline at all.
func (h *TimelineHandler) ResolveTimeline(c *gin.Context) {
	sourceURL := c.Query("url")
	if sourceURL == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_url",
			Message: "Query parameter 'url' is required",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	t, err := h.timelineService.GetBySourceURL(ctx, sourceURL)
	if err != nil {
		respondTimelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimelineResponse(t))
}

// UpdateTimeline handles PATCH /api/v1/timelines/:timeline_id
func (h *TimelineHandler) UpdateTimeline(c *gin.Context) {
	timelineID, ok := parseTimelineID(c)
	if !ok {
		return
	}

	var req UpdateTimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	t, err := h.timelineService.GetByID(ctx, timelineID)
	if err != nil {
		respondTimelineError(c, err)
		return
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.SourceURL != nil {
		t.SourceURL = *req.SourceURL
	}

	if err := h.timelineService.UpdateTimeline(ctx, t); err != nil {
		respondTimelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimelineResponse(t))
}

// DeleteTimeline handles DELETE /api/v1/timelines/:timeline_id
func (h *TimelineHandler) DeleteTimeline(c *gin.Context) {
	timelineID, ok := parseTimelineID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.timelineService.DeleteTimeline(ctx, timelineID); err != nil {
		respondTimelineError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCues handles GET /api/v1/timelines/:timeline_id/cues
func (h *TimelineHandler) ListCues(c *gin.Context) {
	timelineID, ok := parseTimelineID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.timelineService.GetByID(ctx, timelineID); err != nil {
		respondTimelineError(c, err)
		return
	}

	snapshot, err := h.timelineService.Snapshot(ctx, timelineID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to load cues",
		})
		return
	}

	c.JSON(http.StatusOK, CueListResponse{
		TimelineID: timelineID.String(),
		Cues:       snapshot.All(),
	})
}

// AddCue handles POST /api/v1/timelines/:timeline_id/cues
func (h *TimelineHandler) AddCue(c *gin.Context) {
	timelineID, ok := parseTimelineID(c)
	if !ok {
		return
	}

	var req cue.Cue
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	row, err := h.timelineService.AddCue(ctx, timelineID, req)
	if err != nil {
		respondTimelineError(c, err)
		return
	}

	h.pushToSessions(timelineID)

	added, err := row.Cue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to decode stored cue",
		})
		return
	}
	c.JSON(http.StatusCreated, added)
}

// ReplaceCues handles PUT /api/v1/timelines/:timeline_id/cues
func (h *TimelineHandler) ReplaceCues(c *gin.Context) {
	timelineID, ok := parseTimelineID(c)
	if !ok {
		return
	}

	var req ReplaceCuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.timelineService.ReplaceCues(ctx, timelineID, req.Cues)
	if err != nil {
		respondTimelineError(c, err)
		return
	}

	h.pushToSessions(timelineID)

	cues := make([]cue.Cue, 0, len(rows))
	for _, row := range rows {
		decoded, derr := row.Cue()
		if derr != nil {
			continue
		}
		cues = append(cues, decoded)
	}
	c.JSON(http.StatusOK, CueListResponse{TimelineID: timelineID.String(), Cues: cues})
}

// UpdateCue handles PATCH /api/v1/cues/:cue_id
func (h *TimelineHandler) UpdateCue(c *gin.Context) {
	cueID, ok := parseCueID(c)
	if !ok {
		return
	}

	var req cue.Cue
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	row, err := h.timelineService.UpdateCue(ctx, cueID, req)
	if err != nil {
		respondTimelineError(c, err)
		return
	}

	// the edited cue's overlay may be on screen with stale content
	h.sessions.HideCue(row.TimelineID, cueID.String())
	h.pushToSessions(row.TimelineID)

	updated, err := row.Cue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to decode stored cue",
		})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCue handles DELETE /api/v1/cues/:cue_id
func (h *TimelineHandler) DeleteCue(c *gin.Context) {
	cueID, ok := parseCueID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	row, err := h.timelineService.DeleteCue(ctx, cueID)
	if err != nil {
		respondTimelineError(c, err)
		return
	}

	h.sessions.HideCue(row.TimelineID, cueID.String())
	h.pushToSessions(row.TimelineID)

	c.Status(http.StatusNoContent)
}

// pushToSessions reloads the timeline into live sessions, best effort: the
// edit already persisted, a push failure only delays the pages until the
// next reconnect.
func (h *TimelineHandler) pushToSessions(timelineID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.sessions.PushTimeline(ctx, timelineID); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("timeline_id", timelineID.String()).
			Msg("Failed to push cue snapshot to live sessions")
	}
}

// parseTimelineID extracts and validates the timeline_id path parameter
func parseTimelineID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("timeline_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid timeline ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// parseCueID extracts and validates the cue_id path parameter
func parseCueID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("cue_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid cue ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondTimelineError maps service errors to HTTP responses
func respondTimelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, timeline.ErrTimelineNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Timeline not found",
		})
	case errors.Is(err, timeline.ErrCueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Cue not found",
		})
	case errors.Is(err, timeline.ErrInvalidCue):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_cue",
			Message: err.Error(),
		})
	case errors.Is(err, db.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Operation failed",
		})
	}
}

// SetupTimelineRoutes registers timeline and cue routes
func SetupTimelineRoutes(apiGroup *gin.RouterGroup, timelineService *timeline.TimelineService, sessions sessionPusher) {
	handler := NewTimelineHandler(timelineService, sessions)

	timelines := apiGroup.Group("/timelines")
	{
		timelines.POST("", handler.CreateTimeline)
		timelines.GET("", handler.ListTimelines)
		timelines.GET("/resolve", handler.ResolveTimeline)
		timelines.GET("/:timeline_id", handler.GetTimeline)
		timelines.PATCH("/:timeline_id", handler.UpdateTimeline)
		timelines.DELETE("/:timeline_id", handler.DeleteTimeline)
		timelines.GET("/:timeline_id/cues", handler.ListCues)
		timelines.POST("/:timeline_id/cues", handler.AddCue)
		timelines.PUT("/:timeline_id/cues", handler.ReplaceCues)
	}

	cues := apiGroup.Group("/cues")
	{
		cues.PATCH("/:cue_id", handler.UpdateCue)
		cues.DELETE("/:cue_id", handler.DeleteCue)
	}
}
