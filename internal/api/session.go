package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/bridge"
)

// sessionDirectory exposes the live sessions to the API
type sessionDirectory interface {
	Get(id uuid.UUID) (*bridge.Session, bool)
	List() []*bridge.Session
}

// SessionListResponse represents the live playback sessions
type SessionListResponse struct {
	Sessions []bridge.SessionStatus `json:"sessions"`
}

// SeekRequest represents a request to move a session's playback position
type SeekRequest struct {
	PositionMs float64 `json:"position_ms" binding:"gte=0"`
}

// SessionHandler handles live session API requests. The instruction editor
// uses these endpoints to preview a timeline against the page playing it.
type SessionHandler struct {
	sessions sessionDirectory
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessions sessionDirectory) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(c *gin.Context) {
	live := h.sessions.List()
	response := SessionListResponse{Sessions: make([]bridge.SessionStatus, 0, len(live))}
	for _, s := range live {
		response.Sessions = append(response.Sessions, s.Status())
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/v1/sessions/:session_id
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Status())
}

// Seek handles POST /api/v1/sessions/:session_id/seek
func (h *SessionHandler) Seek(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	session.Controller().SeekTo(req.PositionMs)
	c.JSON(http.StatusOK, session.Status())
}

// HideCue handles POST /api/v1/sessions/:session_id/cues/:cue_id/hide
// Force-expires the cue's overlay in this session.
func (h *SessionHandler) HideCue(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	cueID := c.Param("cue_id")
	if cueID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Cue ID is required",
		})
		return
	}

	session.Controller().HideCue(cueID)
	c.JSON(http.StatusOK, session.Status())
}

// lookup resolves the session_id path parameter to a live session
func (h *SessionHandler) lookup(c *gin.Context) (*bridge.Session, bool) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid session ID format",
		})
		return nil, false
	}

	session, ok := h.sessions.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Session not found or no longer connected",
		})
		return nil, false
	}
	return session, true
}

// SetupSessionRoutes registers live session routes
func SetupSessionRoutes(apiGroup *gin.RouterGroup, sessions sessionDirectory) {
	handler := NewSessionHandler(sessions)

	group := apiGroup.Group("/sessions")
	{
		group.GET("", handler.List)
		group.GET("/:session_id", handler.Get)
		group.POST("/:session_id/seek", handler.Seek)
		group.POST("/:session_id/cues/:cue_id/hide", handler.HideCue)
	}
}
