package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/models"
)

// settingsStore abstracts persistence of the extension preferences row
type settingsStore interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, settings *models.Settings) error
}

// UpdateSettingsRequest carries the full preferences row; partial updates
// are not supported, the extension popup always submits every field.
type UpdateSettingsRequest struct {
	DefaultOverlayDuration float64 `json:"default_overlay_duration" binding:"required,gt=0"`
	MuteOverlaysByDefault  bool    `json:"mute_overlays_by_default"`
	PauseOnOverlayDefault  bool    `json:"pause_on_overlay_default"`
}

// SettingsHandler handles extension preference requests
type SettingsHandler struct {
	store settingsStore
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(store settingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// GetSettings handles GET /api/v1/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	settings, err := h.store.Get(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load settings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load settings",
		})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/v1/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// Get seeds the row on a fresh install so the update always has a target
	if _, err := h.store.Get(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to load settings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load settings",
		})
		return
	}

	settings := &models.Settings{
		DefaultOverlayDuration: req.DefaultOverlayDuration,
		MuteOverlaysByDefault:  req.MuteOverlaysByDefault,
		PauseOnOverlayDefault:  req.PauseOnOverlayDefault,
	}
	if err := h.store.Update(ctx, settings); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to update settings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update settings",
		})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SetupSettingsRoutes registers settings routes
func SetupSettingsRoutes(apiGroup *gin.RouterGroup, store settingsStore) {
	handler := NewSettingsHandler(store)
	group := apiGroup.Group("/settings")
	{
		group.GET("", handler.GetSettings)
		group.PUT("", handler.UpdateSettings)
	}
}
