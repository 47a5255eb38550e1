package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cueline/cueline/internal/db"
	"github.com/cueline/cueline/internal/logger"
	"github.com/cueline/cueline/internal/media"
	"github.com/cueline/cueline/internal/models"
)

// maxUploadBytes caps overlay media uploads at 100 MB.
const maxUploadBytes = 100 << 20

// MediaAssetResponse represents a media asset in API responses
type MediaAssetResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MIME      string    `json:"mime"`
	FileSize  int64     `json:"file_size"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaListResponse represents a list of media assets
type MediaListResponse struct {
	Assets []*MediaAssetResponse `json:"assets"`
}

// UploadResponse represents a completed upload
type UploadResponse struct {
	Asset    *MediaAssetResponse `json:"asset"`
	Duration float64             `json:"duration,omitempty"`
}

// MediaHandler handles media library API requests
type MediaHandler struct {
	mediaService *media.Service
}

// NewMediaHandler creates a new media handler instance
func NewMediaHandler(mediaService *media.Service) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// toMediaAssetResponse converts an asset model to API response format
func (h *MediaHandler) toMediaAssetResponse(asset *models.MediaAsset) *MediaAssetResponse {
	return &MediaAssetResponse{
		ID:        asset.ID.String(),
		Name:      asset.Name,
		MIME:      asset.MIME,
		FileSize:  asset.FileSize,
		URL:       h.mediaService.URLFor(asset),
		CreatedAt: asset.CreatedAt,
	}
}

// Upload handles POST /api/v1/media
func (h *MediaHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Multipart field 'file' is required",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Could not read uploaded file",
		})
		return
	}
	defer src.Close() // nolint:errcheck // read-only handle

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := h.mediaService.Upload(ctx, file.Filename, src)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedFormat) {
			c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{
				Error:   "unsupported_format",
				Message: err.Error(),
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("file_name", file.Filename).
			Msg("Media upload failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "upload_failed",
			Message: "Failed to store media file",
		})
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Asset:    h.toMediaAssetResponse(result.Asset),
		Duration: result.Duration,
	})
}

// List handles GET /api/v1/media
func (h *MediaHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	assets, err := h.mediaService.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Failed to list media assets",
		})
		return
	}

	response := MediaListResponse{Assets: make([]*MediaAssetResponse, 0, len(assets))}
	for _, asset := range assets {
		response.Assets = append(response.Assets, h.toMediaAssetResponse(asset))
	}
	c.JSON(http.StatusOK, response)
}

// Clone handles POST /api/v1/media/:media_id/clone
func (h *MediaHandler) Clone(c *gin.Context) {
	mediaID, err := uuid.Parse(c.Param("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid media ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	result, err := h.mediaService.Clone(ctx, mediaID)
	if err != nil {
		if db.IsNotFound(err) || errors.Is(err, media.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media asset not found",
			})
			return
		}
		logger.Log.Error().
			Err(err).
			Str("asset_id", mediaID.String()).
			Msg("Media clone failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "clone_failed",
			Message: "Failed to clone media asset",
		})
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Asset: h.toMediaAssetResponse(result.Asset),
	})
}

// Delete handles DELETE /api/v1/media/:media_id
func (h *MediaHandler) Delete(c *gin.Context) {
	mediaID, err := uuid.Parse(c.Param("media_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid media ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.mediaService.Delete(ctx, mediaID); err != nil {
		if db.IsNotFound(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media asset not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete media asset",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// ServeFile handles GET /api/v1/media/files/:file_name
// Overlay elements in the host page load their media from here.
func (h *MediaHandler) ServeFile(c *gin.Context) {
	path, err := h.mediaService.FilePath(c.Param("file_name"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Media file not found",
		})
		return
	}
	c.File(path)
}

// SetupMediaRoutes registers media library routes
func SetupMediaRoutes(apiGroup *gin.RouterGroup, mediaService *media.Service) {
	handler := NewMediaHandler(mediaService)

	mediaGroup := apiGroup.Group("/media")
	{
		mediaGroup.POST("", handler.Upload)
		mediaGroup.POST("/:media_id/clone", handler.Clone)
		mediaGroup.GET("", handler.List)
		mediaGroup.DELETE("/:media_id", handler.Delete)
		mediaGroup.GET("/files/:file_name", handler.ServeFile)
	}
}
