package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cueline/cueline/internal/db"
	"github.com/cueline/cueline/internal/models"
)

func setupSettingsRouter(t *testing.T, repos *db.Repositories) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api/v1")
	SetupSettingsRoutes(apiGroup, repos.Settings)
	return router
}

func TestGetSettings(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router := setupSettingsRouter(t, repos)

	t.Run("Fresh install returns defaults", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var settings models.Settings
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
		assert.Equal(t, 5.0, settings.DefaultOverlayDuration)
		assert.False(t, settings.MuteOverlaysByDefault)
		assert.False(t, settings.PauseOnOverlayDefault)
	})
}

func TestUpdateSettings(t *testing.T) {
	_, repos, cleanup := setupTestDB(t)
	defer cleanup()

	router := setupSettingsRouter(t, repos)

	t.Run("Valid update persists", func(t *testing.T) {
		body, err := json.Marshal(UpdateSettingsRequest{
			DefaultOverlayDuration: 8,
			MuteOverlaysByDefault:  true,
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var settings models.Settings
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
		assert.Equal(t, 8.0, settings.DefaultOverlayDuration)
		assert.True(t, settings.MuteOverlaysByDefault)
	})

	t.Run("Update can clear boolean preferences", func(t *testing.T) {
		body, err := json.Marshal(UpdateSettingsRequest{DefaultOverlayDuration: 5})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var settings models.Settings
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
		assert.False(t, settings.MuteOverlaysByDefault)
	})

	t.Run("Zero duration returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewReader([]byte(`{"default_overlay_duration":0}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
