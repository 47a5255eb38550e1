package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cueline/cueline/internal/bridge"
)

// stubDirectory serves a fixed session map. Live sessions need a WebSocket
// peer, so handler tests only cover the paths that never reach one.
type stubDirectory struct {
	sessions map[uuid.UUID]*bridge.Session
}

func (d *stubDirectory) Get(id uuid.UUID) (*bridge.Session, bool) {
	s, ok := d.sessions[id]
	return s, ok
}

func (d *stubDirectory) List() []*bridge.Session {
	out := make([]*bridge.Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		out = append(out, s)
	}
	return out
}

func setupSessionRouter(dir *stubDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api/v1")
	SetupSessionRoutes(apiGroup, dir)
	return router
}

func TestListSessions_Empty(t *testing.T) {
	router := setupSessionRouter(&stubDirectory{})

	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp SessionListResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Empty(t, resp.Sessions)
}

func TestGetSession_NotFound(t *testing.T) {
	router := setupSessionRouter(&stubDirectory{})

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/sessions/%s", uuid.New()), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "not_found", resp.Error)
}

func TestGetSession_InvalidID(t *testing.T) {
	router := setupSessionRouter(&stubDirectory{})

	req := httptest.NewRequest("GET", "/api/v1/sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "invalid_id", resp.Error)
}

func TestSeekSession_NotFound(t *testing.T) {
	router := setupSessionRouter(&stubDirectory{})

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/sessions/%s/seek", uuid.New()), strings.NewReader(`{"position_ms": 5000}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHideSessionCue_NotFound(t *testing.T) {
	router := setupSessionRouter(&stubDirectory{})

	req := httptest.NewRequest("POST", fmt.Sprintf("/api/v1/sessions/%s/cues/c1/hide", uuid.New()), nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
