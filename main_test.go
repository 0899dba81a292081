package main

import (
	"context"
	"facetrack/db"
	"facetrack/handlers"
	"facetrack/models"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newRouter(cookie.NewStore([]byte("test")), true)

	routes := map[string]bool{}
	for _, r := range router.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /session/create",
		"POST /session/evaluate",
		"POST /session/reset",
		"POST /session/delete",
		"GET /session/status",
		"GET /session/outcomes",
		"PUT /session/frame",
		"GET /session/ws",
		"GET /robots.txt",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-cache", w.Header().Get("cache-control"))
}

func TestStartTracker(t *testing.T) {
	instance, err := db.Open("", filepath.Join(t.TempDir(), "main.db"))
	require.NoError(t, err)
	db.Instance = instance
	require.NoError(t, models.Init())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracker := startTracker(ctx, time.Millisecond, time.Millisecond, nil)
	assert.Same(t, tracker, handlers.Tracker)
	assert.NotNil(t, tracker.OnRemove)

	s, err := tracker.Create(3, 2)
	require.NoError(t, err)
	_, err = models.NewTrackingSession(s.ID, 3, 2)
	require.NoError(t, err)

	// Idle sessions are dropped by the cleanup loop and closed in the DB
	assert.Eventually(t, func() bool {
		ts, err := models.TrackingSessionByID(s.ID)
		return err == nil && ts.ClosedAt != 0 && tracker.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
}
