package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/metrics"
	"recipe-planner/internal/testutil"
	"recipe-planner/internal/user"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newRouter(t *testing.T, db pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB := testutil.NewDB(t)
	users := user.NewRepository(sqlDB, zap.NewNop())
	v, err := auth.NewVerifier(auth.Options{Secret: testutil.JWTSecret})
	require.NoError(t, err)

	return NewRouter(Options{
		CORSOrigins: []string{"https://app.example.com"},
		Auth:        auth.NewMiddleware(v, users, []string{"root"}, zap.NewNop()),
		DB:          db,
		Collectors:  metrics.NewCollectors(),
		API:         []Registrar{user.NewHandler(users, zap.NewNop())},
		Admin:       []Registrar{metrics.NewHandler(metrics.NewStore(sqlDB, nil), zap.NewNop())},
		Webhook:     func(c *gin.Context) { c.Status(http.StatusOK) },
	}, zap.NewNop())
}

func TestHealth(t *testing.T) {
	r := newRouter(t, pinger{})

	w := testutil.Do(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.Do(t, r, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	r = newRouter(t, pinger{err: errors.New("closed")})
	w = testutil.Do(t, r, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database unavailable")
}

func TestRoutes(t *testing.T) {
	r := newRouter(t, pinger{})

	t.Run("NotFound", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
	})

	t.Run("API", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodGet, "/api/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = testutil.Do(t, r, http.MethodGet, "/api/me", "alice", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"alice"`)
	})

	t.Run("Admin", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodGet, "/api/admin/usage", "alice", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = testutil.Do(t, r, http.MethodGet, "/api/admin/usage", "root", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Webhook", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodPost, "/telegram/webhook", "", map[string]int{"update_id": 1})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Metrics", func(t *testing.T) {
		w := testutil.Do(t, r, http.MethodGet, "/metrics", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `recipe_planner_http_requests_total{method="GET",path="/api/me",status="200"}`)
	})
}

func TestCORS(t *testing.T) {
	r := newRouter(t, pinger{})

	req := httptest.NewRequest(http.MethodOptions, "/api/me", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), time.Second, zap.NewNop())
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenErrors(t *testing.T) {
	err := Run(context.Background(), "bad::addr::", http.NotFoundHandler(), time.Second, zap.NewNop())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "http server:"))
}
