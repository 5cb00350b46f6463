package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipe-planner/internal/config"
	"recipe-planner/internal/pagination"
	"recipe-planner/internal/recipe"
	"recipe-planner/internal/testutil"
)

const recipePage = `<html><head><title>Lemon Cake</title>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Recipe","name":"Lemon Cake",
 "recipeYield":"8","recipeIngredient":["200 g flour","2 lemons"],
 "recipeInstructions":[{"@type":"HowToStep","text":"Mix."},{"@type":"HowToStep","text":"Bake."}]}
</script></head><body></body></html>`

func newApp(t *testing.T, edit ...func(*config.Config)) *App {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		HTTP:       config.HTTPConfig{Addr: "127.0.0.1:0", ShutdownTimeout: "1s"},
		Database:   config.DatabaseConfig{Driver: config.DriverSQLite, Path: filepath.Join(dir, "app.db")},
		Auth:       config.AuthConfig{JWTSecret: testutil.JWTSecret, AdminUserIDs: []string{"root"}},
		Cache:      config.CacheConfig{TTL: "1m"},
		Video:      config.VideoConfig{Workers: 1, QueueSize: 4, JobTimeout: "5s", MaxAttempts: 1},
		Storage:    config.StorageConfig{ImagePath: filepath.Join(dir, "images"), MaxUploadSize: "1MB"},
		Pagination: pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	}
	for _, fn := range edit {
		fn(cfg)
	}
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew(t *testing.T) {
	a := newApp(t)
	h := a.Handler()

	w := testutil.Do(t, h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.Do(t, h, http.MethodGet, "/api/recipes", "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.Do(t, h, http.MethodGet, "/api/admin/usage", "root", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutil.Do(t, h, http.MethodPost, "/api/imports/image", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportURL(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, recipePage)
	}))
	t.Cleanup(page.Close)

	a := newApp(t)
	rec, err := a.ImportURL(context.Background(), "cli-user", page.URL+"/lemon-cake")
	require.NoError(t, err)
	assert.Equal(t, "Lemon Cake", rec.Title)
	assert.Equal(t, "cli-user", rec.UserID)
	assert.Equal(t, recipe.SourceURL, rec.Source)
	assert.Len(t, rec.Ingredients, 2)

	w := testutil.Do(t, a.Handler(), http.MethodGet, "/api/recipes/"+rec.ID, "cli-user", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCleanupMetrics(t *testing.T) {
	a := newApp(t)
	n, err := a.CleanupMetrics(context.Background(), 30)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestServeStops(t *testing.T) {
	a := newApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestNewWithoutTelegramOption(t *testing.T) {
	// A token Telegram would reject: building the bot here would fail.
	a := newApp(t, func(cfg *config.Config) {
		cfg.Telegram = config.TelegramConfig{
			BotToken:      "not-a-token",
			WebhookURL:    "https://bot.test/telegram/webhook",
			WebhookSecret: "hook-secret",
		}
	})

	assert.Nil(t, a.bot)
	w := testutil.Do(t, a.Handler(), http.MethodPost, "/telegram/webhook", "", map[string]int{"update_id": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
