// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"recipe-planner/internal/auth"
	"recipe-planner/internal/database"
	"recipe-planner/internal/pagination"
)

// JWTSecret signs tokens created by Token.
const JWTSecret = "test-secret"

// Pagination is the page config handlers get in tests.
var Pagination = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

// NewDB returns a migrated SQLite database living in t.TempDir().
func NewDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewDB(context.Background(), database.Options{
		Driver: string(database.SQLite),
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// CreateUser inserts a bare user row so foreign keys hold.
func CreateUser(t *testing.T, db *database.DB, id string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
		id, now, now)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", id, err)
	}
}

// Token returns an HS256 bearer token for subject signed with JWTSecret.
func Token(t *testing.T, subject string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   subject,
		"email": subject + "@example.com",
		"name":  subject,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// Authorize sets the bearer token for subject on req.
func Authorize(t *testing.T, req *http.Request, subject string) *http.Request {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+Token(t, subject))
	return req
}

type userRows struct{ db *database.DB }

func (u userRows) Ensure(ctx context.Context, id, email, name string) error {
	now := time.Now().UTC()
	_, err := u.db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING",
		id, email, name, now, now)
	return err
}

// Router returns an engine and its authenticated /api group. Tokens from
// Token are accepted and unknown subjects get a user row on first use.
func Router(t *testing.T, db *database.DB, adminIDs ...string) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	r, api, _ := router(t, db, adminIDs)
	return r, api
}

// AdminRouter is Router returning the /api/admin group, open to adminIDs only.
func AdminRouter(t *testing.T, db *database.DB, adminIDs ...string) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	r, api, mw := router(t, db, adminIDs)
	return r, api.Group("/admin", mw.RequireAdmin())
}

func router(t *testing.T, db *database.DB, adminIDs []string) (*gin.Engine, *gin.RouterGroup, *auth.Middleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	v, err := auth.NewVerifier(auth.Options{Secret: JWTSecret})
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	mw := auth.NewMiddleware(v, userRows{db}, adminIDs, zap.NewNop())

	r := gin.New()
	return r, r.Group("/api", mw.Authenticate()), mw
}

// Do sends a JSON request as subject and records the response. An empty
// subject sends no token.
func Do(t *testing.T, h http.Handler, method, path, subject string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if subject != "" {
		Authorize(t, req, subject)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Decode unmarshals a recorded JSON response into v.
func Decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}
