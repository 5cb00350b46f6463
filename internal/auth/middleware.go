package auth

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-planner/internal/handlers"
)

const userIDKey = "auth.user_id"

// UserStore creates the local user record the first time a subject is seen.
type UserStore interface {
	Ensure(ctx context.Context, id, email, name string) error
}

type Middleware struct {
	verifier *Verifier
	users    UserStore
	admins   map[string]bool
	logger   *zap.Logger
	known    sync.Map
}

func NewMiddleware(verifier *Verifier, users UserStore, adminIDs []string, logger *zap.Logger) *Middleware {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Middleware{verifier: verifier, users: users, admins: admins, logger: logger}
}

// Authenticate rejects requests without a valid bearer token with 401.
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			handlers.RespondError(c, m.logger, http.StatusUnauthorized, ErrMissingToken)
			return
		}

		claims, err := m.verifier.Verify(strings.TrimSpace(raw))
		if err != nil {
			handlers.RespondError(c, m.logger, http.StatusUnauthorized, ErrInvalidToken)
			return
		}

		if _, seen := m.known.Load(claims.Subject); !seen {
			if err := m.users.Ensure(c.Request.Context(), claims.Subject, claims.Email, claims.Name); err != nil {
				handlers.RespondError(c, m.logger, http.StatusInternalServerError, err)
				return
			}
			m.known.Store(claims.Subject, struct{}{})
		}

		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

// RequireAdmin answers 403 unless the authenticated user is an admin.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.IsAdmin(UserID(c)) {
			handlers.RespondError(c, m.logger, http.StatusForbidden, ErrForbidden)
			return
		}
		c.Next()
	}
}

func (m *Middleware) IsAdmin(userID string) bool {
	return userID != "" && m.admins[userID]
}

// UserID returns the authenticated user id, or "" outside Authenticate.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// SetUserID is used by front ends that authenticate users themselves.
func SetUserID(c *gin.Context, id string) {
	c.Set(userIDKey, id)
}
