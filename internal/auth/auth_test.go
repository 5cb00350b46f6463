package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeUsers) Ensure(_ context.Context, id, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[id]++
	return nil
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims(sub string) jwt.MapClaims {
	return jwt.MapClaims{"sub": sub, "exp": time.Now().Add(time.Hour).Unix()}
}

func TestVerifierHS256(t *testing.T) {
	v, err := NewVerifier(Options{Secret: "s3cret", Issuer: "https://id.test", Audience: "recipes"})
	require.NoError(t, err)

	claims := validClaims("user-1")
	claims["iss"] = "https://id.test"
	claims["aud"] = "recipes"
	claims["email"] = "u@test"

	got, err := v.Verify(sign(t, jwt.SigningMethodHS256, []byte("s3cret"), claims))
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.Subject)
	assert.Equal(t, "u@test", got.Email)

	tests := map[string]jwt.MapClaims{
		"wrong issuer":   {"sub": "u", "iss": "evil", "aud": "recipes", "exp": time.Now().Add(time.Hour).Unix()},
		"wrong audience": {"sub": "u", "iss": "https://id.test", "aud": "other", "exp": time.Now().Add(time.Hour).Unix()},
		"expired":        {"sub": "u", "iss": "https://id.test", "aud": "recipes", "exp": time.Now().Add(-time.Hour).Unix()},
		"no expiry":      {"sub": "u", "iss": "https://id.test", "aud": "recipes"},
		"no subject":     {"iss": "https://id.test", "aud": "recipes", "exp": time.Now().Add(time.Hour).Unix()},
	}
	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(sign(t, jwt.SigningMethodHS256, []byte("s3cret"), c))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = v.Verify(sign(t, jwt.SigningMethodHS256, []byte("other"), claims))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierRS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "pub.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	v, err := NewVerifier(Options{PublicKeyFile: path, Secret: "ignored"})
	require.NoError(t, err)

	got, err := v.Verify(sign(t, jwt.SigningMethodRS256, key, validClaims("rsa-user")))
	require.NoError(t, err)
	assert.Equal(t, "rsa-user", got.Subject)

	// HS256 tokens are rejected once a public key is configured.
	_, err = v.Verify(sign(t, jwt.SigningMethodHS256, []byte("ignored"), validClaims("x")))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewVerifierWithoutKeys(t *testing.T) {
	_, err := NewVerifier(Options{})
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	v, err := NewVerifier(Options{Secret: "s3cret"})
	require.NoError(t, err)
	users := &fakeUsers{}
	m := NewMiddleware(v, users, []string{"admin"}, zap.NewNop())

	r := gin.New()
	api := r.Group("/api", m.Authenticate())
	api.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, UserID(c)) })
	api.GET("/admin", m.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("/api/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/api/whoami", "garbage").Code)

	token := sign(t, jwt.SigningMethodHS256, []byte("s3cret"), validClaims("alice"))
	w := call("/api/whoami", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	call("/api/whoami", token)
	assert.Equal(t, 1, users.calls["alice"], "user is ensured once")

	assert.Equal(t, http.StatusForbidden, call("/api/admin", token).Code)

	admin := sign(t, jwt.SigningMethodHS256, []byte("s3cret"), validClaims("admin"))
	assert.Equal(t, http.StatusNoContent, call("/api/admin", admin).Code)
}
