// Package auth verifies bearer tokens issued by the identity provider and
// exposes the authenticated user to gin handlers.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("forbidden")
)

// Options configures token verification. Exactly one of Secret (HS256) or
// PublicKeyFile (RS256, PEM) is used; the public key wins when both are set.
type Options struct {
	Secret        string
	PublicKeyFile string
	Issuer        string
	Audience      string
}

// Claims are the token claims the service relies on. Subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	key    any
	method string
	parser *jwt.Parser
}

func NewVerifier(opts Options) (*Verifier, error) {
	parserOpts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(opts.Audience))
	}

	v := &Verifier{}
	switch {
	case opts.PublicKeyFile != "":
		key, err := loadRSAPublicKey(opts.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		v.key, v.method = key, jwt.SigningMethodRS256.Alg()
	case opts.Secret != "":
		v.key, v.method = []byte(opts.Secret), jwt.SigningMethodHS256.Alg()
	default:
		return nil, fmt.Errorf("auth: no secret or public key configured")
	}

	parserOpts = append(parserOpts, jwt.WithValidMethods([]string{v.method}))
	v.parser = jwt.NewParser(parserOpts...)
	return v, nil
}

func loadRSAPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key, nil
}

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
