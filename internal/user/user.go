// Package user stores the local profile of identity-provider users.
package user

import (
	"errors"
	"net/http"
	"time"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidInput = errors.New("invalid profile")
)

// User is the local profile of an authenticated subject.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	UnitSystem      string    `json:"unit_system"`
	DefaultServings int       `json:"default_servings"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UpdateInput struct {
	Name            *string `json:"name" binding:"omitempty,max=100"`
	UnitSystem      *string `json:"unit_system" binding:"omitempty,oneof=metric imperial"`
	DefaultServings *int    `json:"default_servings" binding:"omitempty,min=1,max=100"`
}

func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
