package saved

import (
	"errors"
	"net/http"

	"recipe-planner/internal/recipe"
)

var (
	ErrNotFound     = errors.New("saved recipe not found")
	ErrForbidden    = errors.New("saved recipe belongs to another user")
	ErrDuplicate    = errors.New("recipe already saved")
	ErrInvalidInput = errors.New("invalid saved recipe")
)

// MapHTTPStatus maps saved-recipe errors, and the recipe errors surfacing
// through them, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	}
	return recipe.MapHTTPStatus(err)
}
