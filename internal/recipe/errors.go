package recipe

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("recipe not found")
	ErrForbidden    = errors.New("recipe belongs to another user")
	ErrInvalidInput = errors.New("invalid recipe")

	// ErrNoRecipe means the source was read but held no recognisable recipe.
	ErrNoRecipe = errors.New("no recipe found")
	// ErrExtractorUnavailable means the LLM needed for extraction is not configured.
	ErrExtractorUnavailable = errors.New("recipe extraction is not configured")
	// ErrExtraction wraps LLM provider failures.
	ErrExtraction = errors.New("recipe extraction failed")
)

// MapHTTPStatus maps recipe errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoRecipe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrExtractorUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrExtraction):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
