package ingredient

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("ingredient not found")
	ErrDuplicate         = errors.New("ingredient already exists")
	ErrInvalidInput      = errors.New("invalid ingredient")
	ErrUnknownUnit       = errors.New("unknown unit")
	ErrIncompatibleUnits = errors.New("incompatible units")
)

// MapHTTPStatus maps ingredient errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnknownUnit), errors.Is(err, ErrIncompatibleUnits):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
