// Package video imports recipes from short cooking videos through a bounded
// background job queue.
package video

import (
	"errors"
	"net/http"
	"time"

	"recipe-planner/internal/clipper"
	"recipe-planner/internal/recipe"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

var (
	ErrNotFound       = errors.New("video job not found")
	ErrForbidden      = errors.New("video job belongs to another user")
	ErrQueueFull      = errors.New("video queue is full, try again later")
	ErrNotCancellable = errors.New("only queued jobs can be cancelled")
)

// MapHTTPStatus maps video errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, clipper.ErrInvalidURL):
		return http.StatusBadRequest
	}
	return recipe.MapHTTPStatus(err)
}

type Job struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	RecipeID  string    `json:"recipe_id,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed || j.Status == StatusCancelled
}
