// Package grocery builds shopping lists, by hand or from a meal plan.
package grocery

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"recipe-planner/internal/mealplan"
)

var (
	ErrNotFound     = errors.New("grocery list not found")
	ErrItemNotFound = errors.New("grocery item not found")
	ErrForbidden    = errors.New("grocery list belongs to another user")
	ErrInvalidInput = errors.New("invalid grocery list")
)

// MapHTTPStatus maps grocery errors, and the meal plan and recipe errors
// surfacing through them, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	}
	return mealplan.MapHTTPStatus(err)
}

type List struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MealPlanID string    `json:"meal_plan_id,omitempty"`
	Name       string    `json:"name"`
	Items      []Item    `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Item struct {
	ID        string              `json:"id"`
	ListID    string              `json:"grocery_list_id"`
	Position  int                 `json:"position"`
	Name      string              `json:"name"`
	Quantity  decimal.NullDecimal `json:"quantity"`
	Unit      string              `json:"unit"`
	Category  string              `json:"category"`
	Checked   bool                `json:"checked"`
	Sources   []string            `json:"sources"`
	CreatedAt time.Time           `json:"created_at"`
}

// Remaining counts the unchecked items.
func (l *List) Remaining() int {
	n := 0
	for _, it := range l.Items {
		if !it.Checked {
			n++
		}
	}
	return n
}

type Input struct {
	Name  string      `json:"name" binding:"required,max=200"`
	Items []ItemInput `json:"items" binding:"omitempty,max=500,dive"`
}

type ItemInput struct {
	Name     string              `json:"name" binding:"required,max=200"`
	Quantity decimal.NullDecimal `json:"quantity"`
	Unit     string              `json:"unit" binding:"max=32"`
	Category string              `json:"category" binding:"omitempty,oneof=produce dairy meat pantry spice bakery frozen other"`
}

type ItemPatch struct {
	Checked *bool `json:"checked" binding:"required"`
}
