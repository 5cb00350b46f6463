// Package mealplan assigns recipes to dated meal slots.
package mealplan

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"recipe-planner/internal/recipe"
)

const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
	SlotSnack     = "snack"

	// DateLayout is the format of plan and entry dates.
	DateLayout = "2006-01-02"
	// MaxDays is the longest plan, both ends included.
	MaxDays = 31
)

// Slots lists the meal slots in the order of a day.
var Slots = []string{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

var (
	ErrNotFound      = errors.New("meal plan not found")
	ErrEntryNotFound = errors.New("meal plan entry not found")
	ErrForbidden     = errors.New("meal plan belongs to another user")
	ErrInvalidInput  = errors.New("invalid meal plan")
)

// MapHTTPStatus maps meal plan errors, and the recipe errors surfacing
// through them, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	}
	return recipe.MapHTTPStatus(err)
}

type Plan struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Notes     string    `json:"notes"`
	Entries   []Entry   `json:"entries"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Entry struct {
	ID          string    `json:"id"`
	MealPlanID  string    `json:"meal_plan_id"`
	Date        string    `json:"date"`
	Slot        string    `json:"slot"`
	RecipeID    string    `json:"recipe_id"`
	RecipeTitle string    `json:"recipe_title,omitempty"`
	Servings    int       `json:"servings"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

// EntriesOn returns the plan's entries for one date in slot order.
func (p *Plan) EntriesOn(date string) []Entry {
	var out []Entry
	for _, e := range p.Entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

type Input struct {
	Name      string       `json:"name" binding:"required,max=200"`
	StartDate string       `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string       `json:"end_date" binding:"required,datetime=2006-01-02"`
	Notes     string       `json:"notes" binding:"max=2000"`
	Entries   []EntryInput `json:"entries" binding:"omitempty,max=500,dive"`
}

// UpdateInput replaces a plan's fields. Entries are managed on their own.
type UpdateInput struct {
	Name      string `json:"name" binding:"required,max=200"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Notes     string `json:"notes" binding:"max=2000"`
}

type EntryInput struct {
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Slot     string `json:"slot" binding:"required,mealslot"`
	RecipeID string `json:"recipe_id" binding:"required,max=64"`
	// Servings defaults to the recipe's servings when zero.
	Servings int    `json:"servings" binding:"omitempty,min=1,max=500"`
	Note     string `json:"note" binding:"max=500"`
}

// ValidSlot reports whether s is a meal slot.
func ValidSlot(s string) bool {
	return slotOrder(s) >= 0
}

func slotOrder(s string) int {
	for i, slot := range Slots {
		if slot == s {
			return i
		}
	}
	return -1
}

var registerOnce sync.Once

// RegisterValidators adds the "mealslot" tag to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("mealslot", func(fl validator.FieldLevel) bool {
			return ValidSlot(fl.Field().String())
		})
	})
}

// WeekOf returns the Monday starting the week of t and the Sunday ending it.
func WeekOf(t time.Time) (start, end time.Time) {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	start = t.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// parseRange validates a plan's date range.
func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidInput)
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date is before start_date", ErrInvalidInput)
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > MaxDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: a plan covers at most %d days, got %d", ErrInvalidInput, MaxDays, days)
	}
	return start, end, nil
}
