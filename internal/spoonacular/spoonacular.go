// Package spoonacular searches the Spoonacular recipe API and maps its
// recipes onto local recipe input.
package spoonacular

import (
	"errors"
	"net/http"
)

var (
	ErrNotConfigured = errors.New("spoonacular api key not configured")
	ErrNotFound      = errors.New("external recipe not found")
	ErrUpstream      = errors.New("spoonacular request failed")
	ErrInvalidInput  = errors.New("invalid external recipe request")
)

// MapHTTPStatus maps spoonacular errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Summary is one search hit.
type Summary struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	ImageType string `json:"imageType,omitempty"`
}

type SearchResult struct {
	Results      []Summary `json:"results"`
	Offset       int       `json:"offset"`
	Number       int       `json:"number"`
	TotalResults int       `json:"totalResults"`
}

type ExtendedIngredient struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
}

type Step struct {
	Number int    `json:"number"`
	Step   string `json:"step"`
}

type InstructionGroup struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

// Recipe is the subset of /recipes/{id}/information the service uses.
type Recipe struct {
	ID                   int                  `json:"id"`
	Title                string               `json:"title"`
	Image                string               `json:"image"`
	Servings             int                  `json:"servings"`
	ReadyInMinutes       int                  `json:"readyInMinutes"`
	PreparationMinutes   int                  `json:"preparationMinutes"`
	CookingMinutes       int                  `json:"cookingMinutes"`
	SourceURL            string               `json:"sourceUrl"`
	Summary              string               `json:"summary"`
	Instructions         string               `json:"instructions"`
	ExtendedIngredients  []ExtendedIngredient `json:"extendedIngredients"`
	AnalyzedInstructions []InstructionGroup   `json:"analyzedInstructions"`
	DishTypes            []string             `json:"dishTypes"`
	Cuisines             []string             `json:"cuisines"`
	Diets                []string             `json:"diets"`
}
