// Package recipe owns recipes: storage, ownership rules, scaling and LLM
// extraction of recipes from free text and photos.
package recipe

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe sources.
const (
	SourceManual      = "manual"
	SourceURL         = "url"
	SourceImage       = "image"
	SourceVideo       = "video"
	SourceSpoonacular = "spoonacular"
)

const DefaultServings = 4

// Recipe is a user-owned recipe, optionally public.
type Recipe struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Title        string       `json:"title"`
	Slug         string       `json:"slug"`
	Description  string       `json:"description"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	PrepMinutes  int          `json:"prep_minutes"`
	CookMinutes  int          `json:"cook_minutes"`
	Servings     int          `json:"servings"`
	Tags         []string     `json:"tags"`
	ImageURL     string       `json:"image_url"`
	SourceURL    string       `json:"source_url"`
	Source       string       `json:"source"`
	ExternalID   string       `json:"external_id,omitempty"`
	IsPublic     bool         `json:"is_public"`
	LikeCount    int          `json:"like_count"`
	Liked        *bool        `json:"liked,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Ingredient is one ordered ingredient line of a recipe.
type Ingredient struct {
	Name         string              `json:"name"`
	Quantity     decimal.NullDecimal `json:"quantity"`
	Unit         string              `json:"unit"`
	Note         string              `json:"note,omitempty"`
	Raw          string              `json:"raw,omitempty"`
	IngredientID string              `json:"ingredient_id,omitempty"`
}

// VisibleTo reports whether userID may read the recipe.
func (r *Recipe) VisibleTo(userID string) bool {
	return r.IsPublic || r.UserID == userID
}

// Input creates or replaces a recipe. Ingredients may be given as raw lines
// or already structured.
type Input struct {
	Title        string            `json:"title" binding:"required,max=200"`
	Description  string            `json:"description" binding:"max=5000"`
	Ingredients  []IngredientInput `json:"ingredients" binding:"max=200,dive"`
	Instructions []string          `json:"instructions" binding:"max=200"`
	PrepMinutes  int               `json:"prep_minutes" binding:"min=0"`
	CookMinutes  int               `json:"cook_minutes" binding:"min=0"`
	Servings     int               `json:"servings" binding:"min=0,max=500"`
	Tags         []string          `json:"tags" binding:"max=30"`
	ImageURL     string            `json:"image_url" binding:"max=2048"`
	SourceURL    string            `json:"source_url" binding:"max=2048"`
	IsPublic     bool              `json:"is_public"`

	// Set by importers, never bound from requests.
	Source     string `json:"-"`
	ExternalID string `json:"-"`
}

type IngredientInput struct {
	Raw      string              `json:"raw" binding:"max=500"`
	Name     string              `json:"name" binding:"max=200"`
	Quantity decimal.NullDecimal `json:"quantity"`
	Unit     string              `json:"unit" binding:"max=30"`
	Note     string              `json:"note" binding:"max=500"`
}

// Lines wraps raw ingredient lines as inputs.
func Lines(raw []string) []IngredientInput {
	out := make([]IngredientInput, 0, len(raw))
	for _, line := range raw {
		out = append(out, IngredientInput{Raw: line})
	}
	return out
}

// Filters narrow a recipe listing.
type Filters struct {
	Tag  string
	Mine bool
}
