// Package saved keeps per-user bookmarks of recipes, either local recipes or
// recipes from an external provider.
package saved

import "time"

const SourceLocal = "local"

type Saved struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RecipeID   string    `json:"recipe_id,omitempty"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id,omitempty"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// Input bookmarks a local recipe (RecipeID) or an external one (Source and
// ExternalID). Title and ImageURL are cached for external recipes.
type Input struct {
	RecipeID   string `json:"recipe_id" binding:"required_without=ExternalID,excluded_with=ExternalID,max=64"`
	Source     string `json:"source" binding:"omitempty,oneof=spoonacular"`
	ExternalID string `json:"external_id" binding:"max=64"`
	Title      string `json:"title" binding:"required_with=ExternalID,max=200"`
	ImageURL   string `json:"image_url" binding:"max=2048"`
}
