package spoonacular

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"recipe-planner/internal/ingredient"
	"recipe-planner/internal/recipe"
)

// ToRecipeInput maps an external recipe onto recipe input with source
// spoonacular. Text is sanitised by the recipe service.
func ToRecipeInput(r *Recipe) recipe.Input {
	in := recipe.Input{
		Title:       r.Title,
		Description: r.Summary,
		Servings:    r.Servings,
		PrepMinutes: max(r.PreparationMinutes, 0),
		CookMinutes: max(r.CookingMinutes, 0),
		ImageURL:    r.Image,
		SourceURL:   r.SourceURL,
		Source:      recipe.SourceSpoonacular,
		ExternalID:  strconv.Itoa(r.ID),
	}
	if in.PrepMinutes == 0 && in.CookMinutes == 0 && r.ReadyInMinutes > 0 {
		in.CookMinutes = r.ReadyInMinutes
	}

	for _, ing := range r.ExtendedIngredients {
		item := recipe.IngredientInput{
			Name: ing.Name,
			Unit: ingredient.CanonicalUnit(ing.Unit),
			Raw:  ing.Original,
		}
		if ing.Amount > 0 {
			item.Quantity = decimal.NewNullDecimal(decimal.NewFromFloat(ing.Amount).Round(3))
		}
		if item.Name == "" {
			item = recipe.IngredientInput{Raw: ing.Original}
		}
		in.Ingredients = append(in.Ingredients, item)
	}

	for _, group := range r.AnalyzedInstructions {
		for _, s := range group.Steps {
			in.Instructions = append(in.Instructions, s.Step)
		}
	}
	if len(in.Instructions) == 0 && r.Instructions != "" {
		in.Instructions = splitInstructions(r.Instructions)
	}

	in.Tags = append(in.Tags, r.DishTypes...)
	in.Tags = append(in.Tags, r.Cuisines...)
	in.Tags = append(in.Tags, r.Diets...)
	return in
}

// splitInstructions breaks Spoonacular's free-form HTML instructions into
// steps on list items and line breaks.
func splitInstructions(s string) []string {
	r := strings.NewReplacer("</li>", "\n", "<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n")
	var out []string
	for _, line := range strings.Split(r.Replace(s), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
