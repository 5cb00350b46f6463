package recipe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"recipe-planner/internal/ingredient"
	"recipe-planner/internal/pagination"
)

// Catalog resolves ingredient names to catalog entries.
type Catalog interface {
	Match(ctx context.Context, names []string) (map[string]ingredient.Ingredient, error)
}

// Service applies ownership and visibility rules on top of the repository.
type Service struct {
	repo    *Repository
	catalog Catalog
	logger  *zap.Logger
}

func NewService(repo *Repository, catalog Catalog, logger *zap.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

func (s *Service) List(ctx context.Context, userID string, page pagination.PageRequest, f Filters) (pagination.PageResult[Recipe], error) {
	return s.repo.List(ctx, userID, page, f)
}

// Get returns a recipe the user may see.
func (s *Service) Get(ctx context.Context, userID, id string) (*Recipe, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.VisibleTo(userID) {
		return nil, ErrForbidden
	}
	return rec, nil
}

// Detail is Get plus whether the user liked the recipe.
func (s *Service) Detail(ctx context.Context, userID, id string) (*Recipe, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	liked, err := s.repo.LikedBy(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	rec.Liked = &liked
	return rec, nil
}

// GetMany returns the recipes among ids the user may see.
func (s *Service) GetMany(ctx context.Context, userID string, ids []string) (map[string]*Recipe, error) {
	recipes, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, rec := range recipes {
		if !rec.VisibleTo(userID) {
			delete(recipes, id)
		}
	}
	return recipes, nil
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (*Recipe, error) {
	now := time.Now().UTC()
	rec := &Recipe{
		UserID:     userID,
		Source:     in.Source,
		ExternalID: in.ExternalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if rec.Source == "" {
		rec.Source = SourceManual
	}
	if err := s.apply(ctx, rec, in); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}
	s.logger.Info("recipe created",
		zap.String("id", rec.ID),
		zap.String("user_id", userID),
		zap.String("source", rec.Source))
	return rec, nil
}

// Update replaces an owned recipe's content, ingredients and steps included.
func (s *Service) Update(ctx context.Context, userID, id string, in Input) (*Recipe, error) {
	rec, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, rec, in); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("recipe deleted", zap.String("id", id), zap.String("user_id", userID))
	return nil
}

// Like is idempotent and returns the current like count.
func (s *Service) Like(ctx context.Context, userID, id string) (int, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return 0, err
	}
	return s.repo.Like(ctx, userID, id)
}

// Unlike is idempotent and returns the current like count.
func (s *Service) Unlike(ctx context.Context, userID, id string) (int, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return 0, err
	}
	return s.repo.Unlike(ctx, userID, id)
}

// Scale returns the recipe with quantities multiplied by servings/recipe.Servings.
// system selects the display unit system; empty keeps each unit's own system.
func (s *Service) Scale(ctx context.Context, userID, id string, servings int, system string) (*Recipe, error) {
	if servings < 1 {
		return nil, fmt.Errorf("%w: servings must be at least 1", ErrInvalidInput)
	}
	if system != "" && system != ingredient.Metric && system != ingredient.Imperial {
		return nil, fmt.Errorf("%w: units must be metric or imperial", ErrInvalidInput)
	}
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return ScaleRecipe(rec, servings, system), nil
}

// ScaleRecipe is the pure scaling step behind Scale.
func ScaleRecipe(rec *Recipe, servings int, system string) *Recipe {
	scaled := *rec
	base := rec.Servings
	if base < 1 {
		base = DefaultServings
	}
	factor := decimal.NewFromInt(int64(servings)).Div(decimal.NewFromInt(int64(base)))

	scaled.Servings = servings
	scaled.Ingredients = make([]Ingredient, len(rec.Ingredients))
	for i, ing := range rec.Ingredients {
		if ing.Quantity.Valid {
			qty := ing.Quantity.Decimal.Mul(factor)
			qty, ing.Unit = ingredient.Normalize(qty, ing.Unit, system)
			ing.Quantity = decimal.NewNullDecimal(qty.Round(2))
		}
		scaled.Ingredients[i] = ing
	}
	return &scaled
}

func (s *Service) owned(ctx context.Context, userID, id string) (*Recipe, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, ErrForbidden
	}
	return rec, nil
}

// apply validates and sanitises in, then copies it onto rec.
func (s *Service) apply(ctx context.Context, rec *Recipe, in Input) error {
	title := cleanText(in.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.Servings < 0 || in.PrepMinutes < 0 || in.CookMinutes < 0 {
		return fmt.Errorf("%w: servings and times cannot be negative", ErrInvalidInput)
	}

	rec.Title = title
	rec.Slug = makeSlug(title)
	rec.Description = cleanMultiline(in.Description)
	rec.Instructions = cleanList(in.Instructions)
	rec.PrepMinutes = in.PrepMinutes
	rec.CookMinutes = in.CookMinutes
	rec.Servings = in.Servings
	if rec.Servings == 0 {
		rec.Servings = DefaultServings
	}
	rec.Tags = cleanTags(in.Tags)
	rec.ImageURL = strings.TrimSpace(in.ImageURL)
	rec.SourceURL = strings.TrimSpace(in.SourceURL)
	rec.IsPublic = in.IsPublic

	ingredients, err := s.buildIngredients(ctx, in.Ingredients)
	if err != nil {
		return err
	}
	rec.Ingredients = ingredients
	return nil
}

func (s *Service) buildIngredients(ctx context.Context, inputs []IngredientInput) ([]Ingredient, error) {
	out := make([]Ingredient, 0, len(inputs))
	for _, in := range inputs {
		var ing Ingredient
		if raw := cleanText(in.Raw); raw != "" && strings.TrimSpace(in.Name) == "" {
			p := ingredient.ParseLine(raw)
			ing = Ingredient{Name: p.Name, Quantity: p.Quantity, Unit: p.Unit, Note: p.Note, Raw: p.Raw}
		} else {
			ing = Ingredient{
				Name:     cleanText(in.Name),
				Quantity: in.Quantity,
				Unit:     ingredient.CanonicalUnit(in.Unit),
				Note:     cleanText(in.Note),
				Raw:      cleanText(in.Raw),
			}
		}
		if ing.Name == "" {
			continue
		}
		if ing.Quantity.Valid && ing.Quantity.Decimal.IsNegative() {
			return nil, fmt.Errorf("%w: quantity of %q cannot be negative", ErrInvalidInput, ing.Name)
		}
		out = append(out, ing)
	}

	if s.catalog != nil && len(out) > 0 {
		names := make([]string, len(out))
		for i, ing := range out {
			names[i] = ing.Name
		}
		matches, err := s.catalog.Match(ctx, names)
		if err != nil {
			s.logger.Warn("ingredient catalog match failed", zap.Error(err))
		} else {
			for i := range out {
				if m, ok := matches[out[i].Name]; ok {
					out[i].IngredientID = m.ID
				}
			}
		}
	}
	return out, nil
}
