package grocery

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-planner/internal/ingredient"
	"recipe-planner/internal/mealplan"
	"recipe-planner/internal/pagination"
	"recipe-planner/internal/recipe"
)

// Plans loads the user's meal plans.
type Plans interface {
	Get(ctx context.Context, userID, id string) (*mealplan.Plan, error)
}

// Recipes loads the recipes a user may see.
type Recipes interface {
	GetMany(ctx context.Context, userID string, ids []string) (map[string]*recipe.Recipe, error)
}

// UnitSystems returns a user's preferred unit system.
type UnitSystems interface {
	UnitSystem(ctx context.Context, userID string) string
}

type Service struct {
	repo    *Repository
	plans   Plans
	recipes Recipes
	catalog recipe.Catalog
	units   UnitSystems
	logger  *zap.Logger
}

func NewService(repo *Repository, plans Plans, recipes Recipes, catalog recipe.Catalog, units UnitSystems, logger *zap.Logger) *Service {
	return &Service{repo: repo, plans: plans, recipes: recipes, catalog: catalog, units: units, logger: logger}
}

func (s *Service) List(ctx context.Context, userID string, page pagination.PageRequest) (pagination.PageResult[List], error) {
	return s.repo.List(ctx, userID, page)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*List, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *Service) Latest(ctx context.Context, userID string) (*List, error) {
	return s.repo.Latest(ctx, userID)
}

// Create stores a hand-written list.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*List, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	now := time.Now().UTC()
	l := &List{UserID: userID, Name: name, Items: make([]Item, 0, len(in.Items)), CreatedAt: now, UpdatedAt: now}
	for _, ii := range in.Items {
		it, err := s.buildItem(ctx, ii, now)
		if err != nil {
			return nil, err
		}
		l.Items = append(l.Items, *it)
	}

	if err := s.repo.Insert(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GenerateFromMealPlan aggregates the scaled ingredients of every entry of
// the plan into a new list, replacing the plan's previous list.
func (s *Service) GenerateFromMealPlan(ctx context.Context, userID, planID string) (*List, error) {
	plan, err := s.plans.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(plan.Entries))
	for _, e := range plan.Entries {
		if !slices.Contains(ids, e.RecipeID) {
			ids = append(ids, e.RecipeID)
		}
	}
	recipes, err := s.recipes.GetMany(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	var lines []ingredient.Line
	for _, e := range plan.Entries {
		rec, ok := recipes[e.RecipeID]
		if !ok {
			// Made private or deleted since it was planned.
			s.logger.Warn("skipping unavailable recipe", zap.String("plan_id", planID), zap.String("recipe_id", e.RecipeID))
			continue
		}
		scaled := recipe.ScaleRecipe(rec, e.Servings, "")
		for _, ing := range scaled.Ingredients {
			lines = append(lines, ingredient.Line{Name: ing.Name, Quantity: ing.Quantity, Unit: ing.Unit, Source: rec.Title})
		}
	}

	system := ingredient.Metric
	if s.units != nil {
		system = s.units.UnitSystem(ctx, userID)
	}
	aggregated := ingredient.Aggregate(lines, system)
	categories := s.categories(ctx, aggregated)

	now := time.Now().UTC()
	l := &List{
		UserID:     userID,
		MealPlanID: plan.ID,
		Name:       "Groceries for " + plan.Name,
		Items:      make([]Item, 0, len(aggregated)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, a := range aggregated {
		l.Items = append(l.Items, Item{
			Name:      a.Name,
			Quantity:  a.Quantity,
			Unit:      a.Unit,
			Category:  categories[a.Name],
			Sources:   a.Sources,
			CreatedAt: now,
		})
	}
	slices.SortStableFunc(l.Items, func(a, b Item) int {
		return slices.Index(ingredient.Categories, a.Category) - slices.Index(ingredient.Categories, b.Category)
	})

	if err := s.repo.Insert(ctx, l); err != nil {
		return nil, err
	}
	s.logger.Info("grocery list generated",
		zap.String("id", l.ID),
		zap.String("plan_id", plan.ID),
		zap.Int("entries", len(plan.Entries)),
		zap.Int("items", len(l.Items)))
	return l, nil
}

// categories maps each aggregated name to its catalog category.
func (s *Service) categories(ctx context.Context, items []ingredient.Aggregated) map[string]string {
	out := make(map[string]string, len(items))
	names := make([]string, len(items))
	for i, a := range items {
		names[i] = a.Name
		out[a.Name] = ingredient.CategoryOther
	}
	if s.catalog == nil || len(names) == 0 {
		return out
	}
	matches, err := s.catalog.Match(ctx, names)
	if err != nil {
		s.logger.Warn("ingredient catalog match failed", zap.Error(err))
		return out
	}
	for name, m := range matches {
		if m.Category != "" {
			out[name] = m.Category
		}
	}
	return out
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) AddItem(ctx context.Context, userID, listID string, in ItemInput) (*Item, error) {
	if _, err := s.Get(ctx, userID, listID); err != nil {
		return nil, err
	}
	it, err := s.buildItem(ctx, in, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	it.ListID = listID
	if err := s.repo.AddItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) CheckItem(ctx context.Context, userID, listID, itemID string, checked bool) (*Item, error) {
	if _, err := s.Get(ctx, userID, listID); err != nil {
		return nil, err
	}
	return s.repo.SetChecked(ctx, listID, itemID, checked)
}

func (s *Service) RemoveItem(ctx context.Context, userID, listID, itemID string) error {
	if _, err := s.Get(ctx, userID, listID); err != nil {
		return err
	}
	return s.repo.DeleteItem(ctx, listID, itemID)
}

func (s *Service) buildItem(ctx context.Context, in ItemInput, now time.Time) (*Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if in.Quantity.Valid && in.Quantity.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: quantity of %q cannot be negative", ErrInvalidInput, name)
	}
	it := &Item{
		Name:      name,
		Quantity:  in.Quantity,
		Unit:      ingredient.CanonicalUnit(in.Unit),
		Category:  in.Category,
		Sources:   []string{},
		CreatedAt: now,
	}
	if it.Category == "" {
		it.Category = s.categories(ctx, []ingredient.Aggregated{{Name: name}})[name]
	}
	return it, nil
}
