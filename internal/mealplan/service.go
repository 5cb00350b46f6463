package mealplan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-planner/internal/pagination"
	"recipe-planner/internal/recipe"
)

// Recipes resolves the recipes a user may put on a plan.
type Recipes interface {
	Get(ctx context.Context, userID, id string) (*recipe.Recipe, error)
}

type Service struct {
	repo    *Repository
	recipes Recipes
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(repo *Repository, recipes Recipes, logger *zap.Logger) *Service {
	return &Service{repo: repo, recipes: recipes, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context, userID string, page pagination.PageRequest) (pagination.PageResult[Plan], error) {
	return s.repo.List(ctx, userID, page)
}

// Get returns one of the user's plans.
func (s *Service) Get(ctx context.Context, userID, id string) (*Plan, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

// Current returns the user's plan covering the given day, today when day
// is zero.
func (s *Service) Current(ctx context.Context, userID string, day time.Time) (*Plan, error) {
	if day.IsZero() {
		day = s.now()
	}
	return s.repo.Covering(ctx, userID, day.UTC().Format(DateLayout))
}

func (s *Service) Create(ctx context.Context, userID string, in Input) (*Plan, error) {
	start, end, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	p := &Plan{
		UserID:    userID,
		Name:      name,
		StartDate: start.Format(DateLayout),
		EndDate:   end.Format(DateLayout),
		Notes:     strings.TrimSpace(in.Notes),
		Entries:   make([]Entry, 0, len(in.Entries)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ei := range in.Entries {
		e, err := s.buildEntry(ctx, userID, p, ei)
		if err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, *e)
	}
	sortEntries(p.Entries)

	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("meal plan created",
		zap.String("id", p.ID),
		zap.String("user_id", userID),
		zap.String("start", p.StartDate),
		zap.Int("entries", len(p.Entries)))
	return p, nil
}

// Update changes an owned plan. Shrinking the range past existing entries
// is rejected.
func (s *Service) Update(ctx context.Context, userID, id string, in UpdateInput) (*Plan, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	start, end, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	p.Name = name
	p.StartDate = start.Format(DateLayout)
	p.EndDate = end.Format(DateLayout)
	p.Notes = strings.TrimSpace(in.Notes)
	p.UpdatedAt = s.now().UTC()

	outside, err := s.repo.CountOutside(ctx, p.ID, p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}
	if outside > 0 {
		return nil, fmt.Errorf("%w: %d entries fall outside %s..%s", ErrInvalidInput, outside, p.StartDate, p.EndDate)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("meal plan deleted", zap.String("id", id), zap.String("user_id", userID))
	return nil
}

func (s *Service) AddEntry(ctx context.Context, userID, planID string, in EntryInput) (*Entry, error) {
	p, err := s.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	e, err := s.buildEntry(ctx, userID, p, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) RemoveEntry(ctx context.Context, userID, planID, entryID string) error {
	if _, err := s.Get(ctx, userID, planID); err != nil {
		return err
	}
	return s.repo.DeleteEntry(ctx, planID, entryID)
}

func (s *Service) buildEntry(ctx context.Context, userID string, p *Plan, in EntryInput) (*Entry, error) {
	date, err := time.Parse(DateLayout, in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: entry date must be YYYY-MM-DD", ErrInvalidInput)
	}
	d := date.Format(DateLayout)
	if d < p.StartDate || d > p.EndDate {
		return nil, fmt.Errorf("%w: %s is outside %s..%s", ErrInvalidInput, d, p.StartDate, p.EndDate)
	}
	if !ValidSlot(in.Slot) {
		return nil, fmt.Errorf("%w: slot must be one of %s", ErrInvalidInput, strings.Join(Slots, ", "))
	}
	if in.Servings < 0 {
		return nil, fmt.Errorf("%w: servings must be at least 1", ErrInvalidInput)
	}

	rec, err := s.recipes.Get(ctx, userID, in.RecipeID)
	if err != nil {
		return nil, err
	}
	servings := in.Servings
	if servings == 0 {
		servings = rec.Servings
	}

	return &Entry{
		MealPlanID:  p.ID,
		Date:        d,
		Slot:        in.Slot,
		RecipeID:    rec.ID,
		RecipeTitle: rec.Title,
		Servings:    servings,
		Note:        strings.TrimSpace(in.Note),
		CreatedAt:   s.now().UTC(),
	}, nil
}
