package saved

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-planner/internal/pagination"
	"recipe-planner/internal/recipe"
)

// Recipes resolves a local recipe the user is allowed to see.
type Recipes interface {
	Get(ctx context.Context, userID, id string) (*recipe.Recipe, error)
}

type Service struct {
	repo    *Repository
	recipes Recipes
	logger  *zap.Logger
}

func NewService(repo *Repository, recipes Recipes, logger *zap.Logger) *Service {
	return &Service{repo: repo, recipes: recipes, logger: logger}
}

func (s *Service) List(ctx context.Context, userID string, page pagination.PageRequest) (pagination.PageResult[Saved], error) {
	return s.repo.List(ctx, userID, page)
}

// Save bookmarks a visible local recipe or an external recipe.
func (s *Service) Save(ctx context.Context, userID string, in Input) (*Saved, error) {
	v := &Saved{UserID: userID, CreatedAt: time.Now().UTC()}

	switch {
	case in.RecipeID != "" && in.ExternalID != "":
		return nil, fmt.Errorf("%w: give either recipe_id or external_id", ErrInvalidInput)
	case in.RecipeID != "":
		rec, err := s.recipes.Get(ctx, userID, in.RecipeID)
		if err != nil {
			return nil, err
		}
		v.RecipeID = rec.ID
		v.Source = SourceLocal
		v.Title = rec.Title
		v.ImageURL = rec.ImageURL
	case in.ExternalID != "":
		v.Source = in.Source
		if v.Source == "" {
			v.Source = recipe.SourceSpoonacular
		}
		v.ExternalID = strings.TrimSpace(in.ExternalID)
		v.Title = strings.TrimSpace(in.Title)
		v.ImageURL = strings.TrimSpace(in.ImageURL)
		if v.Title == "" {
			return nil, fmt.Errorf("%w: title is required for external recipes", ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: recipe_id or external_id is required", ErrInvalidInput)
	}

	if err := s.repo.Insert(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info("recipe saved",
		zap.String("id", v.ID),
		zap.String("user_id", userID),
		zap.String("source", v.Source))
	return v, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.UserID != userID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
