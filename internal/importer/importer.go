// Package importer creates recipes from web pages and photos.
package importer

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"recipe-planner/internal/clipper"
	"recipe-planner/internal/recipe"
	"recipe-planner/internal/storage"
)

var ErrTooLarge = errors.New("upload too large")

// MapHTTPStatus maps import errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, clipper.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, clipper.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, clipper.ErrNoRecipeFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrNotImage):
		return http.StatusUnsupportedMediaType
	}
	return recipe.MapHTTPStatus(err)
}

// Creator stores imported recipes.
type Creator interface {
	Create(ctx context.Context, userID string, in recipe.Input) (*recipe.Recipe, error)
}

type Service struct {
	clipper   *clipper.Clipper
	extractor *recipe.Extractor
	images    *storage.ImageStore
	recipes   Creator
	logger    *zap.Logger
}

func NewService(c *clipper.Clipper, extractor *recipe.Extractor, images *storage.ImageStore, recipes Creator, logger *zap.Logger) *Service {
	return &Service{clipper: c, extractor: extractor, images: images, recipes: recipes, logger: logger}
}

// ImportURL clips a web page into a new recipe owned by userID.
func (s *Service) ImportURL(ctx context.Context, userID, url string) (*recipe.Recipe, error) {
	in, err := s.clipper.Clip(ctx, url)
	if err != nil {
		return nil, err
	}
	rec, err := s.recipes.Create(ctx, userID, *in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("recipe imported from url", zap.String("id", rec.ID), zap.String("url", in.SourceURL))
	return rec, nil
}

// ImportImage stores a recipe photo and reads the recipe from it.
func (s *Service) ImportImage(ctx context.Context, userID string, data []byte) (*recipe.Recipe, error) {
	if !s.extractor.CanReadImages() {
		return nil, recipe.ErrExtractorUnavailable
	}
	mime, err := storage.DetectImageType(data)
	if err != nil {
		return nil, err
	}

	name, _, err := s.images.Save(data)
	if err != nil {
		return nil, err
	}
	rec, err := s.fromImage(ctx, userID, name, mime, data)
	if err != nil {
		if derr := s.images.Delete(name); derr != nil {
			s.logger.Warn("failed to remove image of failed import", zap.String("name", name), zap.Error(derr))
		}
		return nil, err
	}
	s.logger.Info("recipe imported from image", zap.String("id", rec.ID), zap.String("image", name))
	return rec, nil
}

func (s *Service) fromImage(ctx context.Context, userID, name, mime string, data []byte) (*recipe.Recipe, error) {
	in, err := s.extractor.FromImage(ctx, mime, data)
	if err != nil {
		return nil, err
	}
	in.Source = recipe.SourceImage
	in.ImageURL = "/images/" + name
	return s.recipes.Create(ctx, userID, *in)
}
