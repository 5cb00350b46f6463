package ingredient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recipe-planner/internal/database"
	"recipe-planner/internal/pagination"
)

const projection = "id, name, category, density, created_at"

// Repository persists the ingredient catalog.
type Repository struct {
	db     *database.DB
	logger *zap.Logger
}

func NewRepository(db *database.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func scanIngredient(s database.Scanner) (Ingredient, error) {
	var i Ingredient
	err := s.Scan(&i.ID, &i.Name, &i.Category, &i.Density, &i.CreatedAt)
	return i, err
}

func (r *Repository) List(ctx context.Context, page pagination.PageRequest) (pagination.PageResult[Ingredient], error) {
	where, args := "", []any{}
	if page.Search != "" {
		where = " WHERE normalized_name LIKE ?"
		args = append(args, database.Like(page.Search))
	}

	total, err := database.Count(ctx, r.db, "SELECT COUNT(*) FROM ingredients"+where, args...)
	if err != nil {
		return pagination.PageResult[Ingredient]{}, fmt.Errorf("count ingredients: %w", err)
	}

	q := "SELECT " + projection + " FROM ingredients" + where + " ORDER BY name LIMIT ? OFFSET ?"
	items, err := database.QueryMany(ctx, r.db, q, append(args, page.PageSize, page.Offset()), scanIngredient)
	if err != nil {
		return pagination.PageResult[Ingredient]{}, fmt.Errorf("query ingredients: %w", err)
	}
	return pagination.NewPageResult(items, total, page), nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Ingredient, error) {
	i, err := database.QueryOne(ctx, r.db, "SELECT "+projection+" FROM ingredients WHERE id = ?", []any{id}, scanIngredient)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	return &i, nil
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (*Ingredient, error) {
	name := strings.TrimSpace(in.Name)
	key := NormalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Density.Valid && !in.Density.Decimal.IsPositive() {
		return nil, fmt.Errorf("%w: density must be positive", ErrInvalidInput)
	}
	category := in.Category
	if category == "" {
		category = CategoryOther
	}

	i := Ingredient{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  category,
		Density:   in.Density,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO ingredients (id, name, normalized_name, category, density, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		i.ID, i.Name, key, i.Category, i.Density, i.CreatedAt)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("ingredient created", zap.String("id", i.ID), zap.String("name", i.Name))
	return &i, nil
}

// All returns the whole catalog keyed by normalised name.
func (r *Repository) All(ctx context.Context) (map[string]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT normalized_name, "+projection+" FROM ingredients")
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Ingredient)
	for rows.Next() {
		var key string
		var i Ingredient
		if err := rows.Scan(&key, &i.ID, &i.Name, &i.Category, &i.Density, &i.CreatedAt); err != nil {
			return nil, err
		}
		out[key] = i
	}
	return out, rows.Err()
}

// Match resolves free-text names against the catalog. A name matches on its
// normalised form, on a fuzzy match, or when it ends with a catalog name
// ("diced tomatoes" -> "tomato"). Unmatched names are absent from the result.
func (r *Repository) Match(ctx context.Context, names []string) (map[string]Ingredient, error) {
	catalog, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return MatchCatalog(catalog, names), nil
}

// MatchCatalog is Match against an already loaded catalog.
func MatchCatalog(catalog map[string]Ingredient, names []string) map[string]Ingredient {
	out := make(map[string]Ingredient, len(names))
	for _, name := range names {
		key := NormalizeName(name)
		if key == "" {
			continue
		}
		if i, ok := catalog[key]; ok {
			out[name] = i
			continue
		}

		var best Ingredient
		bestScore, bestSuffix := 0.0, 0
		for ck, i := range catalog {
			if s := Similarity(ck, key); s >= MinSimilarity && s > bestScore {
				best, bestScore = i, s
			}
			if bestScore == 0 && strings.HasSuffix(key, " "+ck) && len(ck) > bestSuffix {
				best, bestSuffix = i, len(ck)
			}
		}
		if bestScore > 0 || bestSuffix > 0 {
			out[name] = best
		}
	}
	return out
}
