package saved

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"recipe-planner/internal/database"
	"recipe-planner/internal/pagination"
)

const projection = "id, user_id, recipe_id, source, external_id, title, image_url, created_at"

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func scanSaved(s database.Scanner) (Saved, error) {
	var v Saved
	var recipeID, externalID sql.NullString
	err := s.Scan(&v.ID, &v.UserID, &recipeID, &v.Source, &externalID, &v.Title, &v.ImageURL, &v.CreatedAt)
	v.RecipeID = recipeID.String
	v.ExternalID = externalID.String
	return v, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Insert stores v and fails with ErrDuplicate when the user already saved
// the same recipe.
func (r *Repository) Insert(ctx context.Context, v *Saved) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_recipes (id, user_id, recipe_id, source, external_id, title, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		v.ID, v.UserID, nullable(v.RecipeID), v.Source, nullable(v.ExternalID), v.Title, v.ImageURL, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert saved recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Saved, error) {
	v, err := database.QueryOne(ctx, r.db, "SELECT "+projection+" FROM saved_recipes WHERE id = ?", []any{id}, scanSaved)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	return &v, nil
}

// List returns the user's bookmarks, newest first.
func (r *Repository) List(ctx context.Context, userID string, page pagination.PageRequest) (pagination.PageResult[Saved], error) {
	where, args := " WHERE user_id = ?", []any{userID}
	if page.Search != "" {
		where += " AND LOWER(title) LIKE ?"
		args = append(args, database.Like(page.Search))
	}

	total, err := database.Count(ctx, r.db, "SELECT COUNT(*) FROM saved_recipes"+where, args...)
	if err != nil {
		return pagination.PageResult[Saved]{}, fmt.Errorf("count saved recipes: %w", err)
	}
	q := "SELECT " + projection + " FROM saved_recipes" + where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	items, err := database.QueryMany(ctx, r.db, q, append(args, page.PageSize, page.Offset()), scanSaved)
	if err != nil {
		return pagination.PageResult[Saved]{}, fmt.Errorf("query saved recipes: %w", err)
	}
	return pagination.NewPageResult(items, total, page), nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	err := database.ExecExpectOne(ctx, r.db, "DELETE FROM saved_recipes WHERE id = ?", id)
	return database.MapError(err, ErrNotFound, nil)
}
