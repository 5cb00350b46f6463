package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"recipe-planner/internal/database"
	"recipe-planner/internal/pagination"
)

const projection = `id, user_id, title, slug, description, instructions, prep_minutes, cook_minutes,
	servings, tags, image_url, source_url, source, external_id, is_public, like_count, created_at, updated_at`

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func scanRecipe(s database.Scanner) (Recipe, error) {
	var r Recipe
	var instructions, tags string
	err := s.Scan(&r.ID, &r.UserID, &r.Title, &r.Slug, &r.Description, &instructions,
		&r.PrepMinutes, &r.CookMinutes, &r.Servings, &tags, &r.ImageURL, &r.SourceURL,
		&r.Source, &r.ExternalID, &r.IsPublic, &r.LikeCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(instructions), &r.Instructions); err != nil {
		return r, fmt.Errorf("decode instructions of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return r, fmt.Errorf("decode tags of %s: %w", r.ID, err)
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	r.Ingredients = []Ingredient{}
	return r, nil
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

// Insert stores a new recipe with its ingredients.
func (r *Repository) Insert(ctx context.Context, rec *Recipe) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipes (id, user_id, title, slug, description, instructions, prep_minutes, cook_minutes,
				servings, tags, image_url, source_url, source, external_id, is_public, like_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.UserID, rec.Title, rec.Slug, rec.Description, encodeList(rec.Instructions),
			rec.PrepMinutes, rec.CookMinutes, rec.Servings, encodeList(rec.Tags), rec.ImageURL,
			rec.SourceURL, rec.Source, rec.ExternalID, rec.IsPublic, rec.LikeCount, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}
		return insertIngredients(ctx, tx, rec.ID, rec.Ingredients)
	})
}

// Update replaces the recipe row and all of its ingredients.
func (r *Repository) Update(ctx context.Context, rec *Recipe) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		err := database.ExecExpectOne(ctx, tx, `
			UPDATE recipes SET title = ?, slug = ?, description = ?, instructions = ?, prep_minutes = ?,
				cook_minutes = ?, servings = ?, tags = ?, image_url = ?, source_url = ?, is_public = ?, updated_at = ?
			WHERE id = ?`,
			rec.Title, rec.Slug, rec.Description, encodeList(rec.Instructions), rec.PrepMinutes,
			rec.CookMinutes, rec.Servings, encodeList(rec.Tags), rec.ImageURL, rec.SourceURL,
			rec.IsPublic, rec.UpdatedAt, rec.ID)
		if err != nil {
			return database.MapError(err, ErrNotFound, nil)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", rec.ID); err != nil {
			return fmt.Errorf("clear ingredients: %w", err)
		}
		return insertIngredients(ctx, tx, rec.ID, rec.Ingredients)
	})
}

func insertIngredients(ctx context.Context, tx *database.Tx, recipeID string, items []Ingredient) error {
	for i, ing := range items {
		var ingredientID any
		if ing.IngredientID != "" {
			ingredientID = ing.IngredientID
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (id, recipe_id, position, name, quantity, unit, note, raw, ingredient_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), recipeID, i, ing.Name, ing.Quantity, ing.Unit, ing.Note, ing.Raw, ingredientID)
		if err != nil {
			return fmt.Errorf("insert ingredient %d: %w", i, err)
		}
	}
	return nil
}

// Get loads one recipe with its ingredients.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	rec, err := database.QueryOne(ctx, r.db, "SELECT "+projection+" FROM recipes WHERE id = ?", []any{id}, scanRecipe)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}

	recipes := []Recipe{rec}
	if err := r.attachIngredients(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// GetMany loads recipes by id. Missing ids are absent from the result.
func (r *Repository) GetMany(ctx context.Context, ids []string) (map[string]*Recipe, error) {
	out := make(map[string]*Recipe, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := "SELECT " + projection + " FROM recipes WHERE id IN (" + database.Placeholders(len(ids)) + ")"
	recipes, err := database.QueryMany(ctx, r.db, q, args, scanRecipe)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	if err := r.attachIngredients(ctx, recipes); err != nil {
		return nil, err
	}
	for i := range recipes {
		out[recipes[i].ID] = &recipes[i]
	}
	return out, nil
}

// List returns recipes visible to userID, newest first.
func (r *Repository) List(ctx context.Context, userID string, page pagination.PageRequest, f Filters) (pagination.PageResult[Recipe], error) {
	var where []string
	var args []any

	if f.Mine {
		where = append(where, "user_id = ?")
		args = append(args, userID)
	} else {
		where = append(where, "(user_id = ? OR is_public = TRUE)")
		args = append(args, userID)
	}
	if page.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, database.Like(page.Search), database.Like(page.Search))
	}
	if f.Tag != "" {
		where = append(where, "LOWER(tags) LIKE ?")
		b, _ := json.Marshal(strings.ToLower(f.Tag))
		args = append(args, "%"+string(b)+"%")
	}
	clause := " WHERE " + strings.Join(where, " AND ")

	total, err := database.Count(ctx, r.db, "SELECT COUNT(*) FROM recipes"+clause, args...)
	if err != nil {
		return pagination.PageResult[Recipe]{}, fmt.Errorf("count recipes: %w", err)
	}

	q := "SELECT " + projection + " FROM recipes" + clause + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	recipes, err := database.QueryMany(ctx, r.db, q, append(args, page.PageSize, page.Offset()), scanRecipe)
	if err != nil {
		return pagination.PageResult[Recipe]{}, fmt.Errorf("query recipes: %w", err)
	}
	if err := r.attachIngredients(ctx, recipes); err != nil {
		return pagination.PageResult[Recipe]{}, err
	}
	return pagination.NewPageResult(recipes, total, page), nil
}

func (r *Repository) attachIngredients(ctx context.Context, recipes []Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	index := make(map[string]int, len(recipes))
	args := make([]any, len(recipes))
	for i, rec := range recipes {
		index[rec.ID] = i
		args[i] = rec.ID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT recipe_id, name, quantity, unit, note, raw, ingredient_id
		FROM recipe_ingredients
		WHERE recipe_id IN (`+database.Placeholders(len(recipes))+`)
		ORDER BY recipe_id, position`, args...)
	if err != nil {
		return fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var recipeID string
		var ing Ingredient
		var ingredientID sql.NullString
		if err := rows.Scan(&recipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.Note, &ing.Raw, &ingredientID); err != nil {
			return fmt.Errorf("scan ingredient: %w", err)
		}
		ing.IngredientID = ingredientID.String
		i := index[recipeID]
		recipes[i].Ingredients = append(recipes[i].Ingredients, ing)
	}
	return rows.Err()
}

// Delete removes a recipe together with everything that references it.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, q := range []string{
			"DELETE FROM recipe_ingredients WHERE recipe_id = ?",
			"DELETE FROM recipe_likes WHERE recipe_id = ?",
			"DELETE FROM saved_recipes WHERE recipe_id = ?",
			"DELETE FROM meal_plan_entries WHERE recipe_id = ?",
			"UPDATE video_jobs SET recipe_id = NULL WHERE recipe_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("delete recipe references: %w", err)
			}
		}
		err := database.ExecExpectOne(ctx, tx, "DELETE FROM recipes WHERE id = ?", id)
		return database.MapError(err, ErrNotFound, nil)
	})
}

// Like records a like once per user and returns the new like count.
func (r *Repository) Like(ctx context.Context, userID, recipeID string) (int, error) {
	return r.toggleLike(ctx, recipeID,
		"INSERT INTO recipe_likes (user_id, recipe_id, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		[]any{userID, recipeID, time.Now().UTC()},
		"UPDATE recipes SET like_count = like_count + 1 WHERE id = ?")
}

// Unlike removes a like and returns the new like count.
func (r *Repository) Unlike(ctx context.Context, userID, recipeID string) (int, error) {
	return r.toggleLike(ctx, recipeID,
		"DELETE FROM recipe_likes WHERE user_id = ? AND recipe_id = ?",
		[]any{userID, recipeID},
		"UPDATE recipes SET like_count = like_count - 1 WHERE id = ? AND like_count > 0")
}

func (r *Repository) toggleLike(ctx context.Context, recipeID, change string, args []any, adjust string) (int, error) {
	var count int
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		res, err := tx.ExecContext(ctx, change, args...)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			if _, err := tx.ExecContext(ctx, adjust, recipeID); err != nil {
				return err
			}
		}
		return tx.QueryRowContext(ctx, "SELECT like_count FROM recipes WHERE id = ?", recipeID).Scan(&count)
	})
	if err != nil {
		return 0, database.MapError(err, ErrNotFound, nil)
	}
	return count, nil
}

// LikedBy reports whether userID liked the recipe.
func (r *Repository) LikedBy(ctx context.Context, userID, recipeID string) (bool, error) {
	n, err := database.Count(ctx, r.db, "SELECT COUNT(*) FROM recipe_likes WHERE user_id = ? AND recipe_id = ?", userID, recipeID)
	return n > 0, err
}
