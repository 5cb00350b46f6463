package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipe-planner/internal/database"
)

type Repository struct {
	db     *database.DB
	logger *zap.Logger
}

func NewRepository(db *database.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

func scanUser(s database.Scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.UnitSystem, &u.DefaultServings, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Ensure inserts the user when it does not exist yet. Existing profiles are
// left untouched so local edits survive new tokens.
func (r *Repository) Ensure(ctx context.Context, id, email, name string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		id, strings.TrimSpace(email), strings.TrimSpace(name), now, now)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.logger.Info("user created", zap.String("id", id))
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	u, err := database.QueryOne(ctx, r.db,
		"SELECT id, email, name, unit_system, default_servings, created_at, updated_at FROM users WHERE id = ?",
		[]any{id}, scanUser)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	return &u, nil
}

// UnitSystem returns the preferred unit system of a user, metric when unknown.
func (r *Repository) UnitSystem(ctx context.Context, id string) string {
	u, err := r.Get(ctx, id)
	if err != nil || u.UnitSystem == "" {
		return "metric"
	}
	return u.UnitSystem
}

func (r *Repository) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	u, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.UnitSystem != nil {
		if *in.UnitSystem != "metric" && *in.UnitSystem != "imperial" {
			return nil, fmt.Errorf("%w: unit_system must be metric or imperial", ErrInvalidInput)
		}
		u.UnitSystem = *in.UnitSystem
	}
	if in.DefaultServings != nil {
		if *in.DefaultServings < 1 {
			return nil, fmt.Errorf("%w: default_servings must be at least 1", ErrInvalidInput)
		}
		u.DefaultServings = *in.DefaultServings
	}
	u.UpdatedAt = time.Now().UTC()

	err = database.ExecExpectOne(ctx, r.db,
		"UPDATE users SET name = ?, unit_system = ?, default_servings = ?, updated_at = ? WHERE id = ?",
		u.Name, u.UnitSystem, u.DefaultServings, u.UpdatedAt, id)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	return u, nil
}
