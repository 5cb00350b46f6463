package video

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recipe-planner/internal/database"
	"recipe-planner/internal/pagination"
)

const projection = "id, user_id, url, status, attempts, recipe_id, error, created_at, updated_at"

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func scanJob(s database.Scanner) (Job, error) {
	var j Job
	var recipeID sql.NullString
	err := s.Scan(&j.ID, &j.UserID, &j.URL, &j.Status, &j.Attempts, &recipeID, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	j.RecipeID = recipeID.String
	return j, err
}

func (r *Repository) Insert(ctx context.Context, j *Job) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO video_jobs (id, user_id, url, status, attempts, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.URL, j.Status, j.Attempts, j.Error, j.CreatedAt, j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video job: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Job, error) {
	j, err := database.QueryOne(ctx, r.db, "SELECT "+projection+" FROM video_jobs WHERE id = ?", []any{id}, scanJob)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	return &j, nil
}

// List returns the user's jobs, newest first.
func (r *Repository) List(ctx context.Context, userID string, page pagination.PageRequest) (pagination.PageResult[Job], error) {
	total, err := database.Count(ctx, r.db, "SELECT COUNT(*) FROM video_jobs WHERE user_id = ?", userID)
	if err != nil {
		return pagination.PageResult[Job]{}, fmt.Errorf("count video jobs: %w", err)
	}
	jobs, err := database.QueryMany(ctx, r.db,
		"SELECT "+projection+" FROM video_jobs WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		[]any{userID, page.PageSize, page.Offset()}, scanJob)
	if err != nil {
		return pagination.PageResult[Job]{}, fmt.Errorf("query video jobs: %w", err)
	}
	return pagination.NewPageResult(jobs, total, page), nil
}

// Pending returns jobs left queued or processing, oldest first.
func (r *Repository) Pending(ctx context.Context) ([]Job, error) {
	return database.QueryMany(ctx, r.db,
		"SELECT "+projection+" FROM video_jobs WHERE status IN (?, ?) ORDER BY created_at, id",
		[]any{StatusQueued, StatusProcessing}, scanJob)
}

// Transition moves a job from one of the from statuses to status. It
// reports false when the job was no longer in a from status.
func (r *Repository) Transition(ctx context.Context, id, status string, from ...string) (bool, error) {
	args := []any{status, time.Now().UTC(), id}
	for _, f := range from {
		args = append(args, f)
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE video_jobs SET status = ?, updated_at = ? WHERE id = ? AND status IN ("+database.Placeholders(len(from))+")",
		args...)
	if err != nil {
		return false, fmt.Errorf("update video job %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// StartAttempt marks a queued job processing and counts the attempt.
func (r *Repository) StartAttempt(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE video_jobs SET status = ?, attempts = attempts + 1, updated_at = ? WHERE id = ? AND status = ?",
		StatusProcessing, time.Now().UTC(), id, StatusQueued)
	if err != nil {
		return false, fmt.Errorf("start video job %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Finish records the outcome of a job.
func (r *Repository) Finish(ctx context.Context, id, status, recipeID, errMsg string) error {
	var rid any
	if recipeID != "" {
		rid = recipeID
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE video_jobs SET status = ?, recipe_id = ?, error = ?, updated_at = ? WHERE id = ?",
		status, rid, errMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("finish video job %s: %w", id, err)
	}
	return nil
}

// SetError stores the last attempt's error while the job waits for a retry.
func (r *Repository) SetError(ctx context.Context, id, errMsg string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE video_jobs SET error = ?, updated_at = ? WHERE id = ?",
		errMsg, time.Now().UTC(), id)
	return err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM video_jobs WHERE id = ?", id)
	return err
}
