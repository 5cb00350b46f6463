package mealplan

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"recipe-planner/internal/database"
	"recipe-planner/internal/pagination"
)

const projection = "id, user_id, name, start_date, end_date, notes, created_at, updated_at"

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func scanPlan(s database.Scanner) (Plan, error) {
	var p Plan
	err := s.Scan(&p.ID, &p.UserID, &p.Name, &p.StartDate, &p.EndDate, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	p.Entries = []Entry{}
	return p, err
}

func (r *Repository) Insert(ctx context.Context, p *Plan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO meal_plans (id, user_id, name, start_date, end_date, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.Name, p.StartDate, p.EndDate, p.Notes, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert meal plan: %w", err)
		}
		for i := range p.Entries {
			p.Entries[i].MealPlanID = p.ID
			if err := insertEntry(ctx, tx, &p.Entries[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertEntry(ctx context.Context, ex database.Executor, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO meal_plan_entries (id, meal_plan_id, date, slot, recipe_id, servings, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.MealPlanID, e.Date, e.Slot, e.RecipeID, e.Servings, e.Note, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert meal plan entry: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Plan, error) {
	p, err := database.QueryOne(ctx, r.db, "SELECT "+projection+" FROM meal_plans WHERE id = ?", []any{id}, scanPlan)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	plans := []Plan{p}
	if err := r.attachEntries(ctx, plans); err != nil {
		return nil, err
	}
	return &plans[0], nil
}

// List returns the user's plans, latest start date first.
func (r *Repository) List(ctx context.Context, userID string, page pagination.PageRequest) (pagination.PageResult[Plan], error) {
	where, args := " WHERE user_id = ?", []any{userID}
	if page.Search != "" {
		where += " AND LOWER(name) LIKE ?"
		args = append(args, database.Like(page.Search))
	}

	total, err := database.Count(ctx, r.db, "SELECT COUNT(*) FROM meal_plans"+where, args...)
	if err != nil {
		return pagination.PageResult[Plan]{}, fmt.Errorf("count meal plans: %w", err)
	}
	plans, err := database.QueryMany(ctx, r.db,
		"SELECT "+projection+" FROM meal_plans"+where+" ORDER BY start_date DESC, created_at DESC LIMIT ? OFFSET ?",
		append(args, page.PageSize, page.Offset()), scanPlan)
	if err != nil {
		return pagination.PageResult[Plan]{}, fmt.Errorf("query meal plans: %w", err)
	}
	if err := r.attachEntries(ctx, plans); err != nil {
		return pagination.PageResult[Plan]{}, err
	}
	return pagination.NewPageResult(plans, total, page), nil
}

// Covering returns the most recently created plan of the user whose range
// includes date.
func (r *Repository) Covering(ctx context.Context, userID, date string) (*Plan, error) {
	p, err := database.QueryOne(ctx, r.db,
		"SELECT "+projection+" FROM meal_plans WHERE user_id = ? AND start_date <= ? AND end_date >= ? ORDER BY created_at DESC LIMIT 1",
		[]any{userID, date, date}, scanPlan)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	plans := []Plan{p}
	if err := r.attachEntries(ctx, plans); err != nil {
		return nil, err
	}
	return &plans[0], nil
}

func (r *Repository) attachEntries(ctx context.Context, plans []Plan) error {
	if len(plans) == 0 {
		return nil
	}
	index := make(map[string]int, len(plans))
	args := make([]any, len(plans))
	for i, p := range plans {
		index[p.ID] = i
		args[i] = p.ID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.meal_plan_id, e.date, e.slot, e.recipe_id, r.title, e.servings, e.note, e.created_at
		FROM meal_plan_entries e
		JOIN recipes r ON r.id = e.recipe_id
		WHERE e.meal_plan_id IN (`+database.Placeholders(len(plans))+`)
		ORDER BY e.date, e.created_at`, args...)
	if err != nil {
		return fmt.Errorf("query meal plan entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.MealPlanID, &e.Date, &e.Slot, &e.RecipeID, &e.RecipeTitle, &e.Servings, &e.Note, &e.CreatedAt); err != nil {
			return fmt.Errorf("scan meal plan entry: %w", err)
		}
		i := index[e.MealPlanID]
		plans[i].Entries = append(plans[i].Entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range plans {
		sortEntries(plans[i].Entries)
	}
	return nil
}

func sortEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(slotOrder(a.Slot), slotOrder(b.Slot))
	})
}

func (r *Repository) Update(ctx context.Context, p *Plan) error {
	err := database.ExecExpectOne(ctx, r.db,
		"UPDATE meal_plans SET name = ?, start_date = ?, end_date = ?, notes = ?, updated_at = ? WHERE id = ?",
		p.Name, p.StartDate, p.EndDate, p.Notes, p.UpdatedAt, p.ID)
	return database.MapError(err, ErrNotFound, nil)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM meal_plan_entries WHERE meal_plan_id = ?", id); err != nil {
			return fmt.Errorf("delete meal plan entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE grocery_lists SET meal_plan_id = NULL WHERE meal_plan_id = ?", id); err != nil {
			return fmt.Errorf("detach grocery lists: %w", err)
		}
		err := database.ExecExpectOne(ctx, tx, "DELETE FROM meal_plans WHERE id = ?", id)
		return database.MapError(err, ErrNotFound, nil)
	})
}

func (r *Repository) AddEntry(ctx context.Context, e *Entry) error {
	return insertEntry(ctx, r.db, e)
}

func (r *Repository) DeleteEntry(ctx context.Context, planID, entryID string) error {
	err := database.ExecExpectOne(ctx, r.db, "DELETE FROM meal_plan_entries WHERE id = ? AND meal_plan_id = ?", entryID, planID)
	return database.MapError(err, ErrEntryNotFound, nil)
}

// CountOutside counts the plan's entries dated outside [start, end].
func (r *Repository) CountOutside(ctx context.Context, planID, start, end string) (int, error) {
	return database.Count(ctx, r.db,
		"SELECT COUNT(*) FROM meal_plan_entries WHERE meal_plan_id = ? AND (date < ? OR date > ?)",
		planID, start, end)
}
