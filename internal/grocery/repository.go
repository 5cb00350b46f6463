package grocery

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"recipe-planner/internal/database"
	"recipe-planner/internal/pagination"
)

const projection = "id, user_id, meal_plan_id, name, created_at, updated_at"

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func scanList(s database.Scanner) (List, error) {
	var l List
	var planID sql.NullString
	err := s.Scan(&l.ID, &l.UserID, &planID, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	l.MealPlanID = planID.String
	l.Items = []Item{}
	return l, err
}

// Insert stores a list and its items. A list generated from a meal plan
// replaces the user's previous list for that plan.
func (r *Repository) Insert(ctx context.Context, l *List) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		var planID any
		if l.MealPlanID != "" {
			planID = l.MealPlanID
			_, err := tx.ExecContext(ctx, `
				DELETE FROM grocery_items WHERE grocery_list_id IN (
					SELECT id FROM grocery_lists WHERE user_id = ? AND meal_plan_id = ?)`,
				l.UserID, l.MealPlanID)
			if err != nil {
				return fmt.Errorf("clear previous grocery items: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM grocery_lists WHERE user_id = ? AND meal_plan_id = ?", l.UserID, l.MealPlanID); err != nil {
				return fmt.Errorf("clear previous grocery list: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO grocery_lists (id, user_id, meal_plan_id, name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			l.ID, l.UserID, planID, l.Name, l.CreatedAt, l.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert grocery list: %w", err)
		}
		for i := range l.Items {
			l.Items[i].ListID = l.ID
			l.Items[i].Position = i
			if err := insertItem(ctx, tx, &l.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertItem(ctx context.Context, ex database.Executor, it *Item) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Sources == nil {
		it.Sources = []string{}
	}
	sources, _ := json.Marshal(it.Sources)
	_, err := ex.ExecContext(ctx, `
		INSERT INTO grocery_items (id, grocery_list_id, position, name, quantity, unit, category, checked, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.ListID, it.Position, it.Name, it.Quantity, it.Unit, it.Category, it.Checked, string(sources), it.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert grocery item: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*List, error) {
	l, err := database.QueryOne(ctx, r.db, "SELECT "+projection+" FROM grocery_lists WHERE id = ?", []any{id}, scanList)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	return r.withItems(ctx, l)
}

// Latest returns the user's most recently created list.
func (r *Repository) Latest(ctx context.Context, userID string) (*List, error) {
	l, err := database.QueryOne(ctx, r.db,
		"SELECT "+projection+" FROM grocery_lists WHERE user_id = ? ORDER BY created_at DESC LIMIT 1",
		[]any{userID}, scanList)
	if err != nil {
		return nil, database.MapError(err, ErrNotFound, nil)
	}
	return r.withItems(ctx, l)
}

func (r *Repository) withItems(ctx context.Context, l List) (*List, error) {
	lists := []List{l}
	if err := r.attachItems(ctx, lists); err != nil {
		return nil, err
	}
	return &lists[0], nil
}

func (r *Repository) List(ctx context.Context, userID string, page pagination.PageRequest) (pagination.PageResult[List], error) {
	where, args := " WHERE user_id = ?", []any{userID}
	if page.Search != "" {
		where += " AND LOWER(name) LIKE ?"
		args = append(args, database.Like(page.Search))
	}

	total, err := database.Count(ctx, r.db, "SELECT COUNT(*) FROM grocery_lists"+where, args...)
	if err != nil {
		return pagination.PageResult[List]{}, fmt.Errorf("count grocery lists: %w", err)
	}
	lists, err := database.QueryMany(ctx, r.db,
		"SELECT "+projection+" FROM grocery_lists"+where+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		append(args, page.PageSize, page.Offset()), scanList)
	if err != nil {
		return pagination.PageResult[List]{}, fmt.Errorf("query grocery lists: %w", err)
	}
	if err := r.attachItems(ctx, lists); err != nil {
		return pagination.PageResult[List]{}, err
	}
	return pagination.NewPageResult(lists, total, page), nil
}

func (r *Repository) attachItems(ctx context.Context, lists []List) error {
	if len(lists) == 0 {
		return nil
	}
	index := make(map[string]int, len(lists))
	args := make([]any, len(lists))
	for i, l := range lists {
		index[l.ID] = i
		args[i] = l.ID
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, grocery_list_id, position, name, quantity, unit, category, checked, sources, created_at
		FROM grocery_items
		WHERE grocery_list_id IN (`+database.Placeholders(len(lists))+`)
		ORDER BY grocery_list_id, position`, args...)
	if err != nil {
		return fmt.Errorf("query grocery items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		var sources string
		err := rows.Scan(&it.ID, &it.ListID, &it.Position, &it.Name, &it.Quantity, &it.Unit, &it.Category, &it.Checked, &sources, &it.CreatedAt)
		if err != nil {
			return fmt.Errorf("scan grocery item: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &it.Sources); err != nil {
			return fmt.Errorf("decode sources of item %s: %w", it.ID, err)
		}
		if it.Sources == nil {
			it.Sources = []string{}
		}
		i := index[it.ListID]
		lists[i].Items = append(lists[i].Items, it)
	}
	return rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM grocery_items WHERE grocery_list_id = ?", id); err != nil {
			return fmt.Errorf("delete grocery items: %w", err)
		}
		err := database.ExecExpectOne(ctx, tx, "DELETE FROM grocery_lists WHERE id = ?", id)
		return database.MapError(err, ErrNotFound, nil)
	})
}

// AddItem appends an item to the end of a list.
func (r *Repository) AddItem(ctx context.Context, it *Item) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position), -1) + 1 FROM grocery_items WHERE grocery_list_id = ?", it.ListID).Scan(&next)
		if err != nil {
			return fmt.Errorf("next item position: %w", err)
		}
		it.Position = next
		if err := insertItem(ctx, tx, it); err != nil {
			return err
		}
		return touch(ctx, tx, it.ListID)
	})
}

func (r *Repository) SetChecked(ctx context.Context, listID, itemID string, checked bool) (*Item, error) {
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		err := database.ExecExpectOne(ctx, tx,
			"UPDATE grocery_items SET checked = ? WHERE id = ? AND grocery_list_id = ?", checked, itemID, listID)
		if err != nil {
			return database.MapError(err, ErrItemNotFound, nil)
		}
		return touch(ctx, tx, listID)
	})
	if err != nil {
		return nil, err
	}

	l, err := r.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return &l.Items[i], nil
		}
	}
	return nil, ErrItemNotFound
}

func (r *Repository) DeleteItem(ctx context.Context, listID, itemID string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		err := database.ExecExpectOne(ctx, tx, "DELETE FROM grocery_items WHERE id = ? AND grocery_list_id = ?", itemID, listID)
		if err != nil {
			return database.MapError(err, ErrItemNotFound, nil)
		}
		return touch(ctx, tx, listID)
	})
}

func touch(ctx context.Context, tx *database.Tx, listID string) error {
	_, err := tx.ExecContext(ctx, "UPDATE grocery_lists SET updated_at = ? WHERE id = ?", time.Now().UTC(), listID)
	return err
}
