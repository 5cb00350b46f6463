package mealplan

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipe-planner/internal/recipe"
	"recipe-planner/internal/testutil"
)

type fixture struct {
	svc     *Service
	router  *gin.Engine
	own     *recipe.Recipe
	public  *recipe.Recipe
	private *recipe.Recipe
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	RegisterValidators()
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice")
	testutil.CreateUser(t, db, "bob")

	recipes := recipe.NewService(recipe.NewRepository(db), nil, zap.NewNop())
	ctx := context.Background()
	own, err := recipes.Create(ctx, "alice", recipe.Input{Title: "Omelette", Servings: 2})
	require.NoError(t, err)
	public, err := recipes.Create(ctx, "bob", recipe.Input{Title: "Chili", Servings: 6, IsPublic: true})
	require.NoError(t, err)
	private, err := recipes.Create(ctx, "bob", recipe.Input{Title: "Secret Sauce"})
	require.NoError(t, err)

	svc := NewService(NewRepository(db), recipes, zap.NewNop())
	r, api := testutil.Router(t, db)
	NewHandler(svc, zap.NewNop(), testutil.Pagination).Register(api)
	return fixture{svc: svc, router: r, own: own, public: public, private: private}
}

func TestWeekOf(t *testing.T) {
	tests := []struct {
		day, start, end string
	}{
		{"2024-05-15", "2024-05-13", "2024-05-19"}, // Wednesday
		{"2024-05-13", "2024-05-13", "2024-05-19"}, // Monday
		{"2024-05-19", "2024-05-13", "2024-05-19"}, // Sunday
		{"2024-01-01", "2024-01-01", "2024-01-07"},
		{"2023-12-31", "2023-12-25", "2023-12-31"},
	}
	for _, tt := range tests {
		day, _ := time.Parse(DateLayout, tt.day)
		start, end := WeekOf(day.Add(15 * time.Hour))
		assert.Equal(t, tt.start, start.Format(DateLayout), tt.day)
		assert.Equal(t, tt.end, end.Format(DateLayout), tt.day)
	}
}

func TestParseRange(t *testing.T) {
	_, _, err := parseRange("2024-05-01", "2024-05-31")
	assert.NoError(t, err, "31 days")

	_, _, err = parseRange("2024-05-01", "2024-06-01")
	assert.ErrorIs(t, err, ErrInvalidInput, "32 days")

	_, _, err = parseRange("2024-05-02", "2024-05-01")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = parseRange("2024-05-01", "2024-05-01")
	assert.NoError(t, err, "single day")

	_, _, err = parseRange("05/01/2024", "2024-05-02")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, "alice", Input{
		Name:      " Week 20 ",
		StartDate: "2024-05-13",
		EndDate:   "2024-05-19",
		Entries: []EntryInput{
			{Date: "2024-05-14", Slot: SlotDinner, RecipeID: f.public.ID, Servings: 3},
			{Date: "2024-05-14", Slot: SlotBreakfast, RecipeID: f.own.ID},
			{Date: "2024-05-13", Slot: SlotLunch, RecipeID: f.own.ID, Note: "leftovers"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 20", p.Name)
	require.Len(t, p.Entries, 3)

	got, err := f.svc.Get(ctx, "alice", p.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 3)
	assert.Equal(t, "2024-05-13", got.Entries[0].Date)
	assert.Equal(t, SlotBreakfast, got.Entries[1].Slot, "slots ordered within a day")
	assert.Equal(t, 2, got.Entries[1].Servings, "defaults to recipe servings")
	assert.Equal(t, "Omelette", got.Entries[1].RecipeTitle)
	assert.Equal(t, 3, got.Entries[2].Servings)
	assert.Len(t, got.EntriesOn("2024-05-14"), 2)

	_, err = f.svc.Get(ctx, "bob", p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	t.Run("Validation", func(t *testing.T) {
		base := Input{Name: "x", StartDate: "2024-05-13", EndDate: "2024-05-19"}

		in := base
		in.Entries = []EntryInput{{Date: "2024-05-20", Slot: SlotLunch, RecipeID: f.own.ID}}
		_, err := f.svc.Create(ctx, "alice", in)
		assert.ErrorIs(t, err, ErrInvalidInput, "entry outside range")

		in.Entries = []EntryInput{{Date: "2024-05-14", Slot: "brunch", RecipeID: f.own.ID}}
		_, err = f.svc.Create(ctx, "alice", in)
		assert.ErrorIs(t, err, ErrInvalidInput)

		in.Entries = []EntryInput{{Date: "2024-05-14", Slot: SlotLunch, RecipeID: f.private.ID}}
		_, err = f.svc.Create(ctx, "alice", in)
		assert.ErrorIs(t, err, recipe.ErrForbidden)

		in.Entries = []EntryInput{{Date: "2024-05-14", Slot: SlotLunch, RecipeID: "missing"}}
		_, err = f.svc.Create(ctx, "alice", in)
		assert.ErrorIs(t, err, recipe.ErrNotFound)
	})
}

func TestServiceUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.Create(ctx, "alice", Input{
		Name: "May", StartDate: "2024-05-01", EndDate: "2024-05-10",
		Entries: []EntryInput{{Date: "2024-05-08", Slot: SlotDinner, RecipeID: f.own.ID}},
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, "alice", p.ID, UpdateInput{Name: "May", StartDate: "2024-05-01", EndDate: "2024-05-05"})
	assert.ErrorIs(t, err, ErrInvalidInput, "would orphan the 8th")

	updated, err := f.svc.Update(ctx, "alice", p.ID, UpdateInput{Name: "Early May", StartDate: "2024-05-02", EndDate: "2024-05-12", Notes: "more fish"})
	require.NoError(t, err)
	assert.Equal(t, "Early May", updated.Name)
	assert.Equal(t, "2024-05-12", updated.EndDate)
	assert.Len(t, updated.Entries, 1)

	_, err = f.svc.Update(ctx, "bob", p.ID, UpdateInput{Name: "x", StartDate: "2024-05-01", EndDate: "2024-05-02"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestServiceCurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.now = func() time.Time { return time.Date(2024, 5, 15, 9, 0, 0, 0, time.UTC) }

	_, err := f.svc.Current(ctx, "alice", time.Time{})
	assert.ErrorIs(t, err, ErrNotFound)

	start, end := WeekOf(f.svc.now())
	p, err := f.svc.Create(ctx, "alice", Input{Name: "This week", StartDate: start.Format(DateLayout), EndDate: end.Format(DateLayout)})
	require.NoError(t, err)

	cur, err := f.svc.Current(ctx, "alice", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, p.ID, cur.ID)

	_, err = f.svc.Current(ctx, "alice", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Current(ctx, "bob", time.Time{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandler(t *testing.T) {
	f := newFixture(t)

	w := testutil.Do(t, f.router, http.MethodPost, "/api/meal-plans", "alice", map[string]any{
		"name": "Week", "start_date": "2024-05-13", "end_date": "2024-05-19",
		"entries": []map[string]any{{"date": "2024-05-13", "slot": "dinner", "recipe_id": f.own.ID}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p Plan
	testutil.Decode(t, w, &p)
	require.Len(t, p.Entries, 1)

	t.Run("BindingRejectsUnknownSlot", func(t *testing.T) {
		w := testutil.Do(t, f.router, http.MethodPost, "/api/meal-plans/"+p.ID+"/entries", "alice",
			map[string]any{"date": "2024-05-14", "slot": "brunch", "recipe_id": f.own.ID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "mealslot")
	})

	t.Run("BindingRejectsBadDates", func(t *testing.T) {
		w := testutil.Do(t, f.router, http.MethodPost, "/api/meal-plans", "alice",
			map[string]any{"name": "x", "start_date": "13/05/2024", "end_date": "2024-05-19"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Entries", func(t *testing.T) {
		w := testutil.Do(t, f.router, http.MethodPost, "/api/meal-plans/"+p.ID+"/entries", "alice",
			map[string]any{"date": "2024-05-14", "slot": "lunch", "recipe_id": f.public.ID, "servings": 2})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var e Entry
		testutil.Decode(t, w, &e)
		assert.Equal(t, "Chili", e.RecipeTitle)

		w = testutil.Do(t, f.router, http.MethodPost, "/api/meal-plans/"+p.ID+"/entries", "alice",
			map[string]any{"date": "2024-05-14", "slot": "lunch", "recipe_id": f.public.ID, "servings": -1})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = testutil.Do(t, f.router, http.MethodPost, "/api/meal-plans/"+p.ID+"/entries", "bob",
			map[string]any{"date": "2024-05-14", "slot": "lunch", "recipe_id": f.public.ID})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = testutil.Do(t, f.router, http.MethodDelete, "/api/meal-plans/"+p.ID+"/entries/"+e.ID, "alice", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = testutil.Do(t, f.router, http.MethodDelete, "/api/meal-plans/"+p.ID+"/entries/"+e.ID, "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("UpdateOutOfRange", func(t *testing.T) {
		w := testutil.Do(t, f.router, http.MethodPut, "/api/meal-plans/"+p.ID, "alice",
			map[string]any{"name": "Week", "start_date": "2024-05-14", "end_date": "2024-05-19"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ListAndCurrent", func(t *testing.T) {
		w := testutil.Do(t, f.router, http.MethodGet, "/api/meal-plans", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), p.ID)

		w = testutil.Do(t, f.router, http.MethodGet, "/api/meal-plans", "bob", nil)
		assert.NotContains(t, w.Body.String(), p.ID)

		w = testutil.Do(t, f.router, http.MethodGet, "/api/meal-plans/current?date=2024-05-16", "alice", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), p.ID)

		w = testutil.Do(t, f.router, http.MethodGet, "/api/meal-plans/current?date=2030-01-01", "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		w := testutil.Do(t, f.router, http.MethodDelete, "/api/meal-plans/"+p.ID, "bob", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = testutil.Do(t, f.router, http.MethodDelete, "/api/meal-plans/"+p.ID, "alice", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = testutil.Do(t, f.router, http.MethodGet, "/api/meal-plans/"+p.ID, "alice", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
