package saved

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipe-planner/internal/pagination"
	"recipe-planner/internal/recipe"
	"recipe-planner/internal/testutil"
)

type fixture struct {
	router  *gin.Engine
	recipes *recipe.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	recipes := recipe.NewService(recipe.NewRepository(db), nil, zap.NewNop())
	svc := NewService(NewRepository(db), recipes, zap.NewNop())

	r, api := testutil.Router(t, db)
	NewHandler(svc, zap.NewNop(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}).Register(api)
	return fixture{router: r, recipes: recipes}
}

func (f fixture) createRecipe(t *testing.T, userID string, public bool) *recipe.Recipe {
	t.Helper()
	// The user row is created by the first authenticated request.
	testutil.Do(t, f.router, http.MethodGet, "/api/saved-recipes", userID, nil)
	rec, err := f.recipes.Create(context.Background(), userID, recipe.Input{
		Title:    "Shakshuka",
		ImageURL: "https://img.example/shakshuka.jpg",
		IsPublic: public,
	})
	require.NoError(t, err)
	return rec
}

func TestSaveLocalRecipe(t *testing.T) {
	f := newFixture(t)
	public := f.createRecipe(t, "alice", true)
	private := f.createRecipe(t, "alice", false)

	w := testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", map[string]any{"recipe_id": public.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var v Saved
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, SourceLocal, v.Source)
	assert.Equal(t, "Shakshuka", v.Title)
	assert.Equal(t, "https://img.example/shakshuka.jpg", v.ImageURL)

	w = testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", map[string]any{"recipe_id": public.ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", map[string]any{"recipe_id": private.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", map[string]any{"recipe_id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveExternalRecipe(t *testing.T) {
	f := newFixture(t)

	body := map[string]any{"external_id": "716429", "title": "Pasta with Garlic", "image_url": "https://img.example/p.jpg"}
	w := testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var v Saved
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, recipe.SourceSpoonacular, v.Source)
	assert.Empty(t, v.RecipeID)

	w = testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "alice", body)
	assert.Equal(t, http.StatusCreated, w.Code, "bookmarks are per user")

	w = testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", map[string]any{"external_id": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", map[string]any{"recipe_id": "a", "external_id": "1", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndDelete(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecipe(t, "alice", true)

	w := testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "alice", map[string]any{"recipe_id": rec.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	var v Saved
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))

	w = testutil.Do(t, f.router, http.MethodGet, "/api/saved-recipes?search=shak", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page pagination.PageResult[Saved]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, v.ID, page.Data[0].ID)

	w = testutil.Do(t, f.router, http.MethodGet, "/api/saved-recipes", "bob", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Zero(t, page.Total)

	w = testutil.Do(t, f.router, http.MethodDelete, "/api/saved-recipes/"+v.ID, "bob", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutil.Do(t, f.router, http.MethodDelete, "/api/saved-recipes/"+v.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.Do(t, f.router, http.MethodDelete, "/api/saved-recipes/"+v.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletingRecipeRemovesBookmarks(t *testing.T) {
	f := newFixture(t)
	rec := f.createRecipe(t, "alice", true)

	w := testutil.Do(t, f.router, http.MethodPost, "/api/saved-recipes", "bob", map[string]any{"recipe_id": rec.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, f.recipes.Delete(context.Background(), "alice", rec.ID))

	w = testutil.Do(t, f.router, http.MethodGet, "/api/saved-recipes", "bob", nil)
	var page pagination.PageResult[Saved]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Zero(t, page.Total)
}
