package ingredient

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipe-planner/internal/pagination"
	"recipe-planner/internal/testutil"
)

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t), zap.NewNop())
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateInput{
		Name:     "Coconut Milk",
		Category: CategoryPantry,
		Density:  decimal.NewNullDecimal(decimal.RequireFromString("0.97")),
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coconut Milk", got.Name)
	assert.Equal(t, CategoryPantry, got.Category)
	assert.True(t, got.Density.Valid)
	assert.Equal(t, "0.97", got.Density.Decimal.String())

	_, err = repo.Create(ctx, CreateInput{Name: "coconut milk"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryCreateValidates(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t), zap.NewNop())
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = repo.Create(ctx, CreateInput{Name: "lead", Density: decimal.NewNullDecimal(decimal.NewFromInt(-1))})
	assert.ErrorIs(t, err, ErrInvalidInput)

	created, err := repo.Create(ctx, CreateInput{Name: "saffron"})
	require.NoError(t, err)
	assert.Equal(t, CategoryOther, created.Category)
}

func TestRepositoryListSearch(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t), zap.NewNop())
	ctx := context.Background()

	page := pagination.PageRequest{Page: 1, PageSize: 10, Search: "CHEESE"}
	res, err := repo.List(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	for _, i := range res.Data {
		assert.Contains(t, i.Name, "cheese")
	}
}

func TestRepositoryMatch(t *testing.T) {
	repo := NewRepository(testutil.NewDB(t), zap.NewNop())

	matches, err := repo.Match(context.Background(), []string{
		"Tomatoes", "diced tomatoes", "all purpose flour", "unobtainium",
	})
	require.NoError(t, err)

	assert.Equal(t, CategoryProduce, matches["Tomatoes"].Category)
	assert.Equal(t, "tomato", matches["diced tomatoes"].Name)
	assert.Equal(t, "all-purpose flour", matches["all purpose flour"].Name)
	assert.True(t, matches["all purpose flour"].Density.Valid)
	assert.NotContains(t, matches, "unobtainium")
}
