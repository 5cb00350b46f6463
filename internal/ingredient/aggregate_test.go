package ingredient

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"  Tomatoes ":       "tomato",
		"Cherries":          "cherry",
		"red onions":        "red onion",
		"peaches":           "peach",
		"Eggs":              "egg",
		"glass noodles":     "glass noodle",
		"molasses":          "molasses",
		"hummus":            "hummus",
		"all-purpose flour": "all-purpose flour",
		"frozen peas":       "frozen pea",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in), in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("egg", "egg"))
	assert.InDelta(t, 0.94, Similarity("all-purpose flour", "all purpose flour"), 0.01)
	assert.Less(t, Similarity("salt", "malt"), MinSimilarity)
}

func TestAggregateSumsWithinDimension(t *testing.T) {
	lines := []Line{
		{Name: "Flour", Quantity: qty("1"), Unit: "cup", Source: "Pancakes"},
		{Name: "flour", Quantity: qty("8"), Unit: "tbsp", Source: "Waffles"},
		{Name: "Eggs", Quantity: qty("2"), Source: "Pancakes"},
		{Name: "egg", Quantity: qty("1"), Source: "Waffles"},
	}

	out := Aggregate(lines, Imperial)
	require.Len(t, out, 2)

	assert.Equal(t, "Flour", out[0].Name)
	assert.Equal(t, "1.5", out[0].Quantity.Decimal.String())
	assert.Equal(t, "cup", out[0].Unit)
	assert.Equal(t, []string{"Pancakes", "Waffles"}, out[0].Sources)

	assert.Equal(t, "3", out[1].Quantity.Decimal.String())
	assert.Equal(t, "", out[1].Unit)
}

func TestAggregateMetricDisplay(t *testing.T) {
	lines := []Line{
		{Name: "milk", Quantity: qty("600"), Unit: "ml"},
		{Name: "milk", Quantity: qty("0.5"), Unit: "l"},
		{Name: "sugar", Quantity: qty("1"), Unit: "lb"},
	}

	out := Aggregate(lines, Metric)
	require.Len(t, out, 2)
	assert.Equal(t, "1.1", out[0].Quantity.Decimal.String())
	assert.Equal(t, "l", out[0].Unit)
	assert.Equal(t, "453.59", out[1].Quantity.Decimal.String())
	assert.Equal(t, "g", out[1].Unit)
}

func TestAggregateKeepsIncompatibleDimensionsApart(t *testing.T) {
	lines := []Line{
		{Name: "butter", Quantity: qty("100"), Unit: "g"},
		{Name: "butter", Quantity: qty("2"), Unit: "tbsp"},
		{Name: "butter", Quantity: qty("1"), Unit: "stick"},
	}

	out := Aggregate(lines, Metric)
	require.Len(t, out, 3)
	assert.Equal(t, "g", out[0].Unit)
	assert.Equal(t, "ml", out[1].Unit)
	assert.Equal(t, "29.57", out[1].Quantity.Decimal.String())
	assert.Equal(t, "stick", out[2].Unit)
}

func TestAggregateFuzzyNames(t *testing.T) {
	lines := []Line{
		{Name: "all-purpose flour", Quantity: qty("100"), Unit: "g"},
		{Name: "all purpose flour", Quantity: qty("150"), Unit: "g"},
		{Name: "salt", Quantity: qty("1"), Unit: "g"},
		{Name: "malt", Quantity: qty("1"), Unit: "g"},
	}

	out := Aggregate(lines, Metric)
	require.Len(t, out, 3)
	assert.Equal(t, "250", out[0].Quantity.Decimal.String())
}

func TestAggregateToTaste(t *testing.T) {
	lines := []Line{
		{Name: "salt", Source: "Soup"},
		{Name: "Salt", Source: "Stew"},
		{Name: "pepper", Source: "Soup"},
		{Name: "pepper", Quantity: qty("1"), Unit: "tsp", Source: "Stew"},
	}

	out := Aggregate(lines, Metric)
	require.Len(t, out, 2)

	assert.True(t, out[0].ToTaste)
	assert.False(t, out[0].Quantity.Valid)
	assert.Equal(t, []string{"Soup", "Stew"}, out[0].Sources)

	assert.False(t, out[1].ToTaste)
	assert.Equal(t, "4.93", out[1].Quantity.Decimal.String())
	assert.Equal(t, "ml", out[1].Unit)
}

func TestAggregateEmpty(t *testing.T) {
	out := Aggregate(nil, Metric)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
