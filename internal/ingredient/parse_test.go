package ingredient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		qty  string
		unit string
		name string
		note string
	}{
		{"1 1/2 cups all-purpose flour, sifted", "1.5", "cup", "all-purpose flour", "sifted"},
		{"2 eggs", "2", "", "eggs", ""},
		{"½ cup sugar", "0.5", "cup", "sugar", ""},
		{"1½ cups milk", "1.5", "cup", "milk", ""},
		{"2-3 tomatoes", "3", "", "tomatoes", ""},
		{"2 to 3 cloves garlic, minced", "3", "clove", "garlic", "minced"},
		{"200g butter", "200", "g", "butter", ""},
		{"1.25 kg potatoes", "1.25", "kg", "potatoes", ""},
		{"3/4 tsp salt", "0.75", "tsp", "salt", ""},
		{"2 T olive oil", "2", "tbsp", "olive oil", ""},
		{"1 t vanilla extract", "1", "tsp", "vanilla extract", ""},
		{"1 (14 oz) can diced tomatoes", "1", "can", "diced tomatoes", "14 oz"},
		{"4 fl oz cream", "4", "fl oz", "cream", ""},
		{"1 cup of rice", "1", "cup", "rice", ""},
		{"a pinch of salt", "1", "pinch", "salt", ""},
		{"1-1/2 cups water", "1.5", "cup", "water", ""},
		{"2 lbs. ground beef", "2", "lb", "ground beef", ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p := ParseLine(tt.line)
			if assert.True(t, p.Quantity.Valid, "quantity") {
				assert.Equal(t, tt.qty, p.Quantity.Decimal.String())
			}
			assert.Equal(t, tt.unit, p.Unit)
			assert.Equal(t, tt.name, p.Name)
			assert.Equal(t, tt.note, p.Note)
			assert.Equal(t, tt.line, p.Raw)
		})
	}
}

func TestParseLineWithoutQuantity(t *testing.T) {
	p := ParseLine("salt, to taste")
	assert.False(t, p.Quantity.Valid)
	assert.Empty(t, p.Unit)
	assert.Equal(t, "salt", p.Name)
	assert.Equal(t, "to taste", p.Note)

	p = ParseLine("Pepper to taste")
	assert.Equal(t, "Pepper", p.Name)
	assert.Equal(t, "to taste", p.Note)

	p = ParseLine("2 tbsp parsley for garnish")
	assert.Equal(t, "parsley", p.Name)
	assert.Equal(t, "for garnish", p.Note)

	p = ParseLine("Fresh basil leaves")
	assert.False(t, p.Quantity.Valid)
	assert.Equal(t, "Fresh basil leaves", p.Name)
}

func TestParseLineOnlyQuantity(t *testing.T) {
	p := ParseLine("2 cups")
	assert.Equal(t, "2 cups", p.Name)
}
