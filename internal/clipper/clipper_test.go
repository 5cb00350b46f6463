package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipe-planner/internal/llm"
	"recipe-planner/internal/recipe"
)

// --- Mocks ---

type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompt      string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response}, nil
}

func serve(t *testing.T, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func doc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return d
}

// --- Tests ---

const graphPage = `<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "WebSite", "name": "Food Blog"},
    {
      "@type": ["Recipe", "NewsArticle"],
      "name": "Banana Bread",
      "description": "Moist &amp; easy",
      "image": [{"@type": "ImageObject", "url": "https://blog.example/bread.jpg"}],
      "recipeYield": ["1", "1 loaf (10 slices)"],
      "prepTime": "PT15M",
      "cookTime": "PT1H5M",
      "keywords": "banana, quick bread",
      "recipeCategory": "Breakfast",
      "recipeCuisine": ["American"],
      "recipeIngredient": ["3 ripe bananas", "2 cups flour", "1/2 cup sugar"],
      "recipeInstructions": [
        {"@type": "HowToSection", "name": "Batter", "itemListElement": [
          {"@type": "HowToStep", "text": "Mash the bananas."},
          {"@type": "HowToStep", "text": "Stir in flour and sugar."}
        ]},
        {"@type": "HowToStep", "text": "Bake for 65 minutes."}
      ]
    }
  ]
}
</script></head><body><h1>Banana Bread</h1></body></html>`

func TestRecipeFromJSONLDGraph(t *testing.T) {
	in, ok := RecipeFromJSONLD(doc(t, graphPage))
	require.True(t, ok)

	assert.Equal(t, "Banana Bread", in.Title)
	assert.Equal(t, 15, in.PrepMinutes)
	assert.Equal(t, 65, in.CookMinutes)
	assert.Equal(t, 1, in.Servings)
	assert.Equal(t, "https://blog.example/bread.jpg", in.ImageURL)
	assert.Equal(t, []string{"Mash the bananas.", "Stir in flour and sugar.", "Bake for 65 minutes."}, in.Instructions)
	assert.Equal(t, []string{"banana", "quick bread", "Breakfast", "American"}, in.Tags)
	require.Len(t, in.Ingredients, 3)
	assert.Equal(t, "2 cups flour", in.Ingredients[1].Raw)
}

func TestRecipeFromJSONLDVariants(t *testing.T) {
	tests := []struct {
		name         string
		script       string
		servings     int
		instructions []string
		image        string
	}{
		{
			name:         "TopLevelObject",
			script:       `{"@type": "Recipe", "name": "Tea", "recipeIngredient": "1 tea bag", "recipeInstructions": "Boil water.\nSteep.", "recipeYield": "2 cups", "image": "https://x/tea.jpg"}`,
			servings:     2,
			instructions: []string{"Boil water.", "Steep."},
			image:        "https://x/tea.jpg",
		},
		{
			name:         "TopLevelArray",
			script:       `[{"@type": "Organization"}, {"@type": "Recipe", "name": "Toast", "recipeIngredient": ["bread"], "recipeInstructions": ["Toast it."], "recipeYield": 3}]`,
			servings:     3,
			instructions: []string{"Toast it."},
		},
		{
			name:         "SchemaPrefixedType",
			script:       `{"@type": "schema:Recipe", "name": "Jam", "recipeIngredient": ["fruit"], "image": {"url": "https://x/jam.png"}}`,
			image:        "https://x/jam.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<html><head><script type="application/ld+json">` + tt.script + `</script></head></html>`
			in, ok := RecipeFromJSONLD(doc(t, html))
			require.True(t, ok)
			assert.Equal(t, tt.servings, in.Servings)
			assert.Equal(t, tt.instructions, in.Instructions)
			assert.Equal(t, tt.image, in.ImageURL)
		})
	}
}

func TestRecipeFromJSONLDIgnoresIncomplete(t *testing.T) {
	html := `<script type="application/ld+json">{"@type": "Recipe", "name": "No ingredients"}</script>
<script type="application/ld+json">{not json</script>`
	_, ok := RecipeFromJSONLD(doc(t, html))
	assert.False(t, ok)
}

func TestParseDuration(t *testing.T) {
	tests := map[string]int{
		"PT20M":     20,
		"PT1H30M":   90,
		"P0DT1H0M":  60,
		"P1D":       1440,
		"PT45S":     1,
		"pt10m":     10,
		"20 mins":   0,
		"":          0,
		"PT0H15M0S": 15,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseDuration(in), in)
	}
}

func TestCleanText(t *testing.T) {
	html := `
		<html>
			<head><script>alert('bad');</script></head>
			<body>
				<nav>Home | About</nav>
				<h1>Tasty Recipe</h1>
				<div class="ads">Buy stuff!</div>
				<p>Mix flour   and water.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`

	cleanText := CleanText(doc(t, html))

	assert.NotContains(t, cleanText, "alert('bad')")
	assert.NotContains(t, cleanText, "Buy stuff!")
	assert.NotContains(t, cleanText, "Copyright 2024")
	assert.NotContains(t, cleanText, "Home | About")
	assert.Contains(t, cleanText, "Tasty Recipe")
	assert.Contains(t, cleanText, "Mix flour and water.")
}

func TestClipJSONLD(t *testing.T) {
	ts := serve(t, graphPage)
	mockAI := &MockTextGenerator{}
	c := NewClipper(recipe.NewExtractor(mockAI, nil, nil, zap.NewNop()), zap.NewNop())

	in, err := c.Clip(context.Background(), ts.URL+"/banana-bread")
	require.NoError(t, err)
	assert.Equal(t, "Banana Bread", in.Title)
	assert.Equal(t, recipe.SourceURL, in.Source)
	assert.Equal(t, ts.URL+"/banana-bread", in.SourceURL)
	assert.Empty(t, mockAI.Prompt, "the LLM is not needed when JSON-LD is present")
}

func TestClipLLMFallback(t *testing.T) {
	aiResponse := `{"title": "Mock Pie", "ingredients": ["1 apple"], "instructions": ["Bake"], "servings": 8}`
	mockAI := &MockTextGenerator{Response: aiResponse}
	c := NewClipper(recipe.NewExtractor(mockAI, nil, nil, zap.NewNop()), zap.NewNop())

	ts := serve(t, "<html><head><title>Grandma's Pie</title></head><body><p>Some Content</p><footer>ignore me</footer></body></html>")

	in, err := c.Clip(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "Mock Pie", in.Title)
	assert.Equal(t, 8, in.Servings)
	assert.Equal(t, recipe.SourceURL, in.Source)
	assert.Contains(t, mockAI.Prompt, "Grandma's Pie")
	assert.Contains(t, mockAI.Prompt, "Some Content")
	assert.NotContains(t, mockAI.Prompt, "ignore me")
}

func TestClipErrors(t *testing.T) {
	ctx := context.Background()
	plain := serve(t, "<html><body>Just a blog post</body></html>")

	c := NewClipper(nil, zap.NewNop())
	_, err := c.Clip(ctx, plain.URL)
	assert.ErrorIs(t, err, ErrNoRecipeFound)

	_, err = c.Clip(ctx, "ftp://example.com/recipe")
	assert.ErrorIs(t, err, ErrInvalidURL)
	_, err = c.Clip(ctx, "not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)

	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()
	_, err = c.Clip(ctx, missing.URL)
	assert.ErrorIs(t, err, ErrFetch)

	noRecipe := NewClipper(recipe.NewExtractor(&MockTextGenerator{Response: `{"title": "", "ingredients": []}`}, nil, nil, zap.NewNop()), zap.NewNop())
	_, err = noRecipe.Clip(ctx, plain.URL)
	assert.ErrorIs(t, err, ErrNoRecipeFound)

	failing := NewClipper(recipe.NewExtractor(&MockTextGenerator{ShouldError: true}, nil, nil, zap.NewNop()), zap.NewNop())
	_, err = failing.Clip(ctx, plain.URL)
	assert.ErrorIs(t, err, recipe.ErrExtraction)
}
