package clipper

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"recipe-planner/internal/recipe"
)

// JSONLDObjects returns every object in the page's ld+json scripts, with
// top-level arrays and @graph containers flattened.
func JSONLDObjects(doc *goquery.Document) []map[string]any {
	var out []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			return
		}
		out = append(out, flatten(v)...)
	})
	return out
}

func flatten(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		var out []map[string]any
		for _, item := range t {
			out = append(out, flatten(item)...)
		}
		return out
	case map[string]any:
		out := []map[string]any{t}
		if graph, ok := t["@graph"]; ok {
			out = append(out, flatten(graph)...)
		}
		return out
	}
	return nil
}

// HasType reports whether a JSON-LD object has @type typ.
func HasType(obj map[string]any, typ string) bool {
	for _, t := range stringsOf(obj["@type"]) {
		if strings.EqualFold(t, typ) || strings.EqualFold(strings.TrimPrefix(t, "schema:"), typ) {
			return true
		}
	}
	return false
}

// RecipeFromJSONLD reads the first schema.org Recipe on the page.
func RecipeFromJSONLD(doc *goquery.Document) (*recipe.Input, bool) {
	for _, obj := range JSONLDObjects(doc) {
		if !HasType(obj, "Recipe") {
			continue
		}
		in := recipeFromObject(obj)
		if in.Title == "" || len(in.Ingredients) == 0 {
			continue
		}
		return in, true
	}
	return nil, false
}

func recipeFromObject(obj map[string]any) *recipe.Input {
	in := &recipe.Input{
		Title:        text(obj["name"]),
		Description:  text(obj["description"]),
		Ingredients:  recipe.Lines(stringsOf(firstOf(obj, "recipeIngredient", "ingredients"))),
		Instructions: instructions(obj["recipeInstructions"]),
		PrepMinutes:  ParseDuration(text(obj["prepTime"])),
		CookMinutes:  ParseDuration(text(obj["cookTime"])),
		Servings:     servings(obj["recipeYield"]),
		ImageURL:     imageURL(obj["image"]),
	}
	if in.PrepMinutes == 0 && in.CookMinutes == 0 {
		in.CookMinutes = ParseDuration(text(obj["totalTime"]))
	}

	in.Tags = append(in.Tags, keywords(obj["keywords"])...)
	in.Tags = append(in.Tags, stringsOf(obj["recipeCategory"])...)
	in.Tags = append(in.Tags, stringsOf(obj["recipeCuisine"])...)
	return in
}

func firstOf(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		if len(t) > 0 {
			return text(t[0])
		}
	}
	return ""
}

// stringsOf accepts a string or a list of strings.
func stringsOf(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

// instructions handles plain text, lists of strings, HowToStep objects and
// HowToSection groups of steps.
func instructions(v any) []string {
	switch t := v.(type) {
	case string:
		var out []string
		for _, line := range strings.Split(t, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, instructions(item)...)
		}
		return out
	case map[string]any:
		if items, ok := t["itemListElement"]; ok {
			return instructions(items)
		}
		if s := text(t["text"]); s != "" {
			return []string{s}
		}
		if s := text(t["name"]); s != "" {
			return []string{s}
		}
	}
	return nil
}

var leadingNumber = regexp.MustCompile(`\d+`)

// servings reads recipeYield: 4, "4", "4 servings" or ["4", "4 servings"].
func servings(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		if m := leadingNumber.FindString(t); m != "" {
			n, _ := strconv.Atoi(m)
			return n
		}
	case []any:
		for _, item := range t {
			if n := servings(item); n > 0 {
				return n
			}
		}
	}
	return 0
}

func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if u := imageURL(item); u != "" {
				return u
			}
		}
	case map[string]any:
		if u := text(t["url"]); u != "" {
			return u
		}
		return text(t["contentUrl"])
	}
	return ""
}

func keywords(v any) []string {
	if s, ok := v.(string); ok {
		var out []string
		for _, k := range strings.Split(s, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
		return out
	}
	return stringsOf(v)
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseDuration converts an ISO-8601 duration such as "PT1H30M" to whole
// minutes. Unparseable values yield 0.
func ParseDuration(s string) int {
	m := isoDuration.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0
	}
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	minutes := atoi(m[1])*24*60 + atoi(m[2])*60 + atoi(m[3])
	if secs, err := strconv.ParseFloat(m[4], 64); err == nil && secs >= 30 {
		minutes++
	}
	return minutes
}
