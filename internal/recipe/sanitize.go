package recipe

import (
	"html"
	"strings"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// cleanText strips markup from user or scraped text and collapses whitespace.
func cleanText(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// cleanMultiline is cleanText that keeps line breaks.
func cleanMultiline(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		out = append(out, cleanText(l))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if c := cleanText(item); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(cleanText(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func makeSlug(title string) string {
	if s := slug.Make(title); s != "" {
		return s
	}
	return "recipe"
}
