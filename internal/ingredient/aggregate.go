package ingredient

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// MinSimilarity is the Levenshtein similarity above which two normalised
// names are treated as the same ingredient.
const MinSimilarity = 0.85

// Line is one ingredient quantity fed into the aggregator.
type Line struct {
	Name     string              `json:"name" binding:"required"`
	Quantity decimal.NullDecimal `json:"quantity"`
	Unit     string              `json:"unit"`
	Source   string              `json:"source,omitempty"`
}

// Aggregated is one merged shopping line.
type Aggregated struct {
	Name     string              `json:"name"`
	Key      string              `json:"key"`
	Quantity decimal.NullDecimal `json:"quantity"`
	Unit     string              `json:"unit"`
	ToTaste  bool                `json:"to_taste,omitempty"`
	Sources  []string            `json:"sources"`
}

var invariantNouns = map[string]bool{
	"molasses": true, "swiss": true, "series": true, "species": true,
	"hummus": true, "couscous": true, "asparagus": true, "citrus": true,
}

// NormalizeName lowercases, trims and singularises the last word of name.
func NormalizeName(name string) string {
	words := strings.Fields(strings.ToLower(name))
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = strings.Trim(w, ".,;:!?\"'")
	}
	last := len(words) - 1
	words[last] = singular(words[last])
	return strings.TrimSpace(strings.Join(words, " "))
}

func singular(w string) string {
	if len(w) <= 3 || invariantNouns[w] {
		return w
	}
	switch {
	case strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "oes"),
		strings.HasSuffix(w, "ches"),
		strings.HasSuffix(w, "shes"),
		strings.HasSuffix(w, "sses"),
		strings.HasSuffix(w, "xes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}

// Similarity returns 1 - distance/maxLen for two strings.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

type bucket struct {
	dim    Dimension
	unit   string
	amount decimal.Decimal
}

type group struct {
	key     string
	name    string
	buckets []*bucket
	toTaste bool
	sources []string
}

func (g *group) addSource(src string) {
	if src == "" {
		return
	}
	for _, s := range g.sources {
		if s == src {
			return
		}
	}
	g.sources = append(g.sources, src)
}

func (g *group) add(l Line) {
	g.addSource(l.Source)
	if !l.Quantity.Valid {
		g.toTaste = true
		return
	}

	u, known := LookupUnit(l.Unit)
	b := &bucket{dim: Count, unit: strings.ToLower(strings.TrimSpace(l.Unit)), amount: l.Quantity.Decimal}
	if known {
		b.unit = u.Name
		if u.Dimension != Count {
			b.dim = u.Dimension
			b.unit = ""
			b.amount = l.Quantity.Decimal.Mul(u.ToBase)
		}
	}

	for _, existing := range g.buckets {
		if existing.dim == b.dim && existing.unit == b.unit {
			existing.amount = existing.amount.Add(b.amount)
			return
		}
	}
	g.buckets = append(g.buckets, b)
}

// Aggregate merges duplicate ingredients. Amounts of one dimension are summed
// in base units and shown in the best unit of system. Incompatible dimensions
// stay on separate lines. Lines without a quantity merge into a "to taste"
// line when nothing measurable exists for that ingredient.
func Aggregate(lines []Line, system string) []Aggregated {
	var groups []*group

	for _, l := range lines {
		key := NormalizeName(l.Name)
		if key == "" {
			continue
		}
		g := findGroup(groups, key)
		if g == nil {
			g = &group{key: key, name: strings.TrimSpace(l.Name)}
			groups = append(groups, g)
		}
		g.add(l)
	}

	out := make([]Aggregated, 0, len(groups))
	for _, g := range groups {
		sources := g.sources
		if sources == nil {
			sources = []string{}
		}
		if len(g.buckets) == 0 {
			out = append(out, Aggregated{Name: g.name, Key: g.key, ToTaste: g.toTaste, Sources: sources})
			continue
		}
		for _, b := range g.buckets {
			qty, unitName := b.amount.Round(2), b.unit
			if b.dim != Count {
				qty, unitName = BestUnit(b.amount, b.dim, system)
			}
			out = append(out, Aggregated{
				Name:     g.name,
				Key:      g.key,
				Quantity: decimal.NullDecimal{Decimal: qty, Valid: true},
				Unit:     unitName,
				Sources:  sources,
			})
		}
	}
	return out
}

func findGroup(groups []*group, key string) *group {
	var best *group
	bestScore := 0.0
	for _, g := range groups {
		if g.key == key {
			return g
		}
		if s := Similarity(g.key, key); s >= MinSimilarity && s > bestScore {
			best, bestScore = g, s
		}
	}
	return best
}
