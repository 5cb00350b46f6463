package ingredient

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Parsed is the structured form of one ingredient line.
type Parsed struct {
	Quantity decimal.NullDecimal `json:"quantity"`
	Unit     string              `json:"unit"`
	Name     string              `json:"name"`
	Note     string              `json:"note,omitempty"`
	Raw      string              `json:"raw"`
}

var unicodeFractions = map[rune]string{
	'½': "1/2", '⅓': "1/3", '⅔': "2/3", '¼': "1/4", '¾': "3/4",
	'⅕': "1/5", '⅖': "2/5", '⅗': "3/5", '⅘': "4/5", '⅙': "1/6",
	'⅚': "5/6", '⅛': "1/8", '⅜': "3/8", '⅝': "5/8", '⅞': "7/8",
}

var (
	gluedUnit   = regexp.MustCompile(`^(\d+(?:\.\d+)?(?:/\d+)?)([A-Za-z]+\.?)$`)
	parenthesis = regexp.MustCompile(`\(([^)]*)\)`)
)

// ParseLine splits a free-text ingredient line such as
// "1 1/2 cups all-purpose flour, sifted" into quantity, unit, name and note.
// Ranges keep their upper bound.
func ParseLine(raw string) Parsed {
	p := Parsed{Raw: strings.TrimSpace(raw)}

	line := expandFractions(p.Raw)
	line = strings.NewReplacer("–", "-", "—", "-", "⁄", "/").Replace(line)

	var notes []string
	line = parenthesis.ReplaceAllStringFunc(line, func(m string) string {
		if inner := strings.TrimSpace(m[1 : len(m)-1]); inner != "" {
			notes = append(notes, inner)
		}
		return " "
	})

	tokens := tokenize(line)

	qty, used, ok := parseQuantity(tokens)
	if !ok && len(tokens) > 1 && (strings.EqualFold(tokens[0], "a") || strings.EqualFold(tokens[0], "an")) {
		if _, isUnit := LookupUnit(tokens[1]); isUnit {
			qty, used, ok = decimal.NewFromInt(1), 1, true
		}
	}
	if ok {
		p.Quantity = decimal.NullDecimal{Decimal: qty, Valid: true}
		tokens = tokens[used:]

		if u, n := matchUnit(tokens); n > 0 {
			p.Unit = u.Name
			tokens = tokens[n:]
		}
		if len(tokens) > 0 && strings.EqualFold(tokens[0], "of") {
			tokens = tokens[1:]
		}
	}

	rest := strings.Join(tokens, " ")
	rest = strings.ReplaceAll(rest, " ,", ",")
	name, note, _ := strings.Cut(rest, ",")
	if note == "" {
		name, note = splitTrailingNote(name)
	}
	p.Name = strings.Trim(strings.TrimSpace(name), ".;:")
	if note = strings.TrimSpace(note); note != "" {
		notes = append(notes, note)
	}
	p.Note = strings.Join(notes, "; ")

	if p.Name == "" {
		p.Name = p.Raw
	}
	return p
}

var trailingNotes = []string{"to taste", "as needed", "for garnish", "for serving", "optional"}

// splitTrailingNote moves phrases like "to taste" at the end of a name
// without a comma into the note.
func splitTrailingNote(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	if len(lower) != len(trimmed) {
		return name, ""
	}
	for _, phrase := range trailingNotes {
		if head, ok := strings.CutSuffix(lower, " "+phrase); ok && head != "" {
			return trimmed[:len(head)], phrase
		}
	}
	return name, ""
}

// expandFractions turns "1½" into "1 1/2" and "½" into "1/2".
func expandFractions(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		if frac, ok := unicodeFractions[r]; ok {
			if prev >= '0' && prev <= '9' {
				b.WriteByte(' ')
			}
			b.WriteString(frac)
			b.WriteByte(' ')
		} else {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

// tokenize splits on whitespace and separates quantities glued to units ("200g").
func tokenize(line string) []string {
	var tokens []string
	for _, f := range strings.Fields(line) {
		if m := gluedUnit.FindStringSubmatch(f); m != nil {
			if _, ok := LookupUnit(m[2]); ok {
				tokens = append(tokens, m[1], m[2])
				continue
			}
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func parseQuantity(tokens []string) (decimal.Decimal, int, bool) {
	if len(tokens) == 0 {
		return decimal.Zero, 0, false
	}

	if lo, hi, found := strings.Cut(tokens[0], "-"); found && lo != "" && hi != "" {
		if lower, ok := parseNumber(lo); ok {
			if upper, ok := parseNumber(hi); ok {
				// "1-1/2" is a mixed number, not a range.
				if upper.LessThan(lower) && strings.Contains(hi, "/") {
					return lower.Add(upper), 1, true
				}
				return upper, 1, true
			}
		}
	}

	qty, used, ok := parseMixed(tokens)
	if !ok {
		return decimal.Zero, 0, false
	}

	if used < len(tokens)-1 {
		switch strings.ToLower(tokens[used]) {
		case "-", "to", "or":
			if upper, n, ok := parseMixed(tokens[used+1:]); ok {
				return upper, used + 1 + n, true
			}
		}
	}
	if used < len(tokens) && strings.HasPrefix(tokens[used], "-") {
		if upper, ok := parseNumber(strings.TrimPrefix(tokens[used], "-")); ok {
			return upper, used + 1, true
		}
	}
	return qty, used, true
}

// parseMixed reads "1", "1.5", "1/2" or "1 1/2" from the head of tokens.
func parseMixed(tokens []string) (decimal.Decimal, int, bool) {
	if len(tokens) == 0 {
		return decimal.Zero, 0, false
	}
	whole, ok := parseNumber(tokens[0])
	if !ok {
		return decimal.Zero, 0, false
	}
	if len(tokens) > 1 && whole.IsInteger() && !strings.Contains(tokens[0], "/") && strings.Contains(tokens[1], "/") {
		if frac, ok := parseNumber(tokens[1]); ok && frac.LessThan(decimal.NewFromInt(1)) {
			return whole.Add(frac), 2, true
		}
	}
	return whole, 1, true
}

func parseNumber(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := decimal.NewFromString(num)
		if err != nil {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(den)
		if err != nil || d.IsZero() {
			return decimal.Zero, false
		}
		return n.DivRound(d, 4), true
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return decimal.Zero, false
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// matchUnit recognises a one or two token unit at the head of tokens.
func matchUnit(tokens []string) (Unit, int) {
	if len(tokens) > 1 {
		if u, ok := LookupUnit(tokens[0] + " " + tokens[1]); ok {
			return u, 2
		}
	}
	if len(tokens) > 0 {
		if u, ok := LookupUnit(strings.TrimSuffix(tokens[0], ",")); ok {
			return u, 1
		}
	}
	return Unit{}, 0
}
