package ingredient

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Dimension groups units that convert into each other.
type Dimension string

const (
	Count  Dimension = "count"
	Volume Dimension = "volume"
	Weight Dimension = "weight"
)

// Unit systems used when choosing a display unit.
const (
	Metric   = "metric"
	Imperial = "imperial"
)

// Unit is one row of the conversion table. ToBase converts one of this unit
// into millilitres (volume) or grams (weight). Count units have no factor.
type Unit struct {
	Name      string
	Dimension Dimension
	ToBase    decimal.Decimal
	System    string
}

func unit(name string, dim Dimension, toBase, system string) Unit {
	u := Unit{Name: name, Dimension: dim, System: system}
	if toBase != "" {
		u.ToBase = decimal.RequireFromString(toBase)
	}
	return u
}

var units = map[string]Unit{
	"ml":      unit("ml", Volume, "1", Metric),
	"l":       unit("l", Volume, "1000", Metric),
	"tsp":     unit("tsp", Volume, "4.92892", Imperial),
	"tbsp":    unit("tbsp", Volume, "14.7868", Imperial),
	"fl oz":   unit("fl oz", Volume, "29.5735", Imperial),
	"cup":     unit("cup", Volume, "236.588", Imperial),
	"pint":    unit("pint", Volume, "473.176", Imperial),
	"quart":   unit("quart", Volume, "946.353", Imperial),
	"gallon":  unit("gallon", Volume, "3785.41", Imperial),
	"pinch":   unit("pinch", Volume, "0.308", ""),
	"dash":    unit("dash", Volume, "0.616", ""),
	"mg":      unit("mg", Weight, "0.001", Metric),
	"g":       unit("g", Weight, "1", Metric),
	"kg":      unit("kg", Weight, "1000", Metric),
	"oz":      unit("oz", Weight, "28.3495", Imperial),
	"lb":      unit("lb", Weight, "453.592", Imperial),
	"clove":   unit("clove", Count, "", ""),
	"can":     unit("can", Count, "", ""),
	"slice":   unit("slice", Count, "", ""),
	"piece":   unit("piece", Count, "", ""),
	"bunch":   unit("bunch", Count, "", ""),
	"sprig":   unit("sprig", Count, "", ""),
	"stick":   unit("stick", Count, "", ""),
	"head":    unit("head", Count, "", ""),
	"handful": unit("handful", Count, "", ""),
	"package": unit("package", Count, "", ""),
	"jar":     unit("jar", Count, "", ""),
}

var aliases = map[string]string{
	"milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"teaspoon": "tsp", "teaspoons": "tsp", "tsps": "tsp",
	"tablespoon": "tbsp", "tablespoons": "tbsp", "tbsps": "tbsp", "tbs": "tbsp", "tbl": "tbsp",
	"floz": "fl oz", "fl. oz": "fl oz", "fluid ounce": "fl oz", "fluid ounces": "fl oz",
	"cups": "cup", "c": "cup",
	"pints": "pint", "pt": "pint",
	"quarts": "quart", "qt": "quart",
	"gallons": "gallon", "gal": "gallon",
	"pinches": "pinch", "dashes": "dash",
	"milligram": "mg", "milligrams": "mg",
	"gram": "g", "grams": "g", "gr": "g",
	"kilogram": "kg", "kilograms": "kg", "kilo": "kg", "kilos": "kg",
	"ounce": "oz", "ounces": "oz",
	"pound": "lb", "pounds": "lb", "lbs": "lb",
	"cloves": "clove", "cans": "can", "slices": "slice",
	"pieces": "piece", "pc": "piece", "pcs": "piece",
	"bunches": "bunch", "sprigs": "sprig", "sticks": "stick", "heads": "head",
	"handfuls": "handful", "packages": "package", "pkg": "package", "jars": "jar",
}

// LookupUnit resolves a unit name or alias. "T" is a tablespoon and "t" a
// teaspoon; every other alias is case-insensitive.
func LookupUnit(s string) (Unit, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "T":
		return units["tbsp"], true
	case "t":
		return units["tsp"], true
	}

	key := strings.ToLower(strings.TrimSuffix(s, "."))
	key = strings.Join(strings.Fields(key), " ")
	if u, ok := units[key]; ok {
		return u, true
	}
	if canonical, ok := aliases[key]; ok {
		return units[canonical], true
	}
	return Unit{}, false
}

// CanonicalUnit returns the table name for s, or s lowercased when unknown.
func CanonicalUnit(s string) string {
	if u, ok := LookupUnit(s); ok {
		return u.Name
	}
	return strings.ToLower(strings.TrimSpace(s))
}

type displayStep struct {
	unit string
	min  decimal.Decimal
}

// Display ladders ordered from largest to smallest; the first unit whose
// threshold the base amount reaches wins.
var ladders = map[Dimension]map[string][]displayStep{
	Volume: {
		Metric: {
			{"l", decimal.NewFromInt(1000)},
			{"ml", decimal.Zero},
		},
		Imperial: {
			{"cup", decimal.RequireFromString("59.147")},
			{"tbsp", decimal.RequireFromString("14.7868")},
			{"tsp", decimal.Zero},
		},
	},
	Weight: {
		Metric: {
			{"kg", decimal.NewFromInt(1000)},
			{"g", decimal.Zero},
		},
		Imperial: {
			{"lb", decimal.RequireFromString("453.592")},
			{"oz", decimal.Zero},
		},
	},
}

// BestUnit expresses an amount given in base units (ml or g) in the most
// readable unit of the system, rounded to two decimals.
func BestUnit(base decimal.Decimal, dim Dimension, system string) (decimal.Decimal, string) {
	if system != Imperial {
		system = Metric
	}
	steps := ladders[dim][system]
	if len(steps) == 0 {
		return base.Round(2), ""
	}
	// Amounts below every threshold use the smallest unit.
	chosen := steps[len(steps)-1]
	mag := base.Abs()
	for _, step := range steps {
		if mag.GreaterThanOrEqual(step.min) {
			chosen = step
			break
		}
	}
	u := units[chosen.unit]
	return base.Div(u.ToBase).Round(2), u.Name
}

// Normalize re-expresses qty of unitName in the best unit of system. When
// system is empty the unit's own system is kept. Count and unknown units are
// returned unchanged.
func Normalize(qty decimal.Decimal, unitName, system string) (decimal.Decimal, string) {
	u, ok := LookupUnit(unitName)
	if !ok || u.Dimension == Count {
		return qty, unitName
	}
	if system == "" {
		system = u.System
		if system == "" {
			return qty, u.Name
		}
	}
	return BestUnit(qty.Mul(u.ToBase), u.Dimension, system)
}
