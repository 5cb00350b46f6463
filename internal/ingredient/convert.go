package ingredient

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Convert converts qty between two units. Volume and weight convert into each
// other only when density (g/ml) is given. Count units convert only to themselves.
func Convert(qty decimal.Decimal, from, to string, density decimal.NullDecimal) (decimal.Decimal, error) {
	src, ok := LookupUnit(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
	}
	dst, ok := LookupUnit(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownUnit, to)
	}

	if src.Dimension == Count || dst.Dimension == Count {
		if src.Name == dst.Name {
			return qty, nil
		}
		return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrIncompatibleUnits, src.Name, dst.Name)
	}

	base := qty.Mul(src.ToBase)

	if src.Dimension != dst.Dimension {
		if !density.Valid || !density.Decimal.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: %s to %s needs a density", ErrIncompatibleUnits, src.Name, dst.Name)
		}
		if src.Dimension == Volume {
			base = base.Mul(density.Decimal)
		} else {
			base = base.Div(density.Decimal)
		}
	}

	return base.Div(dst.ToBase), nil
}
