// Package ingredient holds the ingredient catalog and the quantity parser,
// converter and aggregator used by recipes and grocery lists.
package ingredient

import (
	"time"

	"github.com/shopspring/decimal"
)

// Catalog categories, also used to group grocery items.
const (
	CategoryProduce = "produce"
	CategoryDairy   = "dairy"
	CategoryMeat    = "meat"
	CategoryPantry  = "pantry"
	CategorySpice   = "spice"
	CategoryBakery  = "bakery"
	CategoryFrozen  = "frozen"
	CategoryOther   = "other"
)

// Categories lists every catalog category in shopping order.
var Categories = []string{
	CategoryProduce, CategoryMeat, CategoryDairy, CategoryBakery,
	CategoryPantry, CategorySpice, CategoryFrozen, CategoryOther,
}

// Ingredient is a catalog entry. Density is in g/ml.
type Ingredient struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Category  string              `json:"category"`
	Density   decimal.NullDecimal `json:"density"`
	CreatedAt time.Time           `json:"created_at"`
}

type CreateInput struct {
	Name     string              `json:"name" binding:"required,max=100"`
	Category string              `json:"category" binding:"omitempty,oneof=produce dairy meat pantry spice bakery frozen other"`
	Density  decimal.NullDecimal `json:"density"`
}
