package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe es la receta de un plato del menú; PosMenuID enlaza con el producto del POS.
type Recipe struct {
	ID         int64
	BusinessID int64
	Name       string
	PosMenuID  *int64
	Active     bool
	Memo       string
	CreatedAt  time.Time
	Items      []RecipeItem
}

// RecipeItem es un ingrediente con su cantidad por porción.
type RecipeItem struct {
	ID        int64
	RecipeID  int64
	ProductID int64
	Quantity  decimal.Decimal
	Unit      string
}
