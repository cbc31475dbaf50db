// Package inventory contiene la lógica pura del libro de inventario: orden FEFO, reparto de
// cantidades entre lotes y cálculo de costos. No accede a la base de datos.
package inventory

import (
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Allocation es la porción de una deducción asignada a un lote.
type Allocation struct {
	LotID     int64
	Quantity  decimal.Decimal // cantidad tomada del lote
	Remaining decimal.Decimal // cantidad que queda en el lote
}

// SortFEFO ordena los lotes por vencimiento ascendente; los lotes sin vencimiento van al final.
// Los empates conservan el orden recibido.
func SortFEFO(lots []*entity.Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		a, b := lots[i].ExpiryDate, lots[j].ExpiryDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

// PlanFEFO reparte quantity entre los lotes con stock en orden FEFO, tomando
// min(cantidad del lote, pendiente) de cada uno. Devuelve las asignaciones y el faltante
// (cero si el stock alcanzó). No modifica los lotes recibidos.
func PlanFEFO(lots []*entity.Lot, quantity decimal.Decimal) ([]Allocation, decimal.Decimal) {
	ordered := make([]*entity.Lot, 0, len(lots))
	for _, l := range lots {
		if l.InStock() {
			ordered = append(ordered, l)
		}
	}
	SortFEFO(ordered)

	remaining := quantity
	var out []Allocation
	for _, l := range ordered {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(l.Quantity, remaining)
		out = append(out, Allocation{LotID: l.ID, Quantity: take, Remaining: l.Quantity.Sub(take)})
		remaining = remaining.Sub(take)
	}
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return out, remaining
}

// Available suma las cantidades positivas de los lotes.
func Available(lots []*entity.Lot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		if l.InStock() {
			total = total.Add(l.Quantity)
		}
	}
	return total
}

// TakeFromLot calcula cuánto se puede tomar de un lote concreto y el faltante.
func TakeFromLot(lot *entity.Lot, quantity decimal.Decimal) (take, shortfall decimal.Decimal) {
	if !lot.InStock() {
		return decimal.Zero, quantity
	}
	take = decimal.Min(lot.Quantity, quantity)
	return take, quantity.Sub(take)
}
