package inventory_test

import (
	"testing"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func lot(id int64, expiry *time.Time, qty int64) *entity.Lot {
	return &entity.Lot{ID: id, ProductID: 1, StoreID: 1, Location: "warehouse", ExpiryDate: expiry, Quantity: decimal.NewFromInt(qty)}
}

// ─── Orden FEFO ──────────────────────────────────────────────────────────────

func TestPlanFEFO_VenceAntesSeConsumePrimero(t *testing.T) {
	lots := []*entity.Lot{
		lot(3, nil, 5),
		lot(2, day("2026-02-01"), 5),
		lot(1, day("2026-01-10"), 5),
	}

	allocs, shortfall := inventory.PlanFEFO(lots, decimal.NewFromInt(8))

	require.Len(t, allocs, 2)
	assert.Equal(t, int64(1), allocs[0].LotID)
	assert.True(t, allocs[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, allocs[0].Remaining.IsZero())
	assert.Equal(t, int64(2), allocs[1].LotID)
	assert.True(t, allocs[1].Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, allocs[1].Remaining.Equal(decimal.NewFromInt(2)))
	assert.True(t, shortfall.IsZero())
	// el lote sin vencimiento no se toca
	assert.True(t, lots[0].Quantity.Equal(decimal.NewFromInt(5)))
}

func TestPlanFEFO_SinVencimientoVaAlFinal(t *testing.T) {
	lots := []*entity.Lot{
		lot(1, day("2026-03-01"), 10),
		lot(2, nil, 4),
	}

	allocs, shortfall := inventory.PlanFEFO(lots, decimal.NewFromInt(12))

	require.Len(t, allocs, 2)
	assert.True(t, allocs[0].Remaining.IsZero())
	assert.True(t, allocs[1].Remaining.Equal(decimal.NewFromInt(2)))
	assert.True(t, shortfall.IsZero())
}

func TestPlanFEFO_FaltanteSeReporta(t *testing.T) {
	lots := []*entity.Lot{
		lot(1, day("2026-01-10"), 3),
		lot(2, nil, 2),
	}

	allocs, shortfall := inventory.PlanFEFO(lots, decimal.NewFromInt(9))

	require.Len(t, allocs, 2)
	for _, a := range allocs {
		assert.True(t, a.Remaining.IsZero())
	}
	assert.True(t, shortfall.Equal(decimal.NewFromInt(4)))
}

func TestPlanFEFO_IgnoraLotesEnCero(t *testing.T) {
	lots := []*entity.Lot{
		lot(1, day("2026-01-01"), 0),
		lot(2, day("2026-01-05"), -1),
		lot(3, day("2026-01-09"), 4),
	}

	allocs, shortfall := inventory.PlanFEFO(lots, decimal.NewFromInt(2))

	require.Len(t, allocs, 1)
	assert.Equal(t, int64(3), allocs[0].LotID)
	assert.True(t, shortfall.IsZero())
}

func TestSortFEFO_EmpateConservaOrden(t *testing.T) {
	lots := []*entity.Lot{
		lot(7, day("2026-05-01"), 1),
		lot(4, day("2026-05-01"), 1),
		lot(9, nil, 1),
		lot(5, day("2026-04-01"), 1),
	}

	inventory.SortFEFO(lots)

	ids := []int64{lots[0].ID, lots[1].ID, lots[2].ID, lots[3].ID}
	assert.Equal(t, []int64{5, 7, 4, 9}, ids)
}

func TestTakeFromLot(t *testing.T) {
	tests := []struct {
		name      string
		lotQty    int64
		want      int64
		take      int64
		shortfall int64
	}{
		{"alcanza", 10, 4, 4, 0},
		{"parcial", 3, 5, 3, 2},
		{"agotado", 0, 5, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			take, short := inventory.TakeFromLot(lot(1, nil, tt.lotQty), decimal.NewFromInt(tt.want))
			assert.True(t, take.Equal(decimal.NewFromInt(tt.take)))
			assert.True(t, short.Equal(decimal.NewFromInt(tt.shortfall)))
		})
	}
}

func TestWeightedAverageCost(t *testing.T) {
	got := inventory.WeightedAverageCost(decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.NewFromInt(10), decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), got.String())

	assert.True(t, inventory.WeightedAverageCost(decimal.Zero, decimal.Zero, decimal.Zero, decimal.NewFromInt(5)).IsZero())
}
