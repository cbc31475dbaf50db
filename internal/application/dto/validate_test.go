package dto_test

import (
	"testing"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_StockInValido(t *testing.T) {
	in := dto.StockInRequest{ProductID: 1, StoreID: 2, Quantity: decimal.NewFromInt(5), ExpiryDate: "2026-12-31"}
	assert.Empty(t, dto.Validate(in))
}

func TestValidate_CantidadYFechaInvalidas(t *testing.T) {
	in := dto.StockInRequest{ProductID: 1, StoreID: 2, Quantity: decimal.Zero, ExpiryDate: "31/12/2026"}
	errs := dto.Validate(in)
	require.Len(t, errs, 2)
	fields := []string{errs[0].Field, errs[1].Field}
	assert.ElementsMatch(t, []string{"quantity", "expiry_date"}, fields)
}

func TestValidate_LineasAnidadas(t *testing.T) {
	in := dto.CreateTransferRequest{FromStoreID: 1, ToStoreID: 1, Items: []dto.LotQuantityRequest{{LotID: 3, Quantity: decimal.NewFromInt(-1)}}}
	errs := dto.Validate(in)
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"to_store_id", "items[0].quantity"}, fields)
}

func TestValidate_TasaDeDescuentoFueraDeRango(t *testing.T) {
	errs := dto.Validate(dto.CreateClientRequest{Name: "Distribuidora", DefaultDiscountRate: decimal.NewFromInt(120)})
	require.Len(t, errs, 1)
	assert.Equal(t, "default_discount_rate", errs[0].Field)
}

func TestParseDate(t *testing.T) {
	d, err := dto.ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = dto.ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())

	_, err = dto.ParseDate("mañana")
	assert.Error(t, err)
}
