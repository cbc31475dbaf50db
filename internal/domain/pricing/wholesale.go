// Package pricing calcula precios y descuentos de pedidos mayoristas.
package pricing

import (
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote es el precio resuelto para una línea.
type Quote struct {
	UnitPrice    decimal.Decimal
	DiscountRate decimal.Decimal
}

// Resolve aplica el precio especial del cliente sobre el precio de lista.
// Un precio fijo reemplaza el precio y anula el porcentaje; una fila por porcentaje usa su tasa;
// sin fila especial aplica la tasa por defecto del cliente.
func Resolve(listPrice, clientRate decimal.Decimal, special *entity.WholesalePricing) Quote {
	if special != nil {
		if special.DiscountType == entity.DiscountTypeFixed && special.FixedPrice != nil {
			return Quote{UnitPrice: *special.FixedPrice, DiscountRate: decimal.Zero}
		}
		if special.DiscountType == entity.DiscountTypeRate {
			return Quote{UnitPrice: listPrice, DiscountRate: special.DiscountRate}
		}
	}
	return Quote{UnitPrice: listPrice, DiscountRate: clientRate}
}

// Line calcula bruto, descuento e importe neto de una línea: descuento = qty × precio × tasa / 100.
func Line(qty, unitPrice, rate decimal.Decimal) (gross, discount, amount decimal.Decimal) {
	gross = qty.Mul(unitPrice).Round(2)
	discount = gross.Mul(rate).Div(hundred).Round(2)
	return gross, discount, gross.Sub(discount)
}

// Totals suma las líneas del pedido y fija TotalAmount, DiscountAmount y FinalAmount.
func Totals(o *entity.WholesaleOrder) {
	total, disc := decimal.Zero, decimal.Zero
	for i := range o.Items {
		it := &o.Items[i]
		gross, d, amount := Line(it.Quantity, it.UnitPrice, it.DiscountRate)
		it.DiscountAmount = d
		it.Amount = amount
		total = total.Add(gross)
		disc = disc.Add(d)
	}
	o.TotalAmount = total
	o.DiscountAmount = disc
	o.FinalAmount = total.Sub(disc)
}

// PaymentStatus deriva el estado de pago a partir de lo abonado.
func PaymentStatus(final, paid decimal.Decimal) string {
	switch {
	case !paid.IsPositive():
		return entity.PaymentUnpaid
	case paid.GreaterThanOrEqual(final):
		return entity.PaymentPaid
	default:
		return entity.PaymentPartial
	}
}
