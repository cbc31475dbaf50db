package entity

import (
	"fmt"
	"time"
)

// Prefijos de numeración de documentos.
const (
	PrefixPurchase  = "PO"
	PrefixSale      = "SA"
	PrefixWholesale = "WO"
)

// DocumentNumber arma el número PREFIJO-YYYYMMDD-NNN; seq es el consecutivo del día desde 1.
func DocumentNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), seq)
}
