package entity

import "time"

// Store representa una tienda o sucursal de un negocio. Cada tienda tiene sus propias ubicaciones
// (bodega, cocina, vitrina) identificadas por texto libre en los lotes.
type Store struct {
	ID         int64
	BusinessID int64
	Name       string
	Address    string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
