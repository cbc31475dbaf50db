package entity

import "time"

// Tipos de negocio; definen cómo se descuentan las ventas del POS.
const (
	BusinessTypeRestaurant = "restaurant" // venta -> receta -> ingredientes
	BusinessTypeMart       = "mart"       // venta -> producto directo
)

// Business representa un negocio (tenant) dueño de tiendas, productos y documentos.
type Business struct {
	ID             int64
	Name           string
	Type           string
	PosEnabled     bool
	DefaultStoreID *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsRestaurant indica si las ventas se descuentan por receta.
func (b *Business) IsRestaurant() bool {
	return b.Type == BusinessTypeRestaurant
}

// Actor identifica quién ejecuta una operación y sobre qué negocio.
// UserID en 0 representa un proceso del sistema (sincronización POS, tareas programadas).
type Actor struct {
	BusinessID int64
	UserID     int64
}

// UserRef devuelve el usuario como referencia opcional para columnas nullables.
func (a Actor) UserRef() *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
