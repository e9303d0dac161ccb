package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockEntry cantidad actual de un producto en una sucursal.
// Version se incrementa en cada escritura y habilita el control optimista de concurrencia.
type StockEntry struct {
	BranchID        string
	ProductID       string
	Quantity        decimal.Decimal
	MinimumQuantity decimal.Decimal
	Version         int64
	UpdatedAt       time.Time
}

// IsLow indica si la cantidad está en o por debajo del mínimo configurado.
func (s StockEntry) IsLow() bool {
	return s.Quantity.LessThanOrEqual(s.MinimumQuantity)
}

// StockKey identifica una fila de stock (sucursal + producto).
type StockKey struct {
	BranchID  string
	ProductID string
}

// Key devuelve la clave de la entrada.
func (s StockEntry) Key() StockKey {
	return StockKey{BranchID: s.BranchID, ProductID: s.ProductID}
}
