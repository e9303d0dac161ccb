package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceType origen de un movimiento de stock.
type SourceType string

const (
	SourceInitial    SourceType = "inicial"    // apertura de stock
	SourcePurchase   SourceType = "compra"     // recepción de compra
	SourceProduction SourceType = "produccion" // consumo y salida de una orden de producción
	SourceTransfer   SourceType = "traslado"   // traslado entre sucursales
	SourceControl    SourceType = "control"    // ajuste directo desde un control de inventario
	SourceAdjustment SourceType = "ajuste"     // ajuste autorizado
	SourceManual     SourceType = "manual"
)

// IsValid reporta si el origen es conocido.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceInitial, SourcePurchase, SourceProduction, SourceTransfer,
		SourceControl, SourceAdjustment, SourceManual:
		return true
	}
	return false
}

// StockMovement registro inmutable de un único cambio de cantidad.
// Nunca se actualiza ni se elimina: el repositorio solo expone inserción y lectura.
type StockMovement struct {
	ID             string
	BranchID       string
	ProductID      string
	QuantityDelta  decimal.Decimal // positivo entrada, negativo salida
	QuantityBefore decimal.Decimal
	QuantityAfter  decimal.Decimal
	Reason         string
	SourceType     SourceType
	SourceID       string
	UserID         string
	CreatedAt      time.Time
}
