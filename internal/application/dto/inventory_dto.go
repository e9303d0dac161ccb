package dto

import (
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockResponse salida de una entrada de stock.
type StockResponse struct {
	BranchID        string          `json:"branch_id"`
	ProductID       string          `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewStockResponse mapea la entidad a la salida HTTP.
func NewStockResponse(e *entity.StockEntry) StockResponse {
	return StockResponse{
		BranchID:        e.BranchID,
		ProductID:       e.ProductID,
		Quantity:        e.Quantity,
		MinimumQuantity: e.MinimumQuantity,
		UpdatedAt:       e.UpdatedAt,
	}
}

// NewStockListResponse mapea una lista de entradas.
func NewStockListResponse(list []*entity.StockEntry) []StockResponse {
	out := make([]StockResponse, 0, len(list))
	for _, e := range list {
		out = append(out, NewStockResponse(e))
	}
	return out
}

// LowStockDTO producto en o bajo su mínimo, con la reposición sugerida.
type LowStockDTO struct {
	BranchID          string          `json:"branch_id"`
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	ProductCode       string          `json:"product_code"`
	Quantity          decimal.Decimal `json:"quantity"`
	MinimumQuantity   decimal.Decimal `json:"minimum_quantity"`
	IdealStock        decimal.Decimal `json:"ideal_stock"`         // MinimumQuantity * 1.5
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"` // IdealStock - Quantity
}

// InitializeStockRequest body para POST /api/stock/initialize.
type InitializeStockRequest struct {
	BranchID        string          `json:"branch_id" validate:"required"`
	ProductID       string          `json:"product_id" validate:"required"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
	OpeningQuantity decimal.Decimal `json:"opening_quantity"`
}

// ReceiptLineRequest línea de una recepción de compra.
type ReceiptLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// ReceiptRequest body para POST /api/receipts.
type ReceiptRequest struct {
	BranchID  string               `json:"branch_id" validate:"required"`
	Reference string               `json:"reference" validate:"max=100"`
	Lines     []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// MovementResponse salida de un movimiento de stock.
type MovementResponse struct {
	ID             string          `json:"id"`
	BranchID       string          `json:"branch_id"`
	ProductID      string          `json:"product_id"`
	QuantityDelta  decimal.Decimal `json:"quantity_delta"`
	QuantityBefore decimal.Decimal `json:"quantity_before"`
	QuantityAfter  decimal.Decimal `json:"quantity_after"`
	Reason         string          `json:"reason"`
	SourceType     string          `json:"source_type"`
	SourceID       string          `json:"source_id"`
	UserID         string          `json:"user_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewMovementListResponse mapea movimientos a la salida HTTP.
func NewMovementListResponse(list []*entity.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, MovementResponse{
			ID:             m.ID,
			BranchID:       m.BranchID,
			ProductID:      m.ProductID,
			QuantityDelta:  m.QuantityDelta,
			QuantityBefore: m.QuantityBefore,
			QuantityAfter:  m.QuantityAfter,
			Reason:         m.Reason,
			SourceType:     string(m.SourceType),
			SourceID:       m.SourceID,
			UserID:         m.UserID,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out
}
