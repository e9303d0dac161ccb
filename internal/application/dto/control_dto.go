package dto

import (
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// OpenSessionRequest body para POST /api/control-sessions. Sin ProductIDs se cuentan todos los
// productos con stock registrado en la sucursal.
type OpenSessionRequest struct {
	BranchID   string   `json:"branch_id" validate:"required"`
	ProductIDs []string `json:"product_ids" validate:"omitempty,dive,required"`
}

// RecordCountRequest body para PUT /api/control-sessions/:id/counts.
type RecordCountRequest struct {
	ProductID     string          `json:"product_id" validate:"required"`
	StockFisico   decimal.Decimal `json:"stock_fisico"`
	Observaciones string          `json:"observaciones" validate:"max=500"`
}

// ControlSessionResponse salida de una sesión de control.
type ControlSessionResponse struct {
	ID                  string                   `json:"id"`
	BranchID            string                   `json:"branch_id"`
	State               string                   `json:"state"`
	Lines               []entity.ControlLineItem `json:"lines"`
	AjustesAplicados    bool                     `json:"ajustes_aplicados"`
	AdjustmentRequestID string                   `json:"adjustment_request_id,omitempty"`
	CreatedBy           string                   `json:"created_by"`
	FinalizedBy         string                   `json:"finalized_by,omitempty"`
	CreatedAt           time.Time                `json:"created_at"`
	UpdatedAt           time.Time                `json:"updated_at"`
	FinalizedAt         *time.Time               `json:"finalized_at,omitempty"`
}

// NewControlSessionResponse mapea la entidad a la salida HTTP.
func NewControlSessionResponse(s *entity.ControlSession) ControlSessionResponse {
	return ControlSessionResponse{
		ID:                  s.ID,
		BranchID:            s.BranchID,
		State:               string(s.State),
		Lines:               s.Lines,
		AjustesAplicados:    s.AjustesAplicados,
		AdjustmentRequestID: s.AdjustmentRequestID,
		CreatedBy:           s.CreatedBy,
		FinalizedBy:         s.FinalizedBy,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		FinalizedAt:         s.FinalizedAt,
	}
}
