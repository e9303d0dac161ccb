package dto

import (
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// TransferLineRequest línea de un traslado.
type TransferLineRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	OriginBranchID      string                `json:"origin_branch_id" validate:"required"`
	DestinationBranchID string                `json:"destination_branch_id" validate:"required,nefield=OriginBranchID"`
	Lines               []TransferLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// RejectRequest body para rechazar un traslado o una solicitud de ajuste.
type RejectRequest struct {
	Motivo string `json:"motivo" validate:"required,notblank,max=500"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID                  string                `json:"id"`
	OriginBranchID      string                `json:"origin_branch_id"`
	DestinationBranchID string                `json:"destination_branch_id"`
	Lines               []entity.TransferLine `json:"lines"`
	State               string                `json:"state"`
	MotivoRechazo       string                `json:"motivo_rechazo,omitempty"`
	CreatedBy           string                `json:"created_by"`
	ResolvedBy          string                `json:"resolved_by,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// CreateTransferResponse traslado creado junto con la verificación informativa en origen.
type CreateTransferResponse struct {
	Transfer     TransferResponse         `json:"transfer"`
	Availability []inventory.Availability `json:"availability"`
	Sufficient   bool                     `json:"sufficient"`
}

// NewTransferResponse mapea la entidad a la salida HTTP.
func NewTransferResponse(t *entity.Transfer) TransferResponse {
	return TransferResponse{
		ID:                  t.ID,
		OriginBranchID:      t.OriginBranchID,
		DestinationBranchID: t.DestinationBranchID,
		Lines:               t.Lines,
		State:               string(t.State),
		MotivoRechazo:       t.MotivoRechazo,
		CreatedBy:           t.CreatedBy,
		ResolvedBy:          t.ResolvedBy,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

// NewTransferListResponse mapea una lista de traslados.
func NewTransferListResponse(list []*entity.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(list))
	for _, t := range list {
		out = append(out, NewTransferResponse(t))
	}
	return out
}
