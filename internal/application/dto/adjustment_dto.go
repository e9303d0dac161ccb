package dto

import (
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// AdjustmentResponse salida de una solicitud de ajuste.
type AdjustmentResponse struct {
	ID            string                  `json:"id"`
	SessionID     string                  `json:"session_id"`
	Lines         []entity.AdjustmentLine `json:"lines"`
	State         string                  `json:"state"`
	MotivoRechazo string                  `json:"motivo_rechazo,omitempty"`
	RequestedBy   string                  `json:"requested_by"`
	ResolvedBy    string                  `json:"resolved_by,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// NewAdjustmentResponse mapea la entidad a la salida HTTP.
func NewAdjustmentResponse(r *entity.AdjustmentRequest) AdjustmentResponse {
	return AdjustmentResponse{
		ID:            r.ID,
		SessionID:     r.SessionID,
		Lines:         r.Lines,
		State:         string(r.State),
		MotivoRechazo: r.MotivoRechazo,
		RequestedBy:   r.RequestedBy,
		ResolvedBy:    r.ResolvedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// NewAdjustmentListResponse mapea una lista de solicitudes.
func NewAdjustmentListResponse(list []*entity.AdjustmentRequest) []AdjustmentResponse {
	out := make([]AdjustmentResponse, 0, len(list))
	for _, r := range list {
		out = append(out, NewAdjustmentResponse(r))
	}
	return out
}
