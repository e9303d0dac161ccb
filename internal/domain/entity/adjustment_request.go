package entity

import (
	"strings"
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// AdjustmentState estado de una solicitud de ajuste.
type AdjustmentState string

const (
	AdjustmentPendiente  AdjustmentState = "pendiente_autorizacion"
	AdjustmentAutorizada AdjustmentState = "autorizada"
	AdjustmentRechazada  AdjustmentState = "rechazada"
)

var adjustmentTransitions = map[AdjustmentState][]AdjustmentState{
	AdjustmentPendiente: {AdjustmentAutorizada, AdjustmentRechazada},
}

// CanTransitionTo consulta la tabla de transiciones.
func (s AdjustmentState) CanTransitionTo(target AdjustmentState) bool {
	for _, t := range adjustmentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// AdjustmentLine corrección pendiente de aplicar.
type AdjustmentLine struct {
	ProductID string          `json:"product_id"`
	BranchID  string          `json:"branch_id"`
	Delta     decimal.Decimal `json:"delta"`
	Motivo    string          `json:"motivo"`
}

// AdjustmentRequest lote de correcciones que espera autorización de un usuario privilegiado.
type AdjustmentRequest struct {
	ID            string
	SessionID     string
	Lines         []AdjustmentLine
	State         AdjustmentState
	MotivoRechazo string
	RequestedBy   string
	ResolvedBy    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
}

// Authorize marca la solicitud como autorizada.
func (r *AdjustmentRequest) Authorize(userID string, now time.Time) error {
	if err := r.transition(AdjustmentAutorizada, now); err != nil {
		return err
	}
	r.ResolvedBy = userID
	return nil
}

// Reject marca la solicitud como rechazada; el motivo es obligatorio.
func (r *AdjustmentRequest) Reject(userID, motivo string, now time.Time) error {
	if strings.TrimSpace(motivo) == "" {
		return domain.Invalid("el motivo de rechazo es obligatorio")
	}
	if err := r.transition(AdjustmentRechazada, now); err != nil {
		return err
	}
	r.ResolvedBy = userID
	r.MotivoRechazo = motivo
	return nil
}

func (r *AdjustmentRequest) transition(target AdjustmentState, now time.Time) error {
	if !r.State.CanTransitionTo(target) {
		return &domain.TransitionError{Entity: "solicitud de ajuste", From: string(r.State), To: string(target)}
	}
	r.State = target
	r.UpdatedAt = now
	return nil
}
