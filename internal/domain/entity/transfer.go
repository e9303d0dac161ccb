package entity

import (
	"strings"
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// TransferState estado de un traslado entre sucursales.
type TransferState string

const (
	TransferPendiente TransferState = "pendiente"
	TransferAprobada  TransferState = "aprobada"
	TransferRechazada TransferState = "rechazada"
)

var transferTransitions = map[TransferState][]TransferState{
	TransferPendiente: {TransferAprobada, TransferRechazada},
}

// CanTransitionTo consulta la tabla de transiciones.
func (s TransferState) CanTransitionTo(target TransferState) bool {
	for _, t := range transferTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransferLine producto y cantidad a trasladar.
type TransferLine struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Transfer traslado de stock de OriginBranchID a DestinationBranchID sujeto a aprobación.
type Transfer struct {
	ID                  string
	OriginBranchID      string
	DestinationBranchID string
	Lines               []TransferLine
	State               TransferState
	MotivoRechazo       string
	CreatedBy           string
	ResolvedBy          string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
}

// Approve marca el traslado como aprobado.
func (t *Transfer) Approve(userID string, now time.Time) error {
	if err := t.transition(TransferAprobada, now); err != nil {
		return err
	}
	t.ResolvedBy = userID
	return nil
}

// Reject marca el traslado como rechazado; el motivo es obligatorio.
func (t *Transfer) Reject(userID, motivo string, now time.Time) error {
	if strings.TrimSpace(motivo) == "" {
		return domain.Invalid("el motivo de rechazo es obligatorio")
	}
	if err := t.transition(TransferRechazada, now); err != nil {
		return err
	}
	t.ResolvedBy = userID
	t.MotivoRechazo = motivo
	return nil
}

func (t *Transfer) transition(target TransferState, now time.Time) error {
	if !t.State.CanTransitionTo(target) {
		return &domain.TransitionError{Entity: "traslado", From: string(t.State), To: string(target)}
	}
	t.State = target
	t.UpdatedAt = now
	return nil
}
