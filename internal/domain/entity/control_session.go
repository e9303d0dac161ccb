package entity

import (
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// ControlState estado de una sesión de control de inventario.
type ControlState string

const (
	ControlEnProceso  ControlState = "en_proceso"
	ControlFinalizado ControlState = "finalizado"
)

var controlTransitions = map[ControlState][]ControlState{
	ControlEnProceso: {ControlFinalizado},
}

// CanTransitionTo consulta la tabla de transiciones.
func (s ControlState) CanTransitionTo(target ControlState) bool {
	for _, t := range controlTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ControlLineItem línea de conteo físico. StockSistema es la foto tomada al abrir la sesión.
type ControlLineItem struct {
	ProductID     string          `json:"product_id"`
	StockSistema  decimal.Decimal `json:"stock_sistema"`
	StockFisico   decimal.Decimal `json:"stock_fisico"`
	Diferencia    decimal.Decimal `json:"diferencia"`
	Observaciones string          `json:"observaciones"`
	Contado       bool            `json:"contado"`
}

// HasDifference reporta si la línea fue contada y difiere del sistema.
func (l ControlLineItem) HasDifference() bool {
	return l.Contado && !l.Diferencia.IsZero()
}

// ControlSession conteo físico de una sucursal.
type ControlSession struct {
	ID                  string
	BranchID            string
	State               ControlState
	Lines               []ControlLineItem
	AjustesAplicados    bool
	AdjustmentRequestID string
	CreatedBy           string
	FinalizedBy         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	FinalizedAt         *time.Time
	Version             int64
}

// RecordCount registra (o corrige) el conteo de un producto y recalcula la diferencia.
func (s *ControlSession) RecordCount(productID string, stockFisico decimal.Decimal, observaciones string, now time.Time) error {
	if s.State != ControlEnProceso {
		return &domain.TransitionError{Entity: "sesión de control", From: string(s.State), To: "conteo"}
	}
	if stockFisico.IsNegative() {
		return domain.Invalid("stock_fisico no puede ser negativo")
	}
	for i := range s.Lines {
		if s.Lines[i].ProductID != productID {
			continue
		}
		s.Lines[i].StockFisico = stockFisico
		s.Lines[i].Diferencia = stockFisico.Sub(s.Lines[i].StockSistema)
		s.Lines[i].Observaciones = observaciones
		s.Lines[i].Contado = true
		s.UpdatedAt = now
		return nil
	}
	return domain.ErrNotFound
}

// Differences devuelve las líneas contadas con diferencia distinta de cero.
func (s *ControlSession) Differences() []ControlLineItem {
	var out []ControlLineItem
	for _, l := range s.Lines {
		if l.HasDifference() {
			out = append(out, l)
		}
	}
	return out
}

// Finalize cierra la sesión. Solo puede hacerse una vez.
func (s *ControlSession) Finalize(userID string, now time.Time) error {
	if !s.State.CanTransitionTo(ControlFinalizado) {
		return &domain.TransitionError{Entity: "sesión de control", From: string(s.State), To: string(ControlFinalizado)}
	}
	s.State = ControlFinalizado
	s.FinalizedBy = userID
	s.FinalizedAt = &now
	s.UpdatedAt = now
	return nil
}
