package entity

import (
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductionState estado de una orden de producción.
type ProductionState string

const (
	ProductionPendiente  ProductionState = "pendiente"
	ProductionEnProceso  ProductionState = "en_proceso"
	ProductionCompletada ProductionState = "completada"
	ProductionCancelada  ProductionState = "cancelada"
)

// productionTransitions tabla de transiciones permitidas; lo que no está aquí es inválido.
var productionTransitions = map[ProductionState][]ProductionState{
	ProductionPendiente: {ProductionEnProceso, ProductionCancelada},
	ProductionEnProceso: {ProductionCompletada, ProductionCancelada},
}

// CanTransitionTo consulta la tabla de transiciones.
func (s ProductionState) CanTransitionTo(target ProductionState) bool {
	for _, t := range productionTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reporta si el estado no admite más transiciones.
func (s ProductionState) IsTerminal() bool {
	return len(productionTransitions[s]) == 0
}

// ProductionCosts costos de la orden. Se calculan al completar.
type ProductionCosts struct {
	MateriasPrimas decimal.Decimal
	ManoObra       decimal.Decimal
	Adicional      decimal.Decimal
	Total          decimal.Decimal
	Unitario       decimal.Decimal
}

// ProductionOrder orden que consume insumos de una receta y produce el producto terminado en una sucursal.
type ProductionOrder struct {
	ID          string
	RecipeID    string
	BranchID    string
	Quantity    decimal.Decimal // cantidad a producir (rendimiento de la orden)
	State       ProductionState
	Costs       ProductionCosts
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	Version     int64
}

// TransitionTo aplica la transición si la tabla la permite.
func (o *ProductionOrder) TransitionTo(target ProductionState, now time.Time) error {
	if !o.State.CanTransitionTo(target) {
		return &domain.TransitionError{Entity: "orden de producción", From: string(o.State), To: string(target)}
	}
	o.State = target
	o.UpdatedAt = now
	if target == ProductionCompletada {
		o.CompletedAt = &now
	}
	return nil
}
