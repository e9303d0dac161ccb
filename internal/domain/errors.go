package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrUnauthorized           = errors.New("acción reservada a usuarios privilegiados")
	ErrConflict               = errors.New("conflicto de concurrencia: reintentos agotados")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInvalidStateTransition = errors.New("transición de estado inválida")

	// ErrStaleWrite lo devuelven los repositorios cuando la versión leída ya no es la vigente.
	// El ledger lo convierte en reintento y, agotado el presupuesto, en ErrConflict.
	ErrStaleWrite = errors.New("escritura concurrente detectada")
)

// Invalid construye un error de validación con detalle; errors.Is(err, ErrInvalidInput) es true.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Shortage describe una línea que no puede aplicarse sin dejar stock negativo.
type Shortage struct {
	BranchID  string          `json:"branch_id"`
	ProductID string          `json:"product_id"`
	Available decimal.Decimal `json:"available"`
	Required  decimal.Decimal `json:"required"`
}

// Missing devuelve cuánto falta para cubrir lo requerido.
func (s Shortage) Missing() decimal.Decimal {
	return s.Required.Sub(s.Available)
}

// InsufficientStockError indica exactamente qué líneas bloquearon la operación.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s@%s disponible=%s requerido=%s",
			s.ProductID, s.BranchID, s.Available.String(), s.Required.String()))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransitionError se devuelve cuando una transición no está en la tabla del agregado.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s no puede pasar de %q a %q", ErrInvalidStateTransition.Error(), e.Entity, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}
