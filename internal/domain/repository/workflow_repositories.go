package repository

import (
	"context"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// Los repositorios de flujos siguen el mismo contrato:
//   - GetByID devuelve (nil, nil) si el registro no existe.
//   - Update es condicional a la Version del agregado y la incrementa; devuelve
//     domain.ErrStaleWrite si la versión almacenada cambió.

// ProductionOrderRepository puerto de persistencia para órdenes de producción.
type ProductionOrderRepository interface {
	Create(ctx context.Context, order *entity.ProductionOrder) error
	GetByID(ctx context.Context, id string) (*entity.ProductionOrder, error)
	Update(ctx context.Context, order *entity.ProductionOrder) error
	ListByState(ctx context.Context, state entity.ProductionState) ([]*entity.ProductionOrder, error)
}

// TransferRepository puerto de persistencia para traslados.
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	Update(ctx context.Context, transfer *entity.Transfer) error
	ListByState(ctx context.Context, state entity.TransferState) ([]*entity.Transfer, error)
}

// ControlSessionRepository puerto de persistencia para sesiones de control.
// Create devuelve domain.ErrInvalidStateTransition si la sucursal ya tiene una sesión en proceso.
type ControlSessionRepository interface {
	Create(ctx context.Context, session *entity.ControlSession) error
	GetByID(ctx context.Context, id string) (*entity.ControlSession, error)
	Update(ctx context.Context, session *entity.ControlSession) error
	FindOpenByBranch(ctx context.Context, branchID string) (*entity.ControlSession, error)
}

// AdjustmentRequestRepository puerto de persistencia para solicitudes de ajuste.
type AdjustmentRequestRepository interface {
	Create(ctx context.Context, request *entity.AdjustmentRequest) error
	GetByID(ctx context.Context, id string) (*entity.AdjustmentRequest, error)
	Update(ctx context.Context, request *entity.AdjustmentRequest) error
	ListByState(ctx context.Context, state entity.AdjustmentState) ([]*entity.AdjustmentRequest, error)
}
