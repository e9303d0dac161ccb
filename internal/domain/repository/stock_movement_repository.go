package repository

import (
	"context"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// StockMovementRepository puerto de persistencia para movimientos. Solo inserción y lectura:
// los movimientos no se actualizan ni se eliminan.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListBySource(ctx context.Context, sourceType entity.SourceType, sourceID string) ([]*entity.StockMovement, error)
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.StockMovement, error)
}
