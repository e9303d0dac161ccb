package repository

import (
	"context"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por sucursal+producto.
// Save es una escritura condicional: usa stock.Version como versión esperada y devuelve
// domain.ErrStaleWrite si otra transacción escribió la fila entre la lectura y la escritura.
type StockRepository interface {
	// Get devuelve la entrada; si no existe devuelve una entrada en cero con Version 0.
	Get(ctx context.Context, branchID, productID string) (*entity.StockEntry, error)
	ListByBranch(ctx context.Context, branchID string) ([]*entity.StockEntry, error)
	ListLow(ctx context.Context, branchID string) ([]*entity.StockEntry, error)
	Save(ctx context.Context, stock *entity.StockEntry) error
}
