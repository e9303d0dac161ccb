package inventory

import (
	"context"

	"github.com/jhoicas/inventario-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error la transacción se descarta completa; si no, se confirma de forma atómica.
// Un conflicto de versiones detectado al escribir o al confirmar se reporta como domain.ErrStaleWrite.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}
