package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Fallos de serialización o deadlock se devuelven como domain.ErrStaleWrite para que el ledger reintente.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		if isConcurrencyFailure(err) {
			return domain.ErrStaleWrite
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if isConcurrencyFailure(err) {
			return domain.ErrStaleWrite
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepositories arma el juego de repositorios sobre un pool o una tx.
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Stock:       NewStockRepository(q),
		Movements:   NewStockMovementRepository(q),
		Recipes:     NewRecipeRepository(q),
		Orders:      NewProductionOrderRepository(q),
		Transfers:   NewTransferRepository(q),
		Sessions:    NewControlSessionRepository(q),
		Adjustments: NewAdjustmentRequestRepository(q),
	}
}
