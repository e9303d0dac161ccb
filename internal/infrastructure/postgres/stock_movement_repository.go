package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo movimientos de stock sobre PostgreSQL. Solo INSERT y SELECT.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, branch_id, product_id, quantity_delta, quantity_before, quantity_after,
	reason, source_type, source_id, user_id, created_at`

// Create persiste un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.BranchID, m.ProductID, m.QuantityDelta, m.QuantityBefore, m.QuantityAfter,
		m.Reason, string(m.SourceType), m.SourceID, m.UserID, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListBySource lista en orden de inserción los movimientos de una misma operación.
func (r *StockMovementRepo) ListBySource(ctx context.Context, sourceType entity.SourceType, sourceID string) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE source_type = $1 AND source_id = $2 ORDER BY seq`
	return r.list(ctx, query, string(sourceType), sourceID)
}

// ListByBranch lista los movimientos de una sucursal, más recientes primero.
func (r *StockMovementRepo) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE branch_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, branchID, limit, offset)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := []*entity.StockMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var sourceType string
	var userID *string
	if err := row.Scan(&m.ID, &m.BranchID, &m.ProductID, &m.QuantityDelta, &m.QuantityBefore, &m.QuantityAfter,
		&m.Reason, &sourceType, &m.SourceID, &userID, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.SourceType = entity.SourceType(sourceType)
	if userID != nil {
		m.UserID = *userID
	}
	return &m, nil
}
