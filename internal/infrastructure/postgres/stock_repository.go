package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `branch_id, product_id, quantity, minimum_quantity, version, updated_at`

// Get obtiene el stock de un producto en una sucursal; sin fila devuelve cero con Version 0.
func (r *StockRepo) Get(ctx context.Context, branchID, productID string) (*entity.StockEntry, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE branch_id = $1 AND product_id = $2`
	s, err := scanStock(r.q.QueryRow(ctx, query, branchID, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockEntry{
				BranchID:        branchID,
				ProductID:       productID,
				Quantity:        decimal.Zero,
				MinimumQuantity: decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// ListByBranch lista las entradas de una sucursal ordenadas por producto.
func (r *StockRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.StockEntry, error) {
	query := `SELECT ` + stockColumns + ` FROM stock WHERE branch_id = $1 ORDER BY product_id`
	return r.list(ctx, query, branchID)
}

// ListLow lista las entradas con cantidad menor o igual al mínimo.
func (r *StockRepo) ListLow(ctx context.Context, branchID string) ([]*entity.StockEntry, error) {
	query := `SELECT ` + stockColumns + ` FROM stock
		WHERE branch_id = $1 AND quantity <= minimum_quantity ORDER BY product_id`
	return r.list(ctx, query, branchID)
}

func (r *StockRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	list := []*entity.StockEntry{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Save inserta (Version 0) o actualiza condicionado a la versión leída. 0 filas afectadas
// significa que otra transacción escribió antes: domain.ErrStaleWrite.
func (r *StockRepo) Save(ctx context.Context, stock *entity.StockEntry) error {
	var query string
	args := []any{stock.BranchID, stock.ProductID, stock.Quantity, stock.MinimumQuantity, stock.UpdatedAt}
	if stock.Version == 0 {
		query = `
			INSERT INTO stock (branch_id, product_id, quantity, minimum_quantity, updated_at, version)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (branch_id, product_id) DO NOTHING`
	} else {
		query = `
			UPDATE stock SET quantity = $3, minimum_quantity = $4, updated_at = $5, version = version + 1
			WHERE branch_id = $1 AND product_id = $2 AND version = $6`
		args = append(args, stock.Version)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStaleWrite
	}
	stock.Version++
	return nil
}

func scanStock(row pgx.Row) (*entity.StockEntry, error) {
	var s entity.StockEntry
	if err := row.Scan(&s.BranchID, &s.ProductID, &s.Quantity, &s.MinimumQuantity, &s.Version, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
