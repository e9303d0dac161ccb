package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

var _ ports.BranchDirectory = (*BranchRepo)(nil)

// BranchRepo directorio de sucursales sobre PostgreSQL.
type BranchRepo struct {
	q Querier
}

// NewBranchRepository construye el adaptador de sucursales.
func NewBranchRepository(q Querier) *BranchRepo {
	return &BranchRepo{q: q}
}

// GetBranch obtiene una sucursal por ID; (nil, nil) si no existe.
func (r *BranchRepo) GetBranch(ctx context.Context, id string) (*entity.Branch, error) {
	var b entity.Branch
	err := r.q.QueryRow(ctx, `SELECT id, name FROM branches WHERE id = $1`, id).Scan(&b.ID, &b.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return &b, nil
}

// Upsert crea o renombra una sucursal.
func (r *BranchRepo) Upsert(ctx context.Context, b entity.Branch) error {
	query := `INSERT INTO branches (id, name) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	if _, err := r.q.Exec(ctx, query, b.ID, b.Name); err != nil {
		return fmt.Errorf("upsert branch: %w", err)
	}
	return nil
}
