package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

var _ ports.ProductCatalog = (*ProductRepo)(nil)

// ProductRepo catálogo de productos sobre PostgreSQL. El motor solo lee; Upsert sirve para cargas iniciales.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// GetProduct obtiene un producto por ID; (nil, nil) si no existe.
func (r *ProductRepo) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT id, name, sku, cost FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Code, &p.UnitCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Upsert crea o reemplaza un producto.
func (r *ProductRepo) Upsert(ctx context.Context, p entity.Product) error {
	query := `
		INSERT INTO products (id, name, sku, cost) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, sku = EXCLUDED.sku, cost = EXCLUDED.cost`
	if _, err := r.q.Exec(ctx, query, p.ID, p.Name, p.Code, p.UnitCost); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}
