package ports

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// ProductCatalog catálogo externo de productos (solo lectura).
// GetProduct devuelve (nil, nil) si el producto no existe.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
}

// BranchDirectory directorio externo de sucursales (solo lectura).
// GetBranch devuelve (nil, nil) si la sucursal no existe.
type BranchDirectory interface {
	GetBranch(ctx context.Context, id string) (*entity.Branch, error)
}

// RoleService consulta única de capacidad: decide entre ajuste directo y flujo con autorización,
// y protege la aprobación/rechazo de traslados y ajustes.
type RoleService interface {
	IsPrivileged(ctx context.Context, userID string) (bool, error)
}

// RequirePrivileged devuelve domain.ErrUnauthorized si el usuario no es privilegiado.
func RequirePrivileged(ctx context.Context, roles RoleService, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	ok, err := roles.IsPrivileged(ctx, userID)
	if err != nil {
		return fmt.Errorf("consultar rol: %w", err)
	}
	if !ok {
		return domain.ErrUnauthorized
	}
	return nil
}
