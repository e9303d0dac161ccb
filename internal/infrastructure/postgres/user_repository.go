package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
)

// RoleAdmin rol con capacidad de ajustar stock y aprobar traslados.
const RoleAdmin = "admin"

var _ ports.RoleService = (*UserRepo)(nil)

// UserRepo resuelve roles de usuario sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// IsPrivileged true si el usuario existe y su rol es admin. Usuario desconocido no es privilegiado.
func (r *UserRepo) IsPrivileged(ctx context.Context, userID string) (bool, error) {
	var role string
	err := r.q.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get user role: %w", err)
	}
	return role == RoleAdmin, nil
}

// Upsert crea o actualiza un usuario con su rol.
func (r *UserRepo) Upsert(ctx context.Context, id, name, role string) error {
	query := `INSERT INTO users (id, name, role) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role`
	if _, err := r.q.Exec(ctx, query, id, name, role); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
