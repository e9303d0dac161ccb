package repository

import (
	"context"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// RecipeRepository puerto de lectura de recetas. GetByID devuelve (nil, nil) si no existe.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *entity.Recipe) error
	GetByID(ctx context.Context, id string) (*entity.Recipe, error)
}
