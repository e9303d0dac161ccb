package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo recetas sobre PostgreSQL; las líneas se guardan en JSONB.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

type recipeLineRow struct {
	IngredientID     string          `json:"ingredient_id"`
	QuantityPerYield decimal.Decimal `json:"quantity_per_yield"`
}

// Create persiste la receta.
func (r *RecipeRepo) Create(ctx context.Context, recipe *entity.Recipe) error {
	rows := make([]recipeLineRow, 0, len(recipe.Lines))
	for _, l := range recipe.Lines {
		rows = append(rows, recipeLineRow{IngredientID: l.IngredientID, QuantityPerYield: l.QuantityPerYield})
	}
	lines, err := marshalLines(rows)
	if err != nil {
		return err
	}
	query := `INSERT INTO recipes (id, product_id, name, yield_quantity, lines) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, recipe.ID, recipe.ProductID, recipe.Name, recipe.YieldQuantity, lines); err != nil {
		if isUniqueViolation(err) {
			return domain.Invalid("la receta %s ya existe", recipe.ID)
		}
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

// GetByID obtiene una receta; (nil, nil) si no existe.
func (r *RecipeRepo) GetByID(ctx context.Context, id string) (*entity.Recipe, error) {
	query := `SELECT id, product_id, name, yield_quantity, lines FROM recipes WHERE id = $1`
	var recipe entity.Recipe
	var raw []byte
	err := r.q.QueryRow(ctx, query, id).Scan(&recipe.ID, &recipe.ProductID, &recipe.Name, &recipe.YieldQuantity, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	var rows []recipeLineRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode recipe lines: %w", err)
	}
	for _, l := range rows {
		recipe.Lines = append(recipe.Lines, entity.RecipeLine{IngredientID: l.IngredientID, QuantityPerYield: l.QuantityPerYield})
	}
	return &recipe, nil
}

// marshalLines serializa líneas a JSON para columnas JSONB; nil se guarda como arreglo vacío.
func marshalLines[T any](lines []T) ([]byte, error) {
	if lines == nil {
		lines = []T{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	return b, nil
}

func unmarshalLines[T any](raw []byte) ([]T, error) {
	var lines []T
	if len(raw) == 0 {
		return lines, nil
	}
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode lines: %w", err)
	}
	return lines, nil
}

// updated traduce 0 filas afectadas en un UPDATE condicional a domain.ErrStaleWrite.
func updated(rowsAffected int64, version *int64) error {
	if rowsAffected == 0 {
		return domain.ErrStaleWrite
	}
	*version++
	return nil
}
