package production

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	invdomain "github.com/jhoicas/inventario-engine/internal/domain/inventory"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// RecipeEngine resuelve la lista de materiales de una receta en requerimientos escalados
// y los contrasta con el stock de una sucursal.
type RecipeEngine struct {
	recipes repository.RecipeRepository
	catalog ports.ProductCatalog
	ledger  *inventory.StockLedger
}

// NewRecipeEngine construye el motor de recetas.
func NewRecipeEngine(recipes repository.RecipeRepository, catalog ports.ProductCatalog, ledger *inventory.StockLedger) *RecipeEngine {
	return &RecipeEngine{recipes: recipes, catalog: catalog, ledger: ledger}
}

// RegisterRecipe valida y persiste una receta. Producto terminado e insumos deben existir en el catálogo.
func (e *RecipeEngine) RegisterRecipe(ctx context.Context, recipe *entity.Recipe) error {
	if recipe == nil || recipe.ProductID == "" || len(recipe.Lines) == 0 {
		return domain.Invalid("la receta requiere producto terminado y al menos un insumo")
	}
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	// Escalar a su propio rendimiento valida rendimiento y cantidades.
	if _, err := invdomain.ScaleRecipe(recipe, recipe.YieldQuantity); err != nil {
		return err
	}
	ids := []string{recipe.ProductID}
	for _, line := range recipe.Lines {
		ids = append(ids, line.IngredientID)
	}
	for _, id := range ids {
		p, err := e.catalog.GetProduct(ctx, id)
		if err != nil {
			return fmt.Errorf("consultar producto: %w", err)
		}
		if p == nil {
			return domain.Invalid("producto %s desconocido", id)
		}
	}
	return e.recipes.Create(ctx, recipe)
}

// GetRecipe devuelve la receta o domain.ErrNotFound.
func (e *RecipeEngine) GetRecipe(ctx context.Context, id string) (*entity.Recipe, error) {
	recipe, err := e.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar receta: %w", err)
	}
	if recipe == nil {
		return nil, domain.ErrNotFound
	}
	return recipe, nil
}

// ComputeRequirements escala cada línea de la receta por producido / rendimiento.
func (e *RecipeEngine) ComputeRequirements(recipe *entity.Recipe, produced decimal.Decimal) ([]invdomain.Requirement, error) {
	return invdomain.ScaleRecipe(recipe, produced)
}

// VerifyAvailability contrasta los requerimientos con el stock actual de la sucursal.
// Un insumo sin entrada de stock cuenta como cero disponible.
func (e *RecipeEngine) VerifyAvailability(ctx context.Context, branchID string, requirements []invdomain.Requirement) ([]invdomain.Availability, error) {
	ids := make([]string, 0, len(requirements))
	for _, r := range requirements {
		ids = append(ids, r.IngredientID)
	}
	available, err := e.ledger.GetQuantities(ctx, branchID, ids)
	if err != nil {
		return nil, err
	}
	return invdomain.CheckAvailability(requirements, available), nil
}

// Check calcula requerimientos y disponibilidad de una receta en una sucursal.
func (e *RecipeEngine) Check(ctx context.Context, recipeID, branchID string, produced decimal.Decimal) ([]invdomain.Availability, error) {
	recipe, err := e.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	reqs, err := e.ComputeRequirements(recipe, produced)
	if err != nil {
		return nil, err
	}
	return e.VerifyAvailability(ctx, branchID, reqs)
}

// MaterialsCost suma requerido × costo unitario del catálogo.
func (e *RecipeEngine) MaterialsCost(ctx context.Context, requirements []invdomain.Requirement) (decimal.Decimal, error) {
	costs := make(map[string]decimal.Decimal, len(requirements))
	for _, r := range requirements {
		p, err := e.catalog.GetProduct(ctx, r.IngredientID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("consultar producto: %w", err)
		}
		if p == nil {
			return decimal.Zero, domain.Invalid("producto %s desconocido", r.IngredientID)
		}
		costs[r.IngredientID] = p.UnitCost
	}
	return invdomain.MaterialsCost(requirements, costs), nil
}
