package dto

import (
	"time"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// RequirementsRequest body para POST /api/recipes/:id/requirements.
type RequirementsRequest struct {
	BranchID string          `json:"branch_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// CreateProductionOrderRequest body para POST /api/production-orders.
type CreateProductionOrderRequest struct {
	RecipeID       string          `json:"recipe_id" validate:"required"`
	BranchID       string          `json:"branch_id" validate:"required"`
	Quantity       decimal.Decimal `json:"quantity"`
	CostoManoObra  decimal.Decimal `json:"costo_mano_obra"`
	CostoAdicional decimal.Decimal `json:"costo_adicional"`
}

// ProductionOrderResponse salida de una orden de producción.
type ProductionOrderResponse struct {
	ID                  string          `json:"id"`
	RecipeID            string          `json:"recipe_id"`
	BranchID            string          `json:"branch_id"`
	Quantity            decimal.Decimal `json:"quantity"`
	State               string          `json:"state"`
	CostoMateriasPrimas decimal.Decimal `json:"costo_materias_primas"`
	CostoManoObra       decimal.Decimal `json:"costo_mano_obra"`
	CostoAdicional      decimal.Decimal `json:"costo_adicional"`
	CostoTotal          decimal.Decimal `json:"costo_total"`
	CostoUnitario       decimal.Decimal `json:"costo_unitario"`
	CreatedBy           string          `json:"created_by"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	CompletedAt         *time.Time      `json:"completed_at,omitempty"`
}

// NewProductionOrderResponse mapea la entidad a la salida HTTP.
func NewProductionOrderResponse(o *entity.ProductionOrder) ProductionOrderResponse {
	return ProductionOrderResponse{
		ID:                  o.ID,
		RecipeID:            o.RecipeID,
		BranchID:            o.BranchID,
		Quantity:            o.Quantity,
		State:               string(o.State),
		CostoMateriasPrimas: o.Costs.MateriasPrimas,
		CostoManoObra:       o.Costs.ManoObra,
		CostoAdicional:      o.Costs.Adicional,
		CostoTotal:          o.Costs.Total,
		CostoUnitario:       o.Costs.Unitario,
		CreatedBy:           o.CreatedBy,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		CompletedAt:         o.CompletedAt,
	}
}

// RecipeLineRequest insumo de una receta.
type RecipeLineRequest struct {
	IngredientID     string          `json:"ingredient_id" validate:"required"`
	QuantityPerYield decimal.Decimal `json:"quantity_per_yield"`
}

// CreateRecipeRequest body para POST /api/recipes.
type CreateRecipeRequest struct {
	ProductID     string              `json:"product_id" validate:"required"`
	Name          string              `json:"name" validate:"max=200"`
	YieldQuantity decimal.Decimal     `json:"yield_quantity"`
	Lines         []RecipeLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToEntity arma la receta a registrar.
func (r CreateRecipeRequest) ToEntity() *entity.Recipe {
	recipe := &entity.Recipe{ProductID: r.ProductID, Name: r.Name, YieldQuantity: r.YieldQuantity}
	for _, l := range r.Lines {
		recipe.Lines = append(recipe.Lines, entity.RecipeLine{IngredientID: l.IngredientID, QuantityPerYield: l.QuantityPerYield})
	}
	return recipe
}

// RecipeResponse salida de una receta.
type RecipeResponse struct {
	ID            string              `json:"id"`
	ProductID     string              `json:"product_id"`
	Name          string              `json:"name"`
	YieldQuantity decimal.Decimal     `json:"yield_quantity"`
	Lines         []RecipeLineRequest `json:"lines"`
}

// NewRecipeResponse mapea la entidad a la salida HTTP.
func NewRecipeResponse(r *entity.Recipe) RecipeResponse {
	out := RecipeResponse{ID: r.ID, ProductID: r.ProductID, Name: r.Name, YieldQuantity: r.YieldQuantity}
	out.Lines = make([]RecipeLineRequest, 0, len(r.Lines))
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, RecipeLineRequest{IngredientID: l.IngredientID, QuantityPerYield: l.QuantityPerYield})
	}
	return out
}

// RequirementsResponse requerimientos escalados y su disponibilidad en la sucursal.
type RequirementsResponse struct {
	RecipeID     string                   `json:"recipe_id"`
	BranchID     string                   `json:"branch_id"`
	Quantity     decimal.Decimal          `json:"quantity"`
	Availability []inventory.Availability `json:"availability"`
	Sufficient   bool                     `json:"sufficient"`
}
