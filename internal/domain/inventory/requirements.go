package inventory

import (
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Requirement cantidad de un insumo necesaria para una producción concreta.
type Requirement struct {
	IngredientID string          `json:"ingredient_id"`
	Required     decimal.Decimal `json:"required"`
}

// Availability resultado de contrastar un requerimiento con el stock de la sucursal.
type Availability struct {
	IngredientID string          `json:"ingredient_id"`
	Available    decimal.Decimal `json:"available"`
	Required     decimal.Decimal `json:"required"`
	Sufficient   bool            `json:"sufficient"`
	Shortage     decimal.Decimal `json:"shortage"`
}

// ScaleRecipe escala cada línea de la receta por producido / rendimiento.
// Insumos repetidos en la receta se acumulan en una sola línea, respetando el orden de aparición.
func ScaleRecipe(recipe *entity.Recipe, produced decimal.Decimal) ([]Requirement, error) {
	if recipe == nil {
		return nil, domain.ErrNotFound
	}
	if !recipe.YieldQuantity.IsPositive() {
		return nil, domain.Invalid("la receta %s tiene rendimiento no positivo", recipe.ID)
	}
	if !produced.IsPositive() {
		return nil, domain.Invalid("la cantidad a producir debe ser positiva")
	}
	factor := produced.Div(recipe.YieldQuantity)
	index := make(map[string]int, len(recipe.Lines))
	out := make([]Requirement, 0, len(recipe.Lines))
	for _, line := range recipe.Lines {
		if !line.QuantityPerYield.IsPositive() {
			return nil, domain.Invalid("la receta %s tiene una cantidad no positiva para %s", recipe.ID, line.IngredientID)
		}
		qty := line.QuantityPerYield.Mul(factor)
		if i, ok := index[line.IngredientID]; ok {
			out[i].Required = out[i].Required.Add(qty)
			continue
		}
		index[line.IngredientID] = len(out)
		out = append(out, Requirement{IngredientID: line.IngredientID, Required: qty})
	}
	return out, nil
}

// CheckAvailability contrasta requerimientos contra cantidades disponibles.
// Un insumo ausente del mapa cuenta como cero disponible.
func CheckAvailability(requirements []Requirement, available map[string]decimal.Decimal) []Availability {
	out := make([]Availability, 0, len(requirements))
	for _, r := range requirements {
		have := available[r.IngredientID]
		a := Availability{
			IngredientID: r.IngredientID,
			Available:    have,
			Required:     r.Required,
			Sufficient:   have.GreaterThanOrEqual(r.Required),
			Shortage:     decimal.Zero,
		}
		if !a.Sufficient {
			a.Shortage = r.Required.Sub(have)
		}
		out = append(out, a)
	}
	return out
}

// Shortages convierte las líneas insuficientes en faltantes de dominio para la sucursal dada.
func Shortages(branchID string, availability []Availability) []domain.Shortage {
	var out []domain.Shortage
	for _, a := range availability {
		if a.Sufficient {
			continue
		}
		out = append(out, domain.Shortage{
			BranchID:  branchID,
			ProductID: a.IngredientID,
			Available: a.Available,
			Required:  a.Required,
		})
	}
	return out
}
