package inventory

import "github.com/shopspring/decimal"

// ProductionCost calcula los costos de una orden (servicio de dominio).
// Total = MateriasPrimas + ManoObra + Adicional; Unitario = Total / Rendimiento.
// Con rendimiento cero o negativo el costo unitario es cero.
func ProductionCost(materiasPrimas, manoObra, adicional, rendimiento decimal.Decimal) (total, unitario decimal.Decimal) {
	total = materiasPrimas.Add(manoObra).Add(adicional)
	if rendimiento.LessThanOrEqual(decimal.Zero) {
		return total, decimal.Zero
	}
	return total, total.Div(rendimiento)
}

// MaterialsCost suma cantidad requerida por costo unitario de cada insumo.
func MaterialsCost(requirements []Requirement, unitCost map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range requirements {
		sum = sum.Add(r.Required.Mul(unitCost[r.IngredientID]))
	}
	return sum
}
