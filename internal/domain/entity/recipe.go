package entity

import "github.com/shopspring/decimal"

// RecipeLine cantidad de un insumo requerida por cada rendimiento de la receta.
type RecipeLine struct {
	IngredientID     string
	QuantityPerYield decimal.Decimal
}

// Recipe lista de materiales: ProductID es el producto terminado, YieldQuantity lo que rinde una tanda.
type Recipe struct {
	ID            string
	ProductID     string
	Name          string
	YieldQuantity decimal.Decimal
	Lines         []RecipeLine
}
