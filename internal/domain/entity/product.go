package entity

import "github.com/shopspring/decimal"

// Product referencia de solo lectura al catálogo externo.
// UnitCost se usa únicamente para costear órdenes de producción.
type Product struct {
	ID       string
	Name     string
	Code     string
	UnitCost decimal.Decimal
}
