package repository

// Repositories agrupa los repositorios que participan en una misma transacción.
// Un TxRunner entrega una instancia atada a la transacción; fuera de ella se usa una atada al pool.
type Repositories struct {
	Stock       StockRepository
	Movements   StockMovementRepository
	Recipes     RecipeRepository
	Orders      ProductionOrderRepository
	Transfers   TransferRepository
	Sessions    ControlSessionRepository
	Adjustments AdjustmentRequestRepository
}
