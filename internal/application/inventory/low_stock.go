package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-engine/internal/application/dto"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// idealStockFactor stock ideal como múltiplo del mínimo.
var idealStockFactor = decimal.NewFromFloat(1.5)

// LowStockUseCase arma la lista de productos en o bajo su mínimo para una sucursal,
// con datos del catálogo y la cantidad sugerida de reposición.
type LowStockUseCase struct {
	stockRepo repository.StockRepository
	catalog   ports.ProductCatalog
}

// NewLowStockUseCase construye el caso de uso de stock bajo.
func NewLowStockUseCase(stockRepo repository.StockRepository, catalog ports.ProductCatalog) *LowStockUseCase {
	return &LowStockUseCase{stockRepo: stockRepo, catalog: catalog}
}

// GenerateLowStockList devuelve las entradas con cantidad <= mínimo ordenadas por mayor déficit.
func (uc *LowStockUseCase) GenerateLowStockList(ctx context.Context, branchID string) ([]dto.LowStockDTO, error) {
	entries, err := uc.stockRepo.ListLow(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("listar stock bajo: %w", err)
	}
	out := make([]dto.LowStockDTO, 0, len(entries))
	for _, e := range entries {
		item := dto.LowStockDTO{
			BranchID:        e.BranchID,
			ProductID:       e.ProductID,
			Quantity:        e.Quantity,
			MinimumQuantity: e.MinimumQuantity,
			IdealStock:      e.MinimumQuantity.Mul(idealStockFactor),
		}
		item.SuggestedOrderQty = decimal.Max(item.IdealStock.Sub(e.Quantity), decimal.Zero)
		// Sin producto en catálogo se reporta igual, sin nombre ni código.
		p, err := uc.catalog.GetProduct(ctx, e.ProductID)
		if err != nil {
			return nil, fmt.Errorf("catálogo de productos: %w", err)
		}
		if p != nil {
			item.ProductName = p.Name
			item.ProductCode = p.Code
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		defI := out[i].MinimumQuantity.Sub(out[i].Quantity)
		defJ := out[j].MinimumQuantity.Sub(out[j].Quantity)
		if !defI.Equal(defJ) {
			return defI.GreaterThan(defJ)
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}
