package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-engine/internal/application/dto"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// InventoryHandler consultas de stock, apertura, recepciones y movimientos (protegido).
type InventoryHandler struct {
	ledger   *inventory.StockLedger
	receipts *inventory.ReceiptUseCase
	lowStock *inventory.LowStockUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.StockLedger, receipts *inventory.ReceiptUseCase, lowStock *inventory.LowStockUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, receipts: receipts, lowStock: lowStock}
}

// GetQuantity GET /api/stock/:branch/:product. Sin entrada devuelve cantidad cero.
func (h *InventoryHandler) GetQuantity(c *fiber.Ctx) error {
	branchID, productID := c.Params("branch"), c.Params("product")
	q, err := h.ledger.GetQuantity(c.Context(), branchID, productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"branch_id": branchID, "product_id": productID, "quantity": q})
}

// ListByBranch GET /api/branches/:id/stock.
func (h *InventoryHandler) ListByBranch(c *fiber.Ctx) error {
	list, err := h.ledger.GetStockByBranch(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewStockListResponse(list))
}

// GetLowStock GET /api/branches/:id/low-stock: productos en o bajo su mínimo con la reposición sugerida.
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	list, err := h.lowStock.GenerateLowStockList(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "items": list})
}

// Initialize POST /api/stock/initialize.
func (h *InventoryHandler) Initialize(c *fiber.Ctx) error {
	var in dto.InitializeStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	stock, err := h.ledger.InitializeStock(c.Context(), in.BranchID, in.ProductID, in.MinimumQuantity, in.OpeningQuantity, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStockResponse(stock))
}

// Receive POST /api/receipts: acredita una compra en un único lote.
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiptRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	movements, err := h.receipts.ReceiveFromRequest(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewMovementListResponse(movements))
}

// ListMovements GET /api/movements?source_type=&source_id= o ?branch_id=&limit=&offset=.
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	if sourceType := c.Query("source_type"); sourceType != "" {
		st := entity.SourceType(sourceType)
		if !st.IsValid() || c.Query("source_id") == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "source_type válido y source_id son requeridos"})
		}
		list, err := h.ledger.ListMovementsBySource(c.Context(), st, c.Query("source_id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.NewMovementListResponse(list))
	}

	branchID := c.Query("branch_id")
	if branchID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "branch_id o source_type/source_id son requeridos"})
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	if ok, err := check(c, &page); !ok {
		return err
	}
	list, err := h.ledger.ListMovementsByBranch(c.Context(), branchID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewMovementListResponse(list))
}
