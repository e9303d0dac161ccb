package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventario-engine/internal/application/dto"
	"github.com/jhoicas/inventario-engine/internal/application/production"
	invdomain "github.com/jhoicas/inventario-engine/internal/domain/inventory"
)

// ProductionHandler recetas y órdenes de producción (protegido).
type ProductionHandler struct {
	engine *production.RecipeEngine
	orders *production.OrderManager
}

// NewProductionHandler construye el handler.
func NewProductionHandler(engine *production.RecipeEngine, orders *production.OrderManager) *ProductionHandler {
	return &ProductionHandler{engine: engine, orders: orders}
}

// CreateRecipe POST /api/recipes.
func (h *ProductionHandler) CreateRecipe(c *fiber.Ctx) error {
	var in dto.CreateRecipeRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	recipe := in.ToEntity()
	if err := h.engine.RegisterRecipe(c.Context(), recipe); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewRecipeResponse(recipe))
}

// GetRecipe GET /api/recipes/:id.
func (h *ProductionHandler) GetRecipe(c *fiber.Ctx) error {
	recipe, err := h.engine.GetRecipe(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewRecipeResponse(recipe))
}

// Requirements POST /api/recipes/:id/requirements: escala la receta y verifica stock en la sucursal.
func (h *ProductionHandler) Requirements(c *fiber.Ctx) error {
	var in dto.RequirementsRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	availability, err := h.engine.Check(c.Context(), c.Params("id"), in.BranchID, in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.RequirementsResponse{
		RecipeID:     c.Params("id"),
		BranchID:     in.BranchID,
		Quantity:     in.Quantity,
		Availability: availability,
		Sufficient:   len(invdomain.Shortages(in.BranchID, availability)) == 0,
	})
}

// CreateOrder POST /api/production-orders.
func (h *ProductionHandler) CreateOrder(c *fiber.Ctx) error {
	var in dto.CreateProductionOrderRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	order, err := h.orders.Create(c.Context(), production.CreateOrderInput{
		RecipeID:  in.RecipeID,
		BranchID:  in.BranchID,
		Quantity:  in.Quantity,
		ManoObra:  in.CostoManoObra,
		Adicional: in.CostoAdicional,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewProductionOrderResponse(order))
}

// GetOrder GET /api/production-orders/:id.
func (h *ProductionHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewProductionOrderResponse(order))
}

// StartOrder POST /api/production-orders/:id/start.
func (h *ProductionHandler) StartOrder(c *fiber.Ctx) error {
	order, err := h.orders.Start(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewProductionOrderResponse(order))
}

// CompleteOrder POST /api/production-orders/:id/complete: consume insumos y acredita el producto.
func (h *ProductionHandler) CompleteOrder(c *fiber.Ctx) error {
	order, err := h.orders.Complete(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewProductionOrderResponse(order))
}

// CancelOrder POST /api/production-orders/:id/cancel.
func (h *ProductionHandler) CancelOrder(c *fiber.Ctx) error {
	order, err := h.orders.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewProductionOrderResponse(order))
}
