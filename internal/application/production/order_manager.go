package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	invdomain "github.com/jhoicas/inventario-engine/internal/domain/inventory"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CreateOrderInput datos para crear una orden de producción.
type CreateOrderInput struct {
	RecipeID  string
	BranchID  string
	Quantity  decimal.Decimal
	ManoObra  decimal.Decimal
	Adicional decimal.Decimal
	UserID    string
}

// OrderManager máquina de estados de las órdenes de producción. El stock solo cambia al completar.
type OrderManager struct {
	orders   repository.ProductionOrderRepository
	engine   *RecipeEngine
	ledger   *inventory.StockLedger
	branches ports.BranchDirectory
	log      zerolog.Logger
	now      func() time.Time
}

// NewOrderManager construye el gestor de órdenes.
func NewOrderManager(
	orders repository.ProductionOrderRepository,
	engine *RecipeEngine,
	ledger *inventory.StockLedger,
	branches ports.BranchDirectory,
	log zerolog.Logger,
) *OrderManager {
	return &OrderManager{
		orders:   orders,
		engine:   engine,
		ledger:   ledger,
		branches: branches,
		log:      log.With().Str("component", "production").Logger(),
		now:      time.Now,
	}
}

// Create registra una orden en estado pendiente. No toca stock.
func (m *OrderManager) Create(ctx context.Context, in CreateOrderInput) (*entity.ProductionOrder, error) {
	if in.RecipeID == "" || in.BranchID == "" {
		return nil, domain.Invalid("receta y sucursal son obligatorias")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.Invalid("la cantidad a producir debe ser positiva")
	}
	if in.ManoObra.IsNegative() || in.Adicional.IsNegative() {
		return nil, domain.Invalid("los costos no pueden ser negativos")
	}
	recipe, err := m.engine.GetRecipe(ctx, in.RecipeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Invalid("receta %s desconocida", in.RecipeID)
		}
		return nil, err
	}
	if _, err := m.engine.ComputeRequirements(recipe, in.Quantity); err != nil {
		return nil, err
	}
	branch, err := m.branches.GetBranch(ctx, in.BranchID)
	if err != nil {
		return nil, fmt.Errorf("consultar sucursal: %w", err)
	}
	if branch == nil {
		return nil, domain.Invalid("sucursal %s desconocida", in.BranchID)
	}

	now := m.now()
	order := &entity.ProductionOrder{
		ID:       uuid.New().String(),
		RecipeID: recipe.ID,
		BranchID: in.BranchID,
		Quantity: in.Quantity,
		State:    entity.ProductionPendiente,
		Costs: entity.ProductionCosts{
			MateriasPrimas: decimal.Zero,
			ManoObra:       in.ManoObra,
			Adicional:      in.Adicional,
			Total:          decimal.Zero,
			Unitario:       decimal.Zero,
		},
		CreatedBy: in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("crear orden de producción: %w", err)
	}
	m.log.Info().Str("order_id", order.ID).Str("recipe_id", recipe.ID).Str("quantity", in.Quantity.String()).Msg("orden creada")
	return order, nil
}

// Get devuelve la orden o domain.ErrNotFound.
func (m *OrderManager) Get(ctx context.Context, id string) (*entity.ProductionOrder, error) {
	order, err := m.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar orden: %w", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// ListByState lista las órdenes en un estado.
func (m *OrderManager) ListByState(ctx context.Context, state entity.ProductionState) ([]*entity.ProductionOrder, error) {
	return m.orders.ListByState(ctx, state)
}

// Start pasa la orden a en_proceso. No reserva stock: la disponibilidad se verifica al completar.
func (m *OrderManager) Start(ctx context.Context, id string) (*entity.ProductionOrder, error) {
	return m.transition(ctx, id, entity.ProductionEnProceso)
}

// Cancel cancela una orden no terminal. Sin efecto sobre stock.
func (m *OrderManager) Cancel(ctx context.Context, id string) (*entity.ProductionOrder, error) {
	return m.transition(ctx, id, entity.ProductionCancelada)
}

func (m *OrderManager) transition(ctx context.Context, id string, target entity.ProductionState) (*entity.ProductionOrder, error) {
	var out *entity.ProductionOrder
	_, err := m.ledger.Commit(ctx, nil, false, func(ctx context.Context, repos repository.Repositories) error {
		order, err := loadOrder(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := order.TransitionTo(target, m.now()); err != nil {
			return err
		}
		if err := repos.Orders.Update(ctx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Info().Str("order_id", id).Str("state", string(target)).Msg("orden actualizada")
	return out, nil
}

// Complete verifica disponibilidad y, en una sola transacción, descuenta cada insumo escalado,
// acredita el producto terminado, calcula costos y marca la orden completada.
// Si falta algún insumo la orden sigue en_proceso y se devuelve *domain.InsufficientStockError.
func (m *OrderManager) Complete(ctx context.Context, id, userID string) (*entity.ProductionOrder, error) {
	order, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.State.CanTransitionTo(entity.ProductionCompletada) {
		return nil, &domain.TransitionError{Entity: "orden de producción", From: string(order.State), To: string(entity.ProductionCompletada)}
	}
	recipe, err := m.engine.GetRecipe(ctx, order.RecipeID)
	if err != nil {
		return nil, err
	}
	reqs, err := m.engine.ComputeRequirements(recipe, order.Quantity)
	if err != nil {
		return nil, err
	}
	availability, err := m.engine.VerifyAvailability(ctx, order.BranchID, reqs)
	if err != nil {
		return nil, err
	}
	if shortages := invdomain.Shortages(order.BranchID, availability); len(shortages) > 0 {
		m.log.Warn().Str("order_id", id).Int("shortages", len(shortages)).Msg("insumos insuficientes")
		return nil, &domain.InsufficientStockError{Shortages: shortages}
	}
	materias, err := m.engine.MaterialsCost(ctx, reqs)
	if err != nil {
		return nil, err
	}

	movements := make([]inventory.Movement, 0, len(reqs)+1)
	for _, r := range reqs {
		movements = append(movements, inventory.Movement{
			BranchID:   order.BranchID,
			ProductID:  r.IngredientID,
			Delta:      r.Required.Neg(),
			Reason:     "consumo de insumo en producción",
			SourceType: entity.SourceProduction,
			SourceID:   order.ID,
			UserID:     userID,
		})
	}
	movements = append(movements, inventory.Movement{
		BranchID:   order.BranchID,
		ProductID:  recipe.ProductID,
		Delta:      order.Quantity,
		Reason:     "producto terminado",
		SourceType: entity.SourceProduction,
		SourceID:   order.ID,
		UserID:     userID,
	})

	var out *entity.ProductionOrder
	_, err = m.ledger.Commit(ctx, movements, false, func(ctx context.Context, repos repository.Repositories) error {
		current, err := loadOrder(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := current.TransitionTo(entity.ProductionCompletada, m.now()); err != nil {
			return err
		}
		total, unitario := invdomain.ProductionCost(materias, current.Costs.ManoObra, current.Costs.Adicional, current.Quantity)
		current.Costs.MateriasPrimas = materias
		current.Costs.Total = total
		current.Costs.Unitario = unitario
		if err := repos.Orders.Update(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Info().
		Str("order_id", id).
		Str("costo_total", out.Costs.Total.String()).
		Int("movements", len(movements)).
		Msg("orden completada")
	return out, nil
}

func loadOrder(ctx context.Context, repos repository.Repositories, id string) (*entity.ProductionOrder, error) {
	order, err := repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return order, nil
}
