package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultMaxRetries intentos de commit ante escrituras concurrentes antes de devolver ErrConflict.
const DefaultMaxRetries = 5

// Movement una línea de cambio de cantidad a aplicar por el ledger.
type Movement struct {
	BranchID   string
	ProductID  string
	Delta      decimal.Decimal
	Reason     string
	SourceType entity.SourceType
	SourceID   string
	UserID     string
}

// Hook se ejecuta dentro de la misma transacción que las escrituras de stock.
// Los flujos lo usan para persistir su transición de estado junto con los movimientos.
type Hook func(ctx context.Context, repos repository.Repositories) error

// StockLedger es el único punto de mutación de stock. Valida que ninguna cantidad quede negativa,
// escribe cada entrada con control optimista de versión y agrega un StockMovement por línea.
type StockLedger struct {
	txRunner   TxRunner
	repos      repository.Repositories
	catalog    ports.ProductCatalog
	branches   ports.BranchDirectory
	maxRetries int
	log        zerolog.Logger
	now        func() time.Time
}

// NewStockLedger construye el ledger. repos se usa para lecturas fuera de transacción.
func NewStockLedger(
	txRunner TxRunner,
	repos repository.Repositories,
	catalog ports.ProductCatalog,
	branches ports.BranchDirectory,
	maxRetries int,
	log zerolog.Logger,
) *StockLedger {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &StockLedger{
		txRunner:   txRunner,
		repos:      repos,
		catalog:    catalog,
		branches:   branches,
		maxRetries: maxRetries,
		log:        log.With().Str("component", "stock_ledger").Logger(),
		now:        time.Now,
	}
}

// GetQuantity devuelve la cantidad actual; una entrada inexistente vale cero.
func (l *StockLedger) GetQuantity(ctx context.Context, branchID, productID string) (decimal.Decimal, error) {
	stock, err := l.repos.Stock.Get(ctx, branchID, productID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("consultar stock: %w", err)
	}
	return stock.Quantity, nil
}

// GetQuantities devuelve la cantidad de varios productos en una sucursal.
func (l *StockLedger) GetQuantities(ctx context.Context, branchID string, productIDs []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(productIDs))
	for _, id := range productIDs {
		qty, err := l.GetQuantity(ctx, branchID, id)
		if err != nil {
			return nil, err
		}
		out[id] = qty
	}
	return out, nil
}

// ApplyMovement aplica un único movimiento y devuelve la nueva cantidad.
// Sin override falla con ErrInsufficientStock si el resultado fuese negativo.
func (l *StockLedger) ApplyMovement(ctx context.Context, m Movement, override bool) (decimal.Decimal, error) {
	records, err := l.Commit(ctx, []Movement{m}, override, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if len(records) == 0 {
		// Solo ocurre con override sobre saldo cero.
		return decimal.Zero, nil
	}
	return records[0].QuantityAfter, nil
}

// ApplyBatch aplica todas las líneas o ninguna.
func (l *StockLedger) ApplyBatch(ctx context.Context, movements []Movement, override bool) ([]*entity.StockMovement, error) {
	return l.Commit(ctx, movements, override, nil)
}

// Commit simula todas las líneas, y solo si todas son válidas escribe stock y movimientos junto con hook
// en una única transacción. Ante domain.ErrStaleWrite reintenta desde la lectura hasta maxRetries veces.
func (l *StockLedger) Commit(ctx context.Context, movements []Movement, override bool, hook Hook) ([]*entity.StockMovement, error) {
	if len(movements) == 0 && hook == nil {
		return nil, domain.Invalid("el lote de movimientos está vacío")
	}
	if err := l.validate(ctx, movements); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		var records []*entity.StockMovement
		err := l.txRunner.Run(ctx, func(repos repository.Repositories) error {
			if hook != nil {
				if err := hook(ctx, repos); err != nil {
					return err
				}
			}
			var err error
			records, err = l.apply(ctx, repos, movements, override)
			return err
		})
		if err == nil {
			l.log.Debug().Int("movements", len(records)).Int("attempt", attempt).Msg("lote confirmado")
			return records, nil
		}
		if !errors.Is(err, domain.ErrStaleWrite) {
			return nil, err
		}
		l.log.Warn().Int("attempt", attempt).Msg("escritura concurrente, reintentando lote")
	}
	l.log.Error().Int("max_retries", l.maxRetries).Msg("reintentos agotados")
	return nil, domain.ErrConflict
}

// apply lee cada clave una sola vez, simula las líneas en orden y escribe solo si ninguna falta.
func (l *StockLedger) apply(ctx context.Context, repos repository.Repositories, movements []Movement, override bool) ([]*entity.StockMovement, error) {
	now := l.now()
	entries := make(map[entity.StockKey]*entity.StockEntry)
	var keys []entity.StockKey
	records := make([]*entity.StockMovement, 0, len(movements))
	var shortages []domain.Shortage

	for _, m := range movements {
		key := entity.StockKey{BranchID: m.BranchID, ProductID: m.ProductID}
		stock, ok := entries[key]
		if !ok {
			var err error
			stock, err = repos.Stock.Get(ctx, m.BranchID, m.ProductID)
			if err != nil {
				return nil, err
			}
			entries[key] = stock
			keys = append(keys, key)
		}

		before := stock.Quantity
		delta := m.Delta
		after := before.Add(delta)
		if after.IsNegative() {
			if !override {
				shortages = append(shortages, domain.Shortage{
					BranchID:  m.BranchID,
					ProductID: m.ProductID,
					Available: before,
					Required:  delta.Neg(),
				})
				continue
			}
			// Con override la cantidad nunca baja de cero; el movimiento registra el delta efectivo.
			after = decimal.Zero
			delta = before.Neg()
		}
		if delta.IsZero() {
			// Con el saldo ya en cero no hay cambio que registrar.
			continue
		}
		stock.Quantity = after
		records = append(records, &entity.StockMovement{
			ID:             uuid.New().String(),
			BranchID:       m.BranchID,
			ProductID:      m.ProductID,
			QuantityDelta:  delta,
			QuantityBefore: before,
			QuantityAfter:  after,
			Reason:         m.Reason,
			SourceType:     m.SourceType,
			SourceID:       m.SourceID,
			UserID:         m.UserID,
			CreatedAt:      now,
		})
	}
	if len(shortages) > 0 {
		return nil, &domain.InsufficientStockError{Shortages: shortages}
	}

	for _, key := range keys {
		stock := entries[key]
		stock.UpdatedAt = now
		if err := repos.Stock.Save(ctx, stock); err != nil {
			return nil, err
		}
	}
	for _, rec := range records {
		if err := repos.Movements.Create(ctx, rec); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// validate revisa forma de cada línea y que sucursales y productos existan.
func (l *StockLedger) validate(ctx context.Context, movements []Movement) error {
	checked := make(map[entity.StockKey]bool)
	for i, m := range movements {
		if m.BranchID == "" || m.ProductID == "" {
			return domain.Invalid("línea %d: sucursal y producto son obligatorios", i+1)
		}
		if m.Delta.IsZero() {
			return domain.Invalid("línea %d: la cantidad no puede ser cero", i+1)
		}
		if !m.SourceType.IsValid() {
			return domain.Invalid("línea %d: origen %q desconocido", i+1, m.SourceType)
		}
		key := entity.StockKey{BranchID: m.BranchID, ProductID: m.ProductID}
		if checked[key] {
			continue
		}
		if err := l.checkRefs(ctx, m.BranchID, m.ProductID); err != nil {
			return err
		}
		checked[key] = true
	}
	return nil
}

// checkRefs confirma que el producto exista en el catálogo y la sucursal en el directorio.
func (l *StockLedger) checkRefs(ctx context.Context, branchID, productID string) error {
	p, err := l.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("consultar producto: %w", err)
	}
	if p == nil {
		return domain.Invalid("producto %s desconocido", productID)
	}
	b, err := l.branches.GetBranch(ctx, branchID)
	if err != nil {
		return fmt.Errorf("consultar sucursal: %w", err)
	}
	if b == nil {
		return domain.Invalid("sucursal %s desconocida", branchID)
	}
	return nil
}

// SetMinimum fija la cantidad mínima de una entrada (la crea si no existe). No genera movimiento.
func (l *StockLedger) SetMinimum(ctx context.Context, branchID, productID string, minimum decimal.Decimal) (*entity.StockEntry, error) {
	return l.InitializeStock(ctx, branchID, productID, minimum, decimal.Zero, "")
}

// InitializeStock crea o reconfigura la entrada con su mínimo y, si opening es positivo,
// acredita la cantidad de apertura con un movimiento de origen "inicial".
func (l *StockLedger) InitializeStock(ctx context.Context, branchID, productID string, minimum, opening decimal.Decimal, userID string) (*entity.StockEntry, error) {
	if minimum.IsNegative() || opening.IsNegative() {
		return nil, domain.Invalid("mínimo y apertura no pueden ser negativos")
	}
	var movements []Movement
	if opening.IsPositive() {
		movements = append(movements, Movement{
			BranchID:   branchID,
			ProductID:  productID,
			Delta:      opening,
			Reason:     "stock de apertura",
			SourceType: entity.SourceInitial,
			SourceID:   branchID + ":" + productID,
			UserID:     userID,
		})
	} else if err := l.checkRefs(ctx, branchID, productID); err != nil {
		return nil, err
	}

	_, err := l.Commit(ctx, movements, false, func(ctx context.Context, repos repository.Repositories) error {
		stock, err := repos.Stock.Get(ctx, branchID, productID)
		if err != nil {
			return err
		}
		stock.MinimumQuantity = minimum
		stock.UpdatedAt = l.now()
		return repos.Stock.Save(ctx, stock)
	})
	if err != nil {
		return nil, err
	}
	return l.repos.Stock.Get(ctx, branchID, productID)
}

// GetStockByBranch lista las entradas de stock de una sucursal.
func (l *StockLedger) GetStockByBranch(ctx context.Context, branchID string) ([]*entity.StockEntry, error) {
	list, err := l.repos.Stock.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("listar stock: %w", err)
	}
	return list, nil
}

// GetLowStock lista las entradas con cantidad menor o igual al mínimo.
func (l *StockLedger) GetLowStock(ctx context.Context, branchID string) ([]*entity.StockEntry, error) {
	list, err := l.repos.Stock.ListLow(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("listar stock bajo: %w", err)
	}
	return list, nil
}

// ListMovementsBySource devuelve los movimientos generados por una misma operación.
func (l *StockLedger) ListMovementsBySource(ctx context.Context, sourceType entity.SourceType, sourceID string) ([]*entity.StockMovement, error) {
	list, err := l.repos.Movements.ListBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, fmt.Errorf("listar movimientos: %w", err)
	}
	return list, nil
}

// ListMovementsByBranch devuelve los movimientos de una sucursal, más recientes primero.
func (l *StockLedger) ListMovementsByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.StockMovement, error) {
	list, err := l.repos.Movements.ListByBranch(ctx, branchID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar movimientos: %w", err)
	}
	return list, nil
}
