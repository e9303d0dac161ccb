package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-engine/internal/application/dto"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReceiptLine producto y cantidad recibidos.
type ReceiptLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// ReceiptInput recepción de una compra en una sucursal.
type ReceiptInput struct {
	BranchID  string
	Reference string // número de orden de compra o factura del proveedor
	UserID    string
	Lines     []ReceiptLine
}

// ReceiptUseCase acredita compras recibidas a través del ledger.
type ReceiptUseCase struct {
	ledger *StockLedger
	log    zerolog.Logger
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(ledger *StockLedger, log zerolog.Logger) *ReceiptUseCase {
	return &ReceiptUseCase{ledger: ledger, log: log}
}

// Receive acredita todas las líneas en un único lote con origen "compra".
// Si Reference viene vacío se genera un identificador para agrupar los movimientos.
func (uc *ReceiptUseCase) Receive(ctx context.Context, in ReceiptInput) ([]*entity.StockMovement, error) {
	if in.BranchID == "" || len(in.Lines) == 0 {
		return nil, domain.Invalid("sucursal y al menos una línea son obligatorias")
	}
	sourceID := in.Reference
	if sourceID == "" {
		sourceID = uuid.New().String()
	}
	movements := make([]Movement, 0, len(in.Lines))
	for i, line := range in.Lines {
		if !line.Quantity.IsPositive() {
			return nil, domain.Invalid("línea %d: la cantidad recibida debe ser positiva", i+1)
		}
		movements = append(movements, Movement{
			BranchID:   in.BranchID,
			ProductID:  line.ProductID,
			Delta:      line.Quantity,
			Reason:     "recepción de compra",
			SourceType: entity.SourcePurchase,
			SourceID:   sourceID,
			UserID:     in.UserID,
		})
	}
	records, err := uc.ledger.ApplyBatch(ctx, movements, false)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("branch_id", in.BranchID).Str("source_id", sourceID).Int("lines", len(records)).Msg("compra recibida")
	return records, nil
}

// ReceiveFromRequest adapta el request HTTP al caso de uso Receive.
func (uc *ReceiptUseCase) ReceiveFromRequest(ctx context.Context, userID string, in dto.ReceiptRequest) ([]*entity.StockMovement, error) {
	input := ReceiptInput{
		BranchID:  in.BranchID,
		Reference: in.Reference,
		UserID:    userID,
		Lines:     make([]ReceiptLine, 0, len(in.Lines)),
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, ReceiptLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return uc.Receive(ctx, input)
}
