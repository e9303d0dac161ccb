package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	invdomain "github.com/jhoicas/inventario-engine/internal/domain/inventory"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/rs/zerolog"
)

// CreateInput datos para solicitar un traslado.
type CreateInput struct {
	OriginBranchID      string
	DestinationBranchID string
	Lines               []entity.TransferLine
	UserID              string
}

// CreateResult traslado creado y verificación informativa de stock en origen.
// Sufficient=false no impide crear el traslado; la verificación definitiva ocurre al aprobar.
type CreateResult struct {
	Transfer     *entity.Transfer
	Availability []invdomain.Availability
	Sufficient   bool
}

// Manager máquina de estados de traslados entre sucursales.
type Manager struct {
	transfers repository.TransferRepository
	ledger    *inventory.StockLedger
	catalog   ports.ProductCatalog
	branches  ports.BranchDirectory
	roles     ports.RoleService
	log       zerolog.Logger
	now       func() time.Time
}

// NewManager construye el gestor de traslados.
func NewManager(
	transfers repository.TransferRepository,
	ledger *inventory.StockLedger,
	catalog ports.ProductCatalog,
	branches ports.BranchDirectory,
	roles ports.RoleService,
	log zerolog.Logger,
) *Manager {
	return &Manager{
		transfers: transfers,
		ledger:    ledger,
		catalog:   catalog,
		branches:  branches,
		roles:     roles,
		log:       log.With().Str("component", "transfer").Logger(),
		now:       time.Now,
	}
}

// Create valida y registra el traslado en estado pendiente. Líneas repetidas del mismo producto se suman.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	if in.OriginBranchID == "" || in.DestinationBranchID == "" {
		return nil, domain.Invalid("sucursal de origen y destino son obligatorias")
	}
	if in.OriginBranchID == in.DestinationBranchID {
		return nil, domain.Invalid("origen y destino deben ser sucursales distintas")
	}
	if len(in.Lines) == 0 {
		return nil, domain.Invalid("el traslado requiere al menos una línea")
	}
	for _, id := range []string{in.OriginBranchID, in.DestinationBranchID} {
		b, err := m.branches.GetBranch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("consultar sucursal: %w", err)
		}
		if b == nil {
			return nil, domain.Invalid("sucursal %s desconocida", id)
		}
	}
	lines, err := m.normalize(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	now := m.now()
	t := &entity.Transfer{
		ID:                  uuid.New().String(),
		OriginBranchID:      in.OriginBranchID,
		DestinationBranchID: in.DestinationBranchID,
		Lines:               lines,
		State:               entity.TransferPendiente,
		CreatedBy:           in.UserID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	availability, err := m.checkOrigin(ctx, t)
	if err != nil {
		return nil, err
	}
	if err := m.transfers.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("crear traslado: %w", err)
	}
	sufficient := len(invdomain.Shortages(t.OriginBranchID, availability)) == 0
	m.log.Info().
		Str("transfer_id", t.ID).
		Str("origin", t.OriginBranchID).
		Str("destination", t.DestinationBranchID).
		Bool("sufficient", sufficient).
		Msg("traslado creado")
	return &CreateResult{Transfer: t, Availability: availability, Sufficient: sufficient}, nil
}

func (m *Manager) normalize(ctx context.Context, lines []entity.TransferLine) ([]entity.TransferLine, error) {
	index := make(map[string]int, len(lines))
	out := make([]entity.TransferLine, 0, len(lines))
	for i, l := range lines {
		if l.ProductID == "" {
			return nil, domain.Invalid("línea %d: producto obligatorio", i+1)
		}
		if !l.Quantity.IsPositive() {
			return nil, domain.Invalid("línea %d: la cantidad debe ser positiva", i+1)
		}
		if j, ok := index[l.ProductID]; ok {
			out[j].Quantity = out[j].Quantity.Add(l.Quantity)
			continue
		}
		p, err := m.catalog.GetProduct(ctx, l.ProductID)
		if err != nil {
			return nil, fmt.Errorf("consultar producto: %w", err)
		}
		if p == nil {
			return nil, domain.Invalid("producto %s desconocido", l.ProductID)
		}
		index[l.ProductID] = len(out)
		out = append(out, entity.TransferLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return out, nil
}

func (m *Manager) checkOrigin(ctx context.Context, t *entity.Transfer) ([]invdomain.Availability, error) {
	reqs := make([]invdomain.Requirement, 0, len(t.Lines))
	ids := make([]string, 0, len(t.Lines))
	for _, l := range t.Lines {
		reqs = append(reqs, invdomain.Requirement{IngredientID: l.ProductID, Required: l.Quantity})
		ids = append(ids, l.ProductID)
	}
	available, err := m.ledger.GetQuantities(ctx, t.OriginBranchID, ids)
	if err != nil {
		return nil, err
	}
	return invdomain.CheckAvailability(reqs, available), nil
}

// Get devuelve el traslado o domain.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*entity.Transfer, error) {
	t, err := m.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar traslado: %w", err)
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// GetPendingTransfers lista los traslados que esperan aprobación.
func (m *Manager) GetPendingTransfers(ctx context.Context) ([]*entity.Transfer, error) {
	return m.transfers.ListByState(ctx, entity.TransferPendiente)
}

// Approve descuenta origen y acredita destino por cada línea en una sola transacción y marca el
// traslado aprobado. Si el origen ya no alcanza, el traslado sigue pendiente y el error lista las líneas.
func (m *Manager) Approve(ctx context.Context, id, userID string) (*entity.Transfer, error) {
	if err := ports.RequirePrivileged(ctx, m.roles, userID); err != nil {
		return nil, err
	}
	t, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.State.CanTransitionTo(entity.TransferAprobada) {
		return nil, &domain.TransitionError{Entity: "traslado", From: string(t.State), To: string(entity.TransferAprobada)}
	}

	movements := make([]inventory.Movement, 0, 2*len(t.Lines))
	for _, l := range t.Lines {
		movements = append(movements,
			inventory.Movement{
				BranchID:   t.OriginBranchID,
				ProductID:  l.ProductID,
				Delta:      l.Quantity.Neg(),
				Reason:     "traslado a " + t.DestinationBranchID,
				SourceType: entity.SourceTransfer,
				SourceID:   t.ID,
				UserID:     userID,
			},
			inventory.Movement{
				BranchID:   t.DestinationBranchID,
				ProductID:  l.ProductID,
				Delta:      l.Quantity,
				Reason:     "traslado desde " + t.OriginBranchID,
				SourceType: entity.SourceTransfer,
				SourceID:   t.ID,
				UserID:     userID,
			},
		)
	}

	var out *entity.Transfer
	_, err = m.ledger.Commit(ctx, movements, false, func(ctx context.Context, repos repository.Repositories) error {
		current, err := loadTransfer(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := current.Approve(userID, m.now()); err != nil {
			return err
		}
		if err := repos.Transfers.Update(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Info().Str("transfer_id", id).Str("user_id", userID).Msg("traslado aprobado")
	return out, nil
}

// Reject rechaza el traslado con motivo obligatorio. Sin efecto sobre stock.
func (m *Manager) Reject(ctx context.Context, id, userID, motivo string) (*entity.Transfer, error) {
	if err := ports.RequirePrivileged(ctx, m.roles, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(motivo) == "" {
		return nil, domain.Invalid("el motivo de rechazo es obligatorio")
	}
	var out *entity.Transfer
	_, err := m.ledger.Commit(ctx, nil, false, func(ctx context.Context, repos repository.Repositories) error {
		current, err := loadTransfer(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := current.Reject(userID, motivo, m.now()); err != nil {
			return err
		}
		if err := repos.Transfers.Update(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Info().Str("transfer_id", id).Str("user_id", userID).Msg("traslado rechazado")
	return out, nil
}

func loadTransfer(ctx context.Context, repos repository.Repositories, id string) (*entity.Transfer, error) {
	t, err := repos.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}
