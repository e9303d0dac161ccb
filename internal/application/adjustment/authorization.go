package adjustment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Authorization compuerta de autorización para correcciones de stock de usuarios no privilegiados.
type Authorization struct {
	requests repository.AdjustmentRequestRepository
	ledger   *inventory.StockLedger
	roles    ports.RoleService
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuthorization construye el caso de uso.
func NewAuthorization(
	requests repository.AdjustmentRequestRepository,
	ledger *inventory.StockLedger,
	roles ports.RoleService,
	log zerolog.Logger,
) *Authorization {
	return &Authorization{
		requests: requests,
		ledger:   ledger,
		roles:    roles,
		log:      log.With().Str("component", "adjustment").Logger(),
		now:      time.Now,
	}
}

// Get devuelve la solicitud o domain.ErrNotFound.
func (a *Authorization) Get(ctx context.Context, id string) (*entity.AdjustmentRequest, error) {
	r, err := a.requests.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar solicitud de ajuste: %w", err)
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// GetPendingAdjustmentRequests lista las solicitudes pendientes de autorización.
func (a *Authorization) GetPendingAdjustmentRequests(ctx context.Context) ([]*entity.AdjustmentRequest, error) {
	return a.requests.ListByState(ctx, entity.AdjustmentPendiente)
}

// Authorize aplica todas las correcciones en un solo lote (sin override), marca la solicitud autorizada
// y la sesión de origen con ajustes aplicados. Si el stock ya no permite alguna línea la solicitud
// sigue pendiente_autorizacion y se devuelve el faltante.
func (a *Authorization) Authorize(ctx context.Context, id, userID string) (*entity.AdjustmentRequest, error) {
	if err := ports.RequirePrivileged(ctx, a.roles, userID); err != nil {
		return nil, err
	}
	req, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.State.CanTransitionTo(entity.AdjustmentAutorizada) {
		return nil, &domain.TransitionError{Entity: "solicitud de ajuste", From: string(req.State), To: string(entity.AdjustmentAutorizada)}
	}
	movements := make([]inventory.Movement, 0, len(req.Lines))
	for _, l := range req.Lines {
		movements = append(movements, inventory.Movement{
			BranchID:   l.BranchID,
			ProductID:  l.ProductID,
			Delta:      l.Delta,
			Reason:     l.Motivo,
			SourceType: entity.SourceAdjustment,
			SourceID:   req.ID,
			UserID:     userID,
		})
	}

	var out *entity.AdjustmentRequest
	_, err = a.ledger.Commit(ctx, movements, false, func(ctx context.Context, repos repository.Repositories) error {
		current, err := loadRequest(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := current.Authorize(userID, a.now()); err != nil {
			return err
		}
		if err := repos.Adjustments.Update(ctx, current); err != nil {
			return err
		}
		if current.SessionID != "" {
			session, err := repos.Sessions.GetByID(ctx, current.SessionID)
			if err != nil {
				return err
			}
			if session != nil {
				session.AjustesAplicados = true
				session.UpdatedAt = a.now()
				if err := repos.Sessions.Update(ctx, session); err != nil {
					return err
				}
			}
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("request_id", id).Str("user_id", userID).Int("lines", len(movements)).Msg("ajuste autorizado")
	return out, nil
}

// Reject rechaza la solicitud con motivo obligatorio. Sin efecto sobre stock.
func (a *Authorization) Reject(ctx context.Context, id, userID, motivo string) (*entity.AdjustmentRequest, error) {
	if err := ports.RequirePrivileged(ctx, a.roles, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(motivo) == "" {
		return nil, domain.Invalid("el motivo de rechazo es obligatorio")
	}
	var out *entity.AdjustmentRequest
	_, err := a.ledger.Commit(ctx, nil, false, func(ctx context.Context, repos repository.Repositories) error {
		current, err := loadRequest(ctx, repos, id)
		if err != nil {
			return err
		}
		if err := current.Reject(userID, motivo, a.now()); err != nil {
			return err
		}
		if err := repos.Adjustments.Update(ctx, current); err != nil {
			return err
		}
		out = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("request_id", id).Str("user_id", userID).Msg("ajuste rechazado")
	return out, nil
}

func loadRequest(ctx context.Context, repos repository.Repositories, id string) (*entity.AdjustmentRequest, error) {
	r, err := repos.Adjustments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}
