package control

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-engine/internal/application/ports"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultMotivo = "diferencia en control de inventario"

// OpenInput datos para abrir una sesión. ProductIDs vacío cuenta todo el stock registrado de la sucursal.
type OpenInput struct {
	BranchID   string
	ProductIDs []string
	UserID     string
}

// SessionManager conteos físicos: foto del sistema al abrir, conteo por línea y conciliación al finalizar.
type SessionManager struct {
	sessions repository.ControlSessionRepository
	ledger   *inventory.StockLedger
	catalog  ports.ProductCatalog
	branches ports.BranchDirectory
	roles    ports.RoleService
	log      zerolog.Logger
	now      func() time.Time
}

// NewSessionManager construye el gestor de sesiones de control.
func NewSessionManager(
	sessions repository.ControlSessionRepository,
	ledger *inventory.StockLedger,
	catalog ports.ProductCatalog,
	branches ports.BranchDirectory,
	roles ports.RoleService,
	log zerolog.Logger,
) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		ledger:   ledger,
		catalog:  catalog,
		branches: branches,
		roles:    roles,
		log:      log.With().Str("component", "control").Logger(),
		now:      time.Now,
	}
}

// Open abre una sesión para la sucursal tomando stock_sistema de cada producto del alcance.
// Devuelve domain.ErrInvalidStateTransition si ya hay una sesión en proceso en la sucursal.
func (m *SessionManager) Open(ctx context.Context, in OpenInput) (*entity.ControlSession, error) {
	if in.BranchID == "" {
		return nil, domain.Invalid("la sucursal es obligatoria")
	}
	branch, err := m.branches.GetBranch(ctx, in.BranchID)
	if err != nil {
		return nil, fmt.Errorf("consultar sucursal: %w", err)
	}
	if branch == nil {
		return nil, domain.Invalid("sucursal %s desconocida", in.BranchID)
	}
	open, err := m.sessions.FindOpenByBranch(ctx, in.BranchID)
	if err != nil {
		return nil, fmt.Errorf("consultar sesión abierta: %w", err)
	}
	if open != nil {
		return nil, &domain.TransitionError{Entity: "sesión de control", From: string(open.State), To: "abrir otra sesión"}
	}

	scope, err := m.scope(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(scope) == 0 {
		return nil, domain.Invalid("la sucursal %s no tiene productos para contar", in.BranchID)
	}
	lines := make([]entity.ControlLineItem, 0, len(scope))
	for _, productID := range scope {
		qty, err := m.ledger.GetQuantity(ctx, in.BranchID, productID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, entity.ControlLineItem{
			ProductID:    productID,
			StockSistema: qty,
			StockFisico:  decimal.Zero,
			Diferencia:   decimal.Zero,
		})
	}

	now := m.now()
	session := &entity.ControlSession{
		ID:        uuid.New().String(),
		BranchID:  in.BranchID,
		State:     entity.ControlEnProceso,
		Lines:     lines,
		CreatedBy: in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	m.log.Info().Str("session_id", session.ID).Str("branch_id", in.BranchID).Int("lines", len(lines)).Msg("sesión de control abierta")
	return session, nil
}

func (m *SessionManager) scope(ctx context.Context, in OpenInput) ([]string, error) {
	if len(in.ProductIDs) == 0 {
		entries, err := m.ledger.GetStockByBranch(ctx, in.BranchID)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(entries))
		for _, e := range entries {
			out = append(out, e.ProductID)
		}
		return out, nil
	}
	seen := make(map[string]bool, len(in.ProductIDs))
	out := make([]string, 0, len(in.ProductIDs))
	for _, id := range in.ProductIDs {
		if seen[id] {
			continue
		}
		p, err := m.catalog.GetProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("consultar producto: %w", err)
		}
		if p == nil {
			return nil, domain.Invalid("producto %s desconocido", id)
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// Get devuelve la sesión o domain.ErrNotFound.
func (m *SessionManager) Get(ctx context.Context, id string) (*entity.ControlSession, error) {
	s, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar sesión: %w", err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

// RecordCount registra o corrige el conteo físico de un producto. Se permiten conteos parciales.
func (m *SessionManager) RecordCount(ctx context.Context, sessionID, productID string, stockFisico decimal.Decimal, observaciones string) (*entity.ControlSession, error) {
	var out *entity.ControlSession
	_, err := m.ledger.Commit(ctx, nil, false, func(ctx context.Context, repos repository.Repositories) error {
		s, err := loadSession(ctx, repos, sessionID)
		if err != nil {
			return err
		}
		if err := s.RecordCount(productID, stockFisico, observaciones, m.now()); err != nil {
			return err
		}
		if err := repos.Sessions.Update(ctx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Finalize cierra la sesión una sola vez. Con usuario privilegiado las diferencias contadas se aplican
// directo (override) en la misma transacción; si no, se crea una única solicitud de ajuste con todas ellas.
func (m *SessionManager) Finalize(ctx context.Context, sessionID, userID string) (*entity.ControlSession, error) {
	session, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.State.CanTransitionTo(entity.ControlFinalizado) {
		return nil, &domain.TransitionError{Entity: "sesión de control", From: string(session.State), To: string(entity.ControlFinalizado)}
	}
	privileged := false
	if userID != "" {
		if privileged, err = m.roles.IsPrivileged(ctx, userID); err != nil {
			return nil, fmt.Errorf("consultar rol: %w", err)
		}
	}
	diffs := session.Differences()

	var out *entity.ControlSession
	if privileged {
		movements := make([]inventory.Movement, 0, len(diffs))
		for _, l := range diffs {
			movements = append(movements, inventory.Movement{
				BranchID:   session.BranchID,
				ProductID:  l.ProductID,
				Delta:      l.Diferencia,
				Reason:     motivo(l),
				SourceType: entity.SourceControl,
				SourceID:   session.ID,
				UserID:     userID,
			})
		}
		_, err = m.ledger.Commit(ctx, movements, true, func(ctx context.Context, repos repository.Repositories) error {
			s, err := m.reload(ctx, repos, session)
			if err != nil {
				return err
			}
			if err := s.Finalize(userID, m.now()); err != nil {
				return err
			}
			s.AjustesAplicados = true
			if err := repos.Sessions.Update(ctx, s); err != nil {
				return err
			}
			out = s
			return nil
		})
	} else {
		_, err = m.ledger.Commit(ctx, nil, false, func(ctx context.Context, repos repository.Repositories) error {
			s, err := m.reload(ctx, repos, session)
			if err != nil {
				return err
			}
			now := m.now()
			if err := s.Finalize(userID, now); err != nil {
				return err
			}
			if len(diffs) == 0 {
				// Nada que autorizar.
				s.AjustesAplicados = true
			} else {
				req := &entity.AdjustmentRequest{
					ID:          uuid.New().String(),
					SessionID:   s.ID,
					Lines:       make([]entity.AdjustmentLine, 0, len(diffs)),
					State:       entity.AdjustmentPendiente,
					RequestedBy: userID,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				for _, l := range diffs {
					req.Lines = append(req.Lines, entity.AdjustmentLine{
						ProductID: l.ProductID,
						BranchID:  s.BranchID,
						Delta:     l.Diferencia,
						Motivo:    motivo(l),
					})
				}
				if err := repos.Adjustments.Create(ctx, req); err != nil {
					return err
				}
				s.AdjustmentRequestID = req.ID
			}
			if err := repos.Sessions.Update(ctx, s); err != nil {
				return err
			}
			out = s
			return nil
		})
	}
	if err != nil {
		return nil, err
	}
	m.log.Info().
		Str("session_id", sessionID).
		Bool("privileged", privileged).
		Int("differences", len(diffs)).
		Str("adjustment_request_id", out.AdjustmentRequestID).
		Msg("sesión de control finalizada")
	return out, nil
}

// reload relee la sesión dentro de la transacción. Si cambió desde que se calcularon las diferencias
// (un conteo concurrente) la finalización se aborta con domain.ErrConflict.
func (m *SessionManager) reload(ctx context.Context, repos repository.Repositories, seen *entity.ControlSession) (*entity.ControlSession, error) {
	s, err := loadSession(ctx, repos, seen.ID)
	if err != nil {
		return nil, err
	}
	if s.State != entity.ControlEnProceso {
		return nil, &domain.TransitionError{Entity: "sesión de control", From: string(s.State), To: string(entity.ControlFinalizado)}
	}
	if s.Version != seen.Version {
		return nil, fmt.Errorf("%w: la sesión cambió durante la finalización", domain.ErrConflict)
	}
	return s, nil
}

func loadSession(ctx context.Context, repos repository.Repositories, id string) (*entity.ControlSession, error) {
	s, err := repos.Sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func motivo(l entity.ControlLineItem) string {
	if l.Observaciones != "" {
		return l.Observaciones
	}
	return defaultMotivo
}
