package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
)

var (
	_ repository.ProductionOrderRepository   = (*ProductionOrderRepo)(nil)
	_ repository.TransferRepository          = (*TransferRepo)(nil)
	_ repository.ControlSessionRepository    = (*ControlSessionRepo)(nil)
	_ repository.AdjustmentRequestRepository = (*AdjustmentRequestRepo)(nil)
)

// ──────────────────────────────────────────────────────────────────────────────
// Órdenes de producción
// ──────────────────────────────────────────────────────────────────────────────

// ProductionOrderRepo órdenes de producción sobre PostgreSQL.
type ProductionOrderRepo struct {
	q Querier
}

// NewProductionOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionOrderRepository(q Querier) *ProductionOrderRepo {
	return &ProductionOrderRepo{q: q}
}

const orderColumns = `id, recipe_id, branch_id, quantity, state,
	costo_materias_primas, costo_mano_obra, costo_adicional, costo_total, costo_unitario,
	created_by, created_at, updated_at, completed_at, version`

// Create persiste la orden con versión 1.
func (r *ProductionOrderRepo) Create(ctx context.Context, o *entity.ProductionOrder) error {
	query := `INSERT INTO production_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.RecipeID, o.BranchID, o.Quantity, string(o.State),
		o.Costs.MateriasPrimas, o.Costs.ManoObra, o.Costs.Adicional, o.Costs.Total, o.Costs.Unitario,
		o.CreatedBy, o.CreatedAt, o.UpdatedAt, o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert production order: %w", err)
	}
	o.Version = 1
	return nil
}

// GetByID obtiene una orden; (nil, nil) si no existe.
func (r *ProductionOrderRepo) GetByID(ctx context.Context, id string) (*entity.ProductionOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM production_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get production order: %w", err)
	}
	return o, nil
}

// Update escribe estado y costos si la versión no cambió.
func (r *ProductionOrderRepo) Update(ctx context.Context, o *entity.ProductionOrder) error {
	query := `
		UPDATE production_orders SET state = $2,
			costo_materias_primas = $3, costo_mano_obra = $4, costo_adicional = $5,
			costo_total = $6, costo_unitario = $7, updated_at = $8, completed_at = $9,
			version = version + 1
		WHERE id = $1 AND version = $10`
	tag, err := r.q.Exec(ctx, query,
		o.ID, string(o.State),
		o.Costs.MateriasPrimas, o.Costs.ManoObra, o.Costs.Adicional, o.Costs.Total, o.Costs.Unitario,
		o.UpdatedAt, o.CompletedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("update production order: %w", err)
	}
	return updated(tag.RowsAffected(), &o.Version)
}

// ListByState lista las órdenes en un estado, más antiguas primero.
func (r *ProductionOrderRepo) ListByState(ctx context.Context, state entity.ProductionState) ([]*entity.ProductionOrder, error) {
	rows, err := r.q.Query(ctx, `SELECT `+orderColumns+` FROM production_orders WHERE state = $1 ORDER BY created_at, id`, string(state))
	if err != nil {
		return nil, fmt.Errorf("list production orders: %w", err)
	}
	defer rows.Close()
	list := []*entity.ProductionOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan production order: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func scanOrder(row pgx.Row) (*entity.ProductionOrder, error) {
	var o entity.ProductionOrder
	var state string
	if err := row.Scan(&o.ID, &o.RecipeID, &o.BranchID, &o.Quantity, &state,
		&o.Costs.MateriasPrimas, &o.Costs.ManoObra, &o.Costs.Adicional, &o.Costs.Total, &o.Costs.Unitario,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt, &o.Version); err != nil {
		return nil, err
	}
	o.State = entity.ProductionState(state)
	return &o, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

// TransferRepo traslados sobre PostgreSQL; las líneas se guardan en JSONB.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, origin_branch_id, destination_branch_id, lines, state, motivo_rechazo,
	created_by, resolved_by, created_at, updated_at, version`

// Create persiste el traslado con versión 1.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	lines, err := marshalLines(t.Lines)
	if err != nil {
		return err
	}
	query := `INSERT INTO transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)`
	_, err = r.q.Exec(ctx, query,
		t.ID, t.OriginBranchID, t.DestinationBranchID, lines, string(t.State), t.MotivoRechazo,
		t.CreatedBy, t.ResolvedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	t.Version = 1
	return nil
}

// GetByID obtiene un traslado; (nil, nil) si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	return t, nil
}

// Update escribe estado y resolución si la versión no cambió.
func (r *TransferRepo) Update(ctx context.Context, t *entity.Transfer) error {
	query := `
		UPDATE transfers SET state = $2, motivo_rechazo = $3, resolved_by = $4, updated_at = $5,
			version = version + 1
		WHERE id = $1 AND version = $6`
	tag, err := r.q.Exec(ctx, query, t.ID, string(t.State), t.MotivoRechazo, t.ResolvedBy, t.UpdatedAt, t.Version)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	return updated(tag.RowsAffected(), &t.Version)
}

// ListByState lista los traslados en un estado, más antiguos primero.
func (r *TransferRepo) ListByState(ctx context.Context, state entity.TransferState) ([]*entity.Transfer, error) {
	rows, err := r.q.Query(ctx, `SELECT `+transferColumns+` FROM transfers WHERE state = $1 ORDER BY created_at, id`, string(state))
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	list := []*entity.Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func scanTransfer(row pgx.Row) (*entity.Transfer, error) {
	var t entity.Transfer
	var raw []byte
	var state string
	if err := row.Scan(&t.ID, &t.OriginBranchID, &t.DestinationBranchID, &raw, &state, &t.MotivoRechazo,
		&t.CreatedBy, &t.ResolvedBy, &t.CreatedAt, &t.UpdatedAt, &t.Version); err != nil {
		return nil, err
	}
	lines, err := unmarshalLines[entity.TransferLine](raw)
	if err != nil {
		return nil, err
	}
	t.Lines = lines
	t.State = entity.TransferState(state)
	return &t, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Sesiones de control
// ──────────────────────────────────────────────────────────────────────────────

// ControlSessionRepo sesiones de control sobre PostgreSQL. Un índice único parcial impide
// dos sesiones en proceso para la misma sucursal.
type ControlSessionRepo struct {
	q Querier
}

// NewControlSessionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewControlSessionRepository(q Querier) *ControlSessionRepo {
	return &ControlSessionRepo{q: q}
}

const sessionColumns = `id, branch_id, state, lines, ajustes_aplicados, adjustment_request_id,
	created_by, finalized_by, created_at, updated_at, finalized_at, version`

// Create persiste la sesión con versión 1.
func (r *ControlSessionRepo) Create(ctx context.Context, s *entity.ControlSession) error {
	lines, err := marshalLines(s.Lines)
	if err != nil {
		return err
	}
	query := `INSERT INTO control_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)`
	_, err = r.q.Exec(ctx, query,
		s.ID, s.BranchID, string(s.State), lines, s.AjustesAplicados, s.AdjustmentRequestID,
		s.CreatedBy, s.FinalizedBy, s.CreatedAt, s.UpdatedAt, s.FinalizedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.TransitionError{Entity: "sesión de control", From: string(entity.ControlEnProceso), To: "abrir otra sesión"}
		}
		return fmt.Errorf("insert control session: %w", err)
	}
	s.Version = 1
	return nil
}

// GetByID obtiene una sesión; (nil, nil) si no existe.
func (r *ControlSessionRepo) GetByID(ctx context.Context, id string) (*entity.ControlSession, error) {
	return r.one(ctx, `SELECT `+sessionColumns+` FROM control_sessions WHERE id = $1`, id)
}

// FindOpenByBranch devuelve la sesión en proceso de la sucursal o (nil, nil).
func (r *ControlSessionRepo) FindOpenByBranch(ctx context.Context, branchID string) (*entity.ControlSession, error) {
	return r.one(ctx, `SELECT `+sessionColumns+` FROM control_sessions WHERE branch_id = $1 AND state = $2`,
		branchID, string(entity.ControlEnProceso))
}

func (r *ControlSessionRepo) one(ctx context.Context, query string, args ...any) (*entity.ControlSession, error) {
	s, err := scanSession(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get control session: %w", err)
	}
	return s, nil
}

// Update escribe líneas y estado si la versión no cambió.
func (r *ControlSessionRepo) Update(ctx context.Context, s *entity.ControlSession) error {
	lines, err := marshalLines(s.Lines)
	if err != nil {
		return err
	}
	query := `
		UPDATE control_sessions SET state = $2, lines = $3, ajustes_aplicados = $4, adjustment_request_id = $5,
			finalized_by = $6, updated_at = $7, finalized_at = $8, version = version + 1
		WHERE id = $1 AND version = $9`
	tag, err := r.q.Exec(ctx, query,
		s.ID, string(s.State), lines, s.AjustesAplicados, s.AdjustmentRequestID,
		s.FinalizedBy, s.UpdatedAt, s.FinalizedAt, s.Version,
	)
	if err != nil {
		return fmt.Errorf("update control session: %w", err)
	}
	return updated(tag.RowsAffected(), &s.Version)
}

func scanSession(row pgx.Row) (*entity.ControlSession, error) {
	var s entity.ControlSession
	var raw []byte
	var state string
	if err := row.Scan(&s.ID, &s.BranchID, &state, &raw, &s.AjustesAplicados, &s.AdjustmentRequestID,
		&s.CreatedBy, &s.FinalizedBy, &s.CreatedAt, &s.UpdatedAt, &s.FinalizedAt, &s.Version); err != nil {
		return nil, err
	}
	lines, err := unmarshalLines[entity.ControlLineItem](raw)
	if err != nil {
		return nil, err
	}
	s.Lines = lines
	s.State = entity.ControlState(state)
	return &s, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Solicitudes de ajuste
// ──────────────────────────────────────────────────────────────────────────────

// AdjustmentRequestRepo solicitudes de ajuste sobre PostgreSQL.
type AdjustmentRequestRepo struct {
	q Querier
}

// NewAdjustmentRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRequestRepository(q Querier) *AdjustmentRequestRepo {
	return &AdjustmentRequestRepo{q: q}
}

const adjustmentColumns = `id, session_id, lines, state, motivo_rechazo, requested_by, resolved_by,
	created_at, updated_at, version`

// Create persiste la solicitud con versión 1.
func (r *AdjustmentRequestRepo) Create(ctx context.Context, req *entity.AdjustmentRequest) error {
	lines, err := marshalLines(req.Lines)
	if err != nil {
		return err
	}
	query := `INSERT INTO adjustment_requests (` + adjustmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)`
	_, err = r.q.Exec(ctx, query,
		req.ID, req.SessionID, lines, string(req.State), req.MotivoRechazo, req.RequestedBy, req.ResolvedBy,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert adjustment request: %w", err)
	}
	req.Version = 1
	return nil
}

// GetByID obtiene una solicitud; (nil, nil) si no existe.
func (r *AdjustmentRequestRepo) GetByID(ctx context.Context, id string) (*entity.AdjustmentRequest, error) {
	req, err := scanAdjustment(r.q.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM adjustment_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get adjustment request: %w", err)
	}
	return req, nil
}

// Update escribe estado y resolución si la versión no cambió.
func (r *AdjustmentRequestRepo) Update(ctx context.Context, req *entity.AdjustmentRequest) error {
	query := `
		UPDATE adjustment_requests SET state = $2, motivo_rechazo = $3, resolved_by = $4, updated_at = $5,
			version = version + 1
		WHERE id = $1 AND version = $6`
	tag, err := r.q.Exec(ctx, query, req.ID, string(req.State), req.MotivoRechazo, req.ResolvedBy, req.UpdatedAt, req.Version)
	if err != nil {
		return fmt.Errorf("update adjustment request: %w", err)
	}
	return updated(tag.RowsAffected(), &req.Version)
}

// ListByState lista las solicitudes en un estado, más antiguas primero.
func (r *AdjustmentRequestRepo) ListByState(ctx context.Context, state entity.AdjustmentState) ([]*entity.AdjustmentRequest, error) {
	rows, err := r.q.Query(ctx, `SELECT `+adjustmentColumns+` FROM adjustment_requests WHERE state = $1 ORDER BY created_at, id`, string(state))
	if err != nil {
		return nil, fmt.Errorf("list adjustment requests: %w", err)
	}
	defer rows.Close()
	list := []*entity.AdjustmentRequest{}
	for rows.Next() {
		req, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment request: %w", err)
		}
		list = append(list, req)
	}
	return list, rows.Err()
}

func scanAdjustment(row pgx.Row) (*entity.AdjustmentRequest, error) {
	var req entity.AdjustmentRequest
	var raw []byte
	var state string
	if err := row.Scan(&req.ID, &req.SessionID, &raw, &state, &req.MotivoRechazo, &req.RequestedBy, &req.ResolvedBy,
		&req.CreatedAt, &req.UpdatedAt, &req.Version); err != nil {
		return nil, err
	}
	lines, err := unmarshalLines[entity.AdjustmentLine](raw)
	if err != nil {
		return nil, err
	}
	req.Lines = lines
	req.State = entity.AdjustmentState(state)
	return &req, nil
}
