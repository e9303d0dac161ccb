package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

func stockKey(branchID, productID string) string {
	return branchID + "\x00" + productID
}

type stockRepo struct{ sc scope }

func (r *stockRepo) Get(_ context.Context, branchID, productID string) (*entity.StockEntry, error) {
	e := read(r.sc, func(t *tx) *entity.StockEntry { return t.stock.get(stockKey(branchID, productID)) })
	if e == nil {
		e = &entity.StockEntry{
			BranchID:        branchID,
			ProductID:       productID,
			Quantity:        decimal.Zero,
			MinimumQuantity: decimal.Zero,
		}
	}
	return e, nil
}

func (r *stockRepo) ListByBranch(_ context.Context, branchID string) ([]*entity.StockEntry, error) {
	return r.list(func(e *entity.StockEntry) bool { return e.BranchID == branchID }), nil
}

func (r *stockRepo) ListLow(_ context.Context, branchID string) ([]*entity.StockEntry, error) {
	return r.list(func(e *entity.StockEntry) bool { return e.BranchID == branchID && e.IsLow() }), nil
}

func (r *stockRepo) list(keep func(*entity.StockEntry) bool) []*entity.StockEntry {
	out := read(r.sc, func(t *tx) []*entity.StockEntry { return t.stock.list(keep) })
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (r *stockRepo) Save(_ context.Context, stock *entity.StockEntry) error {
	return write(r.sc, func(t *tx) error {
		return t.stock.put(stockKey(stock.BranchID, stock.ProductID), stock, stock.Version == 0)
	})
}

type movementRepo struct{ sc scope }

func (r *movementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	return write(r.sc, func(t *tx) error {
		cp := *m
		t.movements = append(t.movements, &cp)
		return nil
	})
}

func (r *movementRepo) ListBySource(_ context.Context, sourceType entity.SourceType, sourceID string) ([]*entity.StockMovement, error) {
	return r.list(func(m *entity.StockMovement) bool {
		return m.SourceType == sourceType && m.SourceID == sourceID
	}), nil
}

func (r *movementRepo) ListByBranch(_ context.Context, branchID string, limit, offset int) ([]*entity.StockMovement, error) {
	all := r.list(func(m *entity.StockMovement) bool { return m.BranchID == branchID })
	// Más recientes primero.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if offset >= len(all) {
		return []*entity.StockMovement{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (r *movementRepo) list(keep func(*entity.StockMovement) bool) []*entity.StockMovement {
	return read(r.sc, func(t *tx) []*entity.StockMovement {
		out := []*entity.StockMovement{}
		for _, group := range [][]*entity.StockMovement{t.s.movements, t.movements} {
			for _, m := range group {
				if keep(m) {
					cp := *m
					out = append(out, &cp)
				}
			}
		}
		return out
	})
}

type recipeRepo struct{ sc scope }

func (r *recipeRepo) Create(_ context.Context, recipe *entity.Recipe) error {
	return write(r.sc, func(t *tx) error {
		if _, ok := t.s.recipes[recipe.ID]; ok {
			return fmt.Errorf("receta %s duplicada", recipe.ID)
		}
		t.recipes = append(t.recipes, cloneRecipe(recipe))
		return nil
	})
}

func (r *recipeRepo) GetByID(_ context.Context, id string) (*entity.Recipe, error) {
	return read(r.sc, func(t *tx) *entity.Recipe {
		for _, staged := range t.recipes {
			if staged.ID == id {
				return cloneRecipe(staged)
			}
		}
		if recipe, ok := t.s.recipes[id]; ok {
			return cloneRecipe(recipe)
		}
		return nil
	}), nil
}

type orderRepo struct{ sc scope }

func (r *orderRepo) Create(_ context.Context, o *entity.ProductionOrder) error {
	return write(r.sc, func(t *tx) error { return t.orders.put(o.ID, o, true) })
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.ProductionOrder, error) {
	return read(r.sc, func(t *tx) *entity.ProductionOrder { return t.orders.get(id) }), nil
}

func (r *orderRepo) Update(_ context.Context, o *entity.ProductionOrder) error {
	return write(r.sc, func(t *tx) error { return t.orders.put(o.ID, o, false) })
}

func (r *orderRepo) ListByState(_ context.Context, state entity.ProductionState) ([]*entity.ProductionOrder, error) {
	out := read(r.sc, func(t *tx) []*entity.ProductionOrder {
		return t.orders.list(func(o *entity.ProductionOrder) bool { return o.State == state })
	})
	sortByCreation(out, func(o *entity.ProductionOrder) (int64, string) { return o.CreatedAt.UnixNano(), o.ID })
	return out, nil
}

type transferRepo struct{ sc scope }

func (r *transferRepo) Create(_ context.Context, tr *entity.Transfer) error {
	return write(r.sc, func(t *tx) error { return t.transfers.put(tr.ID, tr, true) })
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	return read(r.sc, func(t *tx) *entity.Transfer { return t.transfers.get(id) }), nil
}

func (r *transferRepo) Update(_ context.Context, tr *entity.Transfer) error {
	return write(r.sc, func(t *tx) error { return t.transfers.put(tr.ID, tr, false) })
}

func (r *transferRepo) ListByState(_ context.Context, state entity.TransferState) ([]*entity.Transfer, error) {
	out := read(r.sc, func(t *tx) []*entity.Transfer {
		return t.transfers.list(func(tr *entity.Transfer) bool { return tr.State == state })
	})
	sortByCreation(out, func(tr *entity.Transfer) (int64, string) { return tr.CreatedAt.UnixNano(), tr.ID })
	return out, nil
}

type sessionRepo struct{ sc scope }

func (r *sessionRepo) Create(_ context.Context, s *entity.ControlSession) error {
	return write(r.sc, func(t *tx) error {
		open := t.sessions.list(func(o *entity.ControlSession) bool {
			return o.BranchID == s.BranchID && o.State == entity.ControlEnProceso
		})
		if len(open) > 0 && s.State == entity.ControlEnProceso {
			return openSessionError()
		}
		return t.sessions.put(s.ID, s, true)
	})
}

func (r *sessionRepo) GetByID(_ context.Context, id string) (*entity.ControlSession, error) {
	return read(r.sc, func(t *tx) *entity.ControlSession { return t.sessions.get(id) }), nil
}

func (r *sessionRepo) Update(_ context.Context, s *entity.ControlSession) error {
	return write(r.sc, func(t *tx) error { return t.sessions.put(s.ID, s, false) })
}

func (r *sessionRepo) FindOpenByBranch(_ context.Context, branchID string) (*entity.ControlSession, error) {
	open := read(r.sc, func(t *tx) []*entity.ControlSession {
		return t.sessions.list(func(s *entity.ControlSession) bool {
			return s.BranchID == branchID && s.State == entity.ControlEnProceso
		})
	})
	if len(open) == 0 {
		return nil, nil
	}
	return open[0], nil
}

type adjustmentRepo struct{ sc scope }

func (r *adjustmentRepo) Create(_ context.Context, req *entity.AdjustmentRequest) error {
	return write(r.sc, func(t *tx) error { return t.adjustments.put(req.ID, req, true) })
}

func (r *adjustmentRepo) GetByID(_ context.Context, id string) (*entity.AdjustmentRequest, error) {
	return read(r.sc, func(t *tx) *entity.AdjustmentRequest { return t.adjustments.get(id) }), nil
}

func (r *adjustmentRepo) Update(_ context.Context, req *entity.AdjustmentRequest) error {
	return write(r.sc, func(t *tx) error { return t.adjustments.put(req.ID, req, false) })
}

func (r *adjustmentRepo) ListByState(_ context.Context, state entity.AdjustmentState) ([]*entity.AdjustmentRequest, error) {
	out := read(r.sc, func(t *tx) []*entity.AdjustmentRequest {
		return t.adjustments.list(func(req *entity.AdjustmentRequest) bool { return req.State == state })
	})
	sortByCreation(out, func(req *entity.AdjustmentRequest) (int64, string) { return req.CreatedAt.UnixNano(), req.ID })
	return out, nil
}

func cloneStock(e *entity.StockEntry) *entity.StockEntry {
	cp := *e
	return &cp
}

func cloneOrder(o *entity.ProductionOrder) *entity.ProductionOrder {
	cp := *o
	if o.CompletedAt != nil {
		at := *o.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

func cloneTransfer(t *entity.Transfer) *entity.Transfer {
	cp := *t
	cp.Lines = append([]entity.TransferLine(nil), t.Lines...)
	return &cp
}

func cloneSession(s *entity.ControlSession) *entity.ControlSession {
	cp := *s
	cp.Lines = append([]entity.ControlLineItem(nil), s.Lines...)
	if s.FinalizedAt != nil {
		at := *s.FinalizedAt
		cp.FinalizedAt = &at
	}
	return &cp
}

func cloneAdjustment(r *entity.AdjustmentRequest) *entity.AdjustmentRequest {
	cp := *r
	cp.Lines = append([]entity.AdjustmentLine(nil), r.Lines...)
	return &cp
}

func cloneRecipe(r *entity.Recipe) *entity.Recipe {
	cp := *r
	cp.Lines = append([]entity.RecipeLine(nil), r.Lines...)
	return &cp
}
