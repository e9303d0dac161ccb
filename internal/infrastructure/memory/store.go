// Package memory implementa los repositorios sobre mapas en memoria con control optimista:
// cada transacción acumula sus escrituras y las confirma de forma atómica validando versiones.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/inventario-engine/internal/domain"
	"github.com/jhoicas/inventario-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-engine/internal/domain/repository"
)

// table filas confirmadas de un agregado versionado.
type table[T any] struct {
	rows    map[string]*T
	version func(*T) *int64
	clone   func(*T) *T
}

func newTable[T any](version func(*T) *int64, clone func(*T) *T) *table[T] {
	return &table[T]{rows: make(map[string]*T), version: version, clone: clone}
}

// pending escritura preparada. create exige que la fila no exista al confirmar;
// si no, la versión confirmada debe seguir siendo expect.
type pending[T any] struct {
	row    *T
	expect int64
	create bool
}

// staged escrituras de una transacción sobre una tabla.
type staged[T any] struct {
	base   *table[T]
	writes map[string]*pending[T]
	order  []string
}

func newStaged[T any](base *table[T]) *staged[T] {
	return &staged[T]{base: base, writes: make(map[string]*pending[T])}
}

// get devuelve una copia: primero lo escrito en la transacción, luego lo confirmado. Requiere RLock.
func (s *staged[T]) get(key string) *T {
	if p, ok := s.writes[key]; ok {
		return s.base.clone(p.row)
	}
	if row, ok := s.base.rows[key]; ok {
		return s.base.clone(row)
	}
	return nil
}

// put prepara la escritura de row con la versión que trae (la leída) y la incrementa. Requiere RLock.
func (s *staged[T]) put(key string, row *T, create bool) error {
	v := s.base.version(row)
	if p, ok := s.writes[key]; ok {
		if *s.base.version(p.row) != *v {
			return domain.ErrStaleWrite
		}
		*v++
		p.row = s.base.clone(row)
		return nil
	}
	committed, exists := s.base.rows[key]
	switch {
	case create && exists:
		return domain.ErrStaleWrite
	case !create && (!exists || *s.base.version(committed) != *v):
		return domain.ErrStaleWrite
	}
	expect := *v
	*v++
	s.writes[key] = &pending[T]{row: s.base.clone(row), expect: expect, create: create}
	s.order = append(s.order, key)
	return nil
}

// list fusiona filas confirmadas y preparadas que cumplen keep. Requiere RLock.
func (s *staged[T]) list(keep func(*T) bool) []*T {
	var out []*T
	for key, row := range s.base.rows {
		if _, ok := s.writes[key]; ok {
			continue
		}
		if keep(row) {
			out = append(out, s.base.clone(row))
		}
	}
	for _, key := range s.order {
		row := s.writes[key].row
		if keep(row) {
			out = append(out, s.base.clone(row))
		}
	}
	return out
}

// validate comprueba que ninguna fila preparada haya cambiado desde su lectura. Requiere Lock.
func (s *staged[T]) validate() error {
	for _, key := range s.order {
		p := s.writes[key]
		committed, exists := s.base.rows[key]
		if p.create {
			if exists {
				return domain.ErrStaleWrite
			}
			continue
		}
		if !exists || *s.base.version(committed) != p.expect {
			return domain.ErrStaleWrite
		}
	}
	return nil
}

// apply publica las filas preparadas. Requiere Lock.
func (s *staged[T]) apply() {
	for _, key := range s.order {
		s.base.rows[key] = s.writes[key].row
	}
}

// Store almacén en memoria. Implementa el TxRunner de la capa de aplicación y los colaboradores
// de catálogo, sucursales y roles.
type Store struct {
	mu          sync.RWMutex
	stock       *table[entity.StockEntry]
	orders      *table[entity.ProductionOrder]
	transfers   *table[entity.Transfer]
	sessions    *table[entity.ControlSession]
	adjustments *table[entity.AdjustmentRequest]
	recipes     map[string]*entity.Recipe
	movements   []*entity.StockMovement

	products   map[string]entity.Product
	branches   map[string]entity.Branch
	privileged map[string]bool
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		stock:       newTable(func(e *entity.StockEntry) *int64 { return &e.Version }, cloneStock),
		orders:      newTable(func(o *entity.ProductionOrder) *int64 { return &o.Version }, cloneOrder),
		transfers:   newTable(func(t *entity.Transfer) *int64 { return &t.Version }, cloneTransfer),
		sessions:    newTable(func(s *entity.ControlSession) *int64 { return &s.Version }, cloneSession),
		adjustments: newTable(func(r *entity.AdjustmentRequest) *int64 { return &r.Version }, cloneAdjustment),
		recipes:     make(map[string]*entity.Recipe),
		products:    make(map[string]entity.Product),
		branches:    make(map[string]entity.Branch),
		privileged:  make(map[string]bool),
	}
}

// tx conjunto de escrituras preparadas de una transacción.
type tx struct {
	s           *Store
	stock       *staged[entity.StockEntry]
	orders      *staged[entity.ProductionOrder]
	transfers   *staged[entity.Transfer]
	sessions    *staged[entity.ControlSession]
	adjustments *staged[entity.AdjustmentRequest]
	recipes     []*entity.Recipe
	movements   []*entity.StockMovement
}

func (s *Store) begin() *tx {
	return &tx{
		s:           s,
		stock:       newStaged(s.stock),
		orders:      newStaged(s.orders),
		transfers:   newStaged(s.transfers),
		sessions:    newStaged(s.sessions),
		adjustments: newStaged(s.adjustments),
	}
}

// commit valida todas las tablas y publica las escrituras bajo un único Lock.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, validate := range []func() error{
		t.stock.validate, t.orders.validate, t.transfers.validate,
		t.sessions.validate, t.adjustments.validate, t.validateOpenSessions,
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	for _, r := range t.recipes {
		if _, ok := s.recipes[r.ID]; ok {
			return domain.Invalid("la receta %s ya existe", r.ID)
		}
	}
	t.stock.apply()
	t.orders.apply()
	t.transfers.apply()
	t.sessions.apply()
	t.adjustments.apply()
	for _, r := range t.recipes {
		s.recipes[r.ID] = r
	}
	s.movements = append(s.movements, t.movements...)
	return nil
}

// validateOpenSessions mantiene como máximo una sesión en proceso por sucursal. Requiere Lock.
func (t *tx) validateOpenSessions() error {
	for _, key := range t.sessions.order {
		row := t.sessions.writes[key].row
		if row.State != entity.ControlEnProceso {
			continue
		}
		for id, other := range t.s.sessions.rows {
			if id != row.ID && other.BranchID == row.BranchID && other.State == entity.ControlEnProceso {
				if _, rewritten := t.sessions.writes[id]; !rewritten {
					return openSessionError()
				}
			}
		}
	}
	return nil
}

func openSessionError() error {
	return &domain.TransitionError{Entity: "sesión de control", From: string(entity.ControlEnProceso), To: "abrir otra sesión"}
}

// Run ejecuta fn con repositorios atados a una transacción y confirma si fn no falla.
// Una escritura concurrente detectada al confirmar devuelve domain.ErrStaleWrite.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.begin()
	if err := fn(newRepositories(bound{t})); err != nil {
		return err
	}
	return t.commit()
}

// Repositories devuelve repositorios fuera de transacción: cada escritura se confirma al instante.
func (s *Store) Repositories() repository.Repositories {
	return newRepositories(autocommit{s})
}

// scope decide si una operación usa la transacción en curso o una propia que se confirma al terminar.
type scope interface {
	open() *tx
	close(t *tx) error
}

type bound struct{ t *tx }

func (b bound) open() *tx         { return b.t }
func (b bound) close(_ *tx) error { return nil }

type autocommit struct{ s *Store }

func (a autocommit) open() *tx         { return a.s.begin() }
func (a autocommit) close(t *tx) error { return t.commit() }

func newRepositories(sc scope) repository.Repositories {
	return repository.Repositories{
		Stock:       &stockRepo{sc: sc},
		Movements:   &movementRepo{sc: sc},
		Recipes:     &recipeRepo{sc: sc},
		Orders:      &orderRepo{sc: sc},
		Transfers:   &transferRepo{sc: sc},
		Sessions:    &sessionRepo{sc: sc},
		Adjustments: &adjustmentRepo{sc: sc},
	}
}

// read ejecuta fn sobre la transacción del scope con RLock tomado.
func read[R any](sc scope, fn func(t *tx) R) R {
	t := sc.open()
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return fn(t)
}

// write prepara la escritura con RLock y la confirma si el scope es autocommit.
func write(sc scope, fn func(t *tx) error) error {
	t := sc.open()
	t.s.mu.RLock()
	err := fn(t)
	t.s.mu.RUnlock()
	if err != nil {
		return err
	}
	return sc.close(t)
}

func sortByCreation[T any](list []*T, created func(*T) (int64, string)) {
	sort.Slice(list, func(i, j int) bool {
		ti, idi := created(list[i])
		tj, idj := created(list[j])
		if ti != tj {
			return ti < tj
		}
		return idi < idj
	})
}
