package memory

import (
	"context"

	"github.com/jhoicas/inventario-engine/internal/domain/entity"
)

// AddProduct registra un producto en el catálogo en memoria.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddBranch registra una sucursal.
func (s *Store) AddBranch(b entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = b
}

// SetPrivileged marca (o desmarca) a un usuario como privilegiado.
func (s *Store) SetPrivileged(userID string, privileged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.privileged[userID] = privileged
}

// GetProduct implementa ports.ProductCatalog.
func (s *Store) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetBranch implementa ports.BranchDirectory.
func (s *Store) GetBranch(_ context.Context, id string) (*entity.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.branches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// IsPrivileged implementa ports.RoleService.
func (s *Store) IsPrivileged(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.privileged[userID], nil
}
