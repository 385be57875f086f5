package ledger

import (
	"context"
	"fmt"
	"sync"
)

type memoryStore struct {
	mu         sync.Mutex
	portfolios map[string]*Portfolio
}

// NewMemoryStore builds an in-memory portfolio store for tests.
func NewMemoryStore() Store {
	return &memoryStore{portfolios: make(map[string]*Portfolio)}
}

func (s *memoryStore) Get(_ context.Context, userID string) (*Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrPortfolioNotFound, userID)
	}
	return p.Clone(), nil
}

func (s *memoryStore) Create(_ context.Context, p *Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.portfolios[p.UserID]; exists {
		return fmt.Errorf("portfolio for user %s already exists", p.UserID)
	}
	s.portfolios[p.UserID] = p.Clone()
	return nil
}

func (s *memoryStore) Update(_ context.Context, userID string, fn func(*Portfolio) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.portfolios[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", ErrPortfolioNotFound, userID)
	}

	next := p.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.portfolios[userID] = next
	return nil
}
