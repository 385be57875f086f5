package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/currency"
)

// Service owns users' portfolios. All balance mutation flows through Update
// so the non-negative invariant and write serialization hold everywhere.
type Service struct {
	store           Store
	baseCurrency    string
	startingBalance decimal.Decimal
}

// NewService builds the portfolio service. New portfolios are seeded with
// startingBalance in baseCurrency when the balance is positive.
func NewService(store Store, baseCurrency string, startingBalance decimal.Decimal) *Service {
	return &Service{
		store:           store,
		baseCurrency:    currency.Normalize(baseCurrency),
		startingBalance: startingBalance,
	}
}

// Portfolio returns a copy of the user's portfolio.
func (s *Service) Portfolio(ctx context.Context, userID string) (*Portfolio, error) {
	return s.store.Get(ctx, userID)
}

// CreateEmpty provisions a portfolio for a newly registered user, seeded with
// the configured starting balance. It is idempotent: an existing portfolio is
// left untouched, which also lets startup repair users that lost their
// portfolio to a crash mid-registration.
func (s *Service) CreateEmpty(ctx context.Context, userID string) error {
	if _, err := s.store.Get(ctx, userID); err == nil {
		return nil
	} else if !errors.Is(err, ErrPortfolioNotFound) {
		return err
	}

	p := NewPortfolio(userID)
	if s.startingBalance.Sign() > 0 {
		if err := p.Wallet(s.baseCurrency).Deposit(s.startingBalance); err != nil {
			return fmt.Errorf("seed starting balance: %w", err)
		}
	}
	return s.store.Create(ctx, p)
}

// Update runs fn against the user's portfolio under the store's writer lock
// and persists the result atomically. Any error from fn discards the
// mutation entirely.
func (s *Service) Update(ctx context.Context, userID string, fn func(*Portfolio) error) error {
	return s.store.Update(ctx, userID, fn)
}
