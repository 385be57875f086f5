package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/currency"
	"github.com/valutatrade/valutatrade/internal/ledger"
	"github.com/valutatrade/valutatrade/internal/rates"
)

var (
	// ErrInvalidAmount rejects zero, negative or missing trade amounts.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrBaseCurrencyTrade rejects trading the base currency against itself.
	ErrBaseCurrencyTrade = errors.New("cannot trade the base currency")
	// ErrRateUnavailable wraps a missing or stale rate. A trade never
	// proceeds on synthetic or outdated data.
	ErrRateUnavailable = errors.New("rate unavailable")
)

// Engine executes buy and sell operations against user portfolios. Every
// purchase is funded by the base-currency wallet and every sale credits it,
// at the cached rate; both wallet deltas apply and persist as one atomic
// unit through the ledger.
type Engine struct {
	portfolios *ledger.Service
	cache      *rates.Cache
	registry   *currency.Registry
	base       string
	logger     *slog.Logger
}

// NewEngine builds a transaction engine trading against the base currency.
func NewEngine(portfolios *ledger.Service, cache *rates.Cache, registry *currency.Registry, base string, logger *slog.Logger) *Engine {
	return &Engine{
		portfolios: portfolios,
		cache:      cache,
		registry:   registry,
		base:       currency.Normalize(base),
		logger:     logger,
	}
}

// Result describes a completed trade.
type Result struct {
	Currency    string
	Amount      decimal.Decimal
	Rate        decimal.Decimal
	NewBalance  decimal.Decimal
	BaseBalance decimal.Decimal
	CompletedAt time.Time
}

func (e *Engine) validate(code string, amount decimal.Decimal) (currency.Currency, error) {
	if amount.Sign() <= 0 {
		return currency.Currency{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	cur, err := e.registry.Get(code)
	if err != nil {
		return currency.Currency{}, err
	}
	if cur.Code == e.base {
		return currency.Currency{}, fmt.Errorf("%w: %s", ErrBaseCurrencyTrade, e.base)
	}
	return cur, nil
}

func (e *Engine) resolveRate(from, to string) (rates.Pair, error) {
	pair, err := e.cache.Rate(from, to)
	if err != nil {
		if errors.Is(err, rates.ErrNotFound) || errors.Is(err, rates.ErrStale) {
			return rates.Pair{}, fmt.Errorf("%w: %w", ErrRateUnavailable, err)
		}
		return rates.Pair{}, err
	}
	return pair, nil
}

// Buy purchases amount units of code, debiting the base-currency wallet by
// amount divided by the cached base→code rate.
func (e *Engine) Buy(ctx context.Context, userID, code string, amount decimal.Decimal) (Result, error) {
	cur, err := e.validate(code, amount)
	if err != nil {
		return Result{}, err
	}

	pair, err := e.resolveRate(e.base, cur.Code)
	if err != nil {
		return Result{}, err
	}
	cost := amount.Div(pair.Rate)

	var result Result
	err = e.portfolios.Update(ctx, userID, func(p *ledger.Portfolio) error {
		funding := p.Wallet(e.base)
		target := p.Wallet(cur.Code)
		if err := funding.Withdraw(cost); err != nil {
			return err
		}
		if err := target.Deposit(amount); err != nil {
			return err
		}
		result = Result{
			Currency:    cur.Code,
			Amount:      amount,
			Rate:        pair.Rate,
			NewBalance:  target.Balance,
			BaseBalance: funding.Balance,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	result.CompletedAt = time.Now().UTC()
	e.logger.Info("buy completed",
		slog.String("user_id", userID),
		slog.String("currency", cur.Code),
		slog.String("amount", amount.String()),
		slog.String("cost", cost.String()),
		slog.String("rate", pair.Rate.String()),
	)
	return result, nil
}

// Sell disposes of amount units of code, crediting the base-currency wallet
// with amount multiplied by the cached code→base rate.
func (e *Engine) Sell(ctx context.Context, userID, code string, amount decimal.Decimal) (Result, error) {
	cur, err := e.validate(code, amount)
	if err != nil {
		return Result{}, err
	}

	pair, err := e.resolveRate(cur.Code, e.base)
	if err != nil {
		return Result{}, err
	}
	proceeds := amount.Mul(pair.Rate)

	var result Result
	err = e.portfolios.Update(ctx, userID, func(p *ledger.Portfolio) error {
		source := p.Wallet(cur.Code)
		base := p.Wallet(e.base)
		if err := source.Withdraw(amount); err != nil {
			return err
		}
		if err := base.Deposit(proceeds); err != nil {
			return err
		}
		result = Result{
			Currency:    cur.Code,
			Amount:      amount,
			Rate:        pair.Rate,
			NewBalance:  source.Balance,
			BaseBalance: base.Balance,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	result.CompletedAt = time.Now().UTC()
	e.logger.Info("sell completed",
		slog.String("user_id", userID),
		slog.String("currency", cur.Code),
		slog.String("amount", amount.String()),
		slog.String("proceeds", proceeds.String()),
		slog.String("rate", pair.Rate.String()),
	)
	return result, nil
}
