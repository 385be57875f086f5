package valuation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/currency"
	"github.com/valutatrade/valutatrade/internal/ledger"
	"github.com/valutatrade/valutatrade/internal/rates"
)

// ErrRateUnavailable fails a strict valuation when any held currency cannot
// be priced against the base.
var ErrRateUnavailable = errors.New("rate unavailable for valuation")

// Policy decides how a missing or stale rate affects the total.
type Policy string

const (
	// PolicyPartial excludes unpriced wallets from the total and reports
	// them in the breakdown. Meant for interactive display, where a partial
	// result beats none.
	PolicyPartial Policy = "partial"
	// PolicyStrict fails the whole valuation on the first unpriced wallet.
	// Required for any computation that feeds a financial decision.
	PolicyStrict Policy = "strict"
)

// ParsePolicy resolves a policy name. Callers must always choose one; there
// is no implicit default.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyPartial, PolicyStrict:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown valuation policy %q", s)
	}
}

// Line values one wallet in the base currency.
type Line struct {
	Currency string
	Balance  decimal.Decimal
	Rate     decimal.Decimal
	Value    decimal.Decimal
	Priced   bool
}

// Breakdown is the result of valuing a portfolio.
type Breakdown struct {
	Base  string
	Total decimal.Decimal
	Lines []Line
	AsOf  time.Time
}

// Calculator computes portfolio totals from cached rates.
type Calculator struct {
	portfolios *ledger.Service
	cache      *rates.Cache
	registry   *currency.Registry
}

// NewCalculator builds a valuation calculator.
func NewCalculator(portfolios *ledger.Service, cache *rates.Cache, registry *currency.Registry) *Calculator {
	return &Calculator{portfolios: portfolios, cache: cache, registry: registry}
}

// TotalValue values the user's portfolio in the base currency under the given
// policy. Wallets are reported in stable currency order.
func (c *Calculator) TotalValue(ctx context.Context, userID, base string, policy Policy) (Breakdown, error) {
	if _, err := c.registry.Get(base); err != nil {
		return Breakdown{}, err
	}
	base = currency.Normalize(base)

	p, err := c.portfolios.Portfolio(ctx, userID)
	if err != nil {
		return Breakdown{}, err
	}

	codes := make([]string, 0, len(p.Wallets))
	for code := range p.Wallets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	breakdown := Breakdown{Base: base, Total: decimal.Zero, AsOf: time.Now().UTC()}
	for _, code := range codes {
		w := p.Wallets[code]
		line := Line{Currency: code, Balance: w.Balance}

		if code == base {
			line.Rate = decimal.NewFromInt(1)
			line.Value = w.Balance
			line.Priced = true
		} else {
			pair, err := c.cache.Rate(code, base)
			switch {
			case err == nil:
				line.Rate = pair.Rate
				line.Value = w.Balance.Mul(pair.Rate)
				line.Priced = true
			case errors.Is(err, rates.ErrNotFound) || errors.Is(err, rates.ErrStale):
				if policy == PolicyStrict {
					return Breakdown{}, fmt.Errorf("%w: %w", ErrRateUnavailable, err)
				}
			default:
				return Breakdown{}, err
			}
		}

		if line.Priced {
			breakdown.Total = breakdown.Total.Add(line.Value)
		}
		breakdown.Lines = append(breakdown.Lines, line)
	}
	return breakdown, nil
}
