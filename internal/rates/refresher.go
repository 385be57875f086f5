package rates

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/currency"
)

// Refresher pulls fresh quotes from the provider and commits them into the
// cache as one snapshot of direct and inverse pairs.
type Refresher struct {
	provider Provider
	cache    *Cache
	history  *HistoryLog
	base     string
	basket   []string
	logger   *slog.Logger
	now      func() time.Time
}

// NewRefresher builds a refresher for the given basket against the base
// currency. history may be nil to disable audit logging.
func NewRefresher(provider Provider, cache *Cache, history *HistoryLog, base string, basket []string, logger *slog.Logger) *Refresher {
	return &Refresher{
		provider: provider,
		cache:    cache,
		history:  history,
		base:     currency.Normalize(base),
		basket:   basket,
		logger:   logger,
		now:      time.Now,
	}
}

// Refresh fetches quotes for the basket and replaces the cache snapshot. For
// every quote q it writes base→code at q and code→base at 1/q, all sharing
// one observation timestamp. Returns the number of pairs committed.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	quotes, err := r.provider.Fetch(ctx, r.base, r.basket)
	if err != nil {
		return 0, err
	}

	refreshedAt := r.now().UTC()
	source := r.provider.Source()
	one := decimal.NewFromInt(1)

	pairs := make(map[string]Pair, 2*len(quotes))
	for code, rate := range quotes {
		code = currency.Normalize(code)
		if code == r.base {
			continue
		}
		if rate.Sign() <= 0 {
			return 0, fmt.Errorf("%w: non-positive quote %s for %s", ErrProviderRequest, rate, code)
		}
		pairs[PairKey(r.base, code)] = Pair{Rate: rate, ObservedAt: refreshedAt, Source: source}
		pairs[PairKey(code, r.base)] = Pair{Rate: one.Div(rate), ObservedAt: refreshedAt, Source: source}
	}

	// A fetch that yields nothing usable must not replace the snapshot:
	// committing an empty map would discard every pair that is still fresh.
	if len(pairs) == 0 {
		return 0, fmt.Errorf("%w: provider returned no usable quotes for %s", ErrProviderRequest, r.base)
	}

	if err := r.cache.PutSnapshot(pairs, refreshedAt); err != nil {
		return 0, err
	}

	if r.history != nil {
		if err := r.history.Append(refreshedAt, r.base, source, quotes); err != nil {
			r.logger.Warn("rate history append failed", slog.Any("error", err))
		}
	}

	r.logger.Info("rates refreshed",
		slog.Int("pairs", len(pairs)),
		slog.String("source", source),
		slog.Time("refreshed_at", refreshedAt),
	)
	return len(pairs), nil
}
