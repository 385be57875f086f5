package rates

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/currency"
	"github.com/valutatrade/valutatrade/internal/storage"
)

var (
	// ErrNotFound occurs when no rate is cached for the ordered pair.
	ErrNotFound = errors.New("rate not found")
	// ErrStale occurs when the cached rate is older than the configured TTL.
	ErrStale = errors.New("rate is stale")
)

// Pair is a cached exchange rate for one ordered currency pair.
type Pair struct {
	Rate       decimal.Decimal
	ObservedAt time.Time
	Source     string
}

// PairKey builds the ordered-pair key under which a rate is stored. Direct
// and inverse pairs are independent entries.
func PairKey(from, to string) string {
	return currency.Normalize(from) + "_" + currency.Normalize(to)
}

// Cache holds the latest known rate per ordered pair with a freshness policy.
// The full pair mapping is replaced wholesale on every refresh and persisted
// as one atomic snapshot; readers always observe either the pre- or
// post-refresh state in full.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time

	mu          sync.RWMutex
	pairs       map[string]Pair
	lastRefresh time.Time
}

type pairRecord struct {
	Rate       decimal.Decimal `json:"rate"`
	ObservedAt time.Time       `json:"observed_at"`
	Source     string          `json:"source"`
}

type snapshotRecord struct {
	Pairs       map[string]pairRecord `json:"pairs"`
	LastRefresh time.Time             `json:"last_refresh"`
}

// NewCache opens the cache backed by the snapshot file at path. A missing
// file yields an empty cache.
func NewCache(path string, ttl time.Duration) (*Cache, error) {
	c := &Cache{
		path:  path,
		ttl:   ttl,
		now:   time.Now,
		pairs: make(map[string]Pair),
	}

	data, err := storage.Read(path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c, nil
		}
		return nil, err
	}

	var snap snapshotRecord
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode rate snapshot %s: %w", path, err)
	}
	for key, rec := range snap.Pairs {
		if rec.Rate.Sign() <= 0 {
			return nil, fmt.Errorf("decode rate snapshot %s: non-positive rate %s for %s", path, rec.Rate, key)
		}
		c.pairs[key] = Pair{Rate: rec.Rate, ObservedAt: rec.ObservedAt, Source: rec.Source}
	}
	c.lastRefresh = snap.LastRefresh
	return c, nil
}

// Rate returns the cached rate for the ordered pair (from, to). Codes are
// case-normalized before lookup; a pair with from == to always resolves to
// rate 1 without consulting storage.
func (c *Cache) Rate(from, to string) (Pair, error) {
	from, to = currency.Normalize(from), currency.Normalize(to)
	if from == to {
		return Pair{Rate: decimal.NewFromInt(1), ObservedAt: c.now().UTC(), Source: "identity"}, nil
	}

	c.mu.RLock()
	pair, ok := c.pairs[PairKey(from, to)]
	c.mu.RUnlock()

	if !ok {
		return Pair{}, fmt.Errorf("%w: %s_%s", ErrNotFound, from, to)
	}
	if age := c.now().Sub(pair.ObservedAt); age > c.ttl {
		return Pair{}, fmt.Errorf("%w: %s_%s observed %s ago (ttl %s)", ErrStale, from, to, age.Round(time.Second), c.ttl)
	}
	return pair, nil
}

// LastRefresh reports when the current snapshot was committed. Zero when the
// cache has never been refreshed.
func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

// Len reports the number of cached pairs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pairs)
}

// PutSnapshot replaces the entire pair mapping and refresh timestamp as one
// atomic step, on disk first and in memory after. An entry whose ObservedAt
// would move backwards relative to the current snapshot keeps the existing
// entry, so observation times never regress per key.
func (c *Cache) PutSnapshot(pairs map[string]Pair, refreshedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]Pair, len(pairs))
	for key, pair := range pairs {
		if pair.Rate.Sign() <= 0 {
			return fmt.Errorf("non-positive rate %s for %s", pair.Rate, key)
		}
		if prev, ok := c.pairs[key]; ok && pair.ObservedAt.Before(prev.ObservedAt) {
			next[key] = prev
			continue
		}
		next[key] = pair
	}

	snap := snapshotRecord{
		Pairs:       make(map[string]pairRecord, len(next)),
		LastRefresh: refreshedAt.UTC(),
	}
	for key, pair := range next {
		snap.Pairs[key] = pairRecord{Rate: pair.Rate, ObservedAt: pair.ObservedAt.UTC(), Source: pair.Source}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rate snapshot: %w", err)
	}
	if err := storage.Write(c.path, data); err != nil {
		return err
	}

	c.pairs = next
	c.lastRefresh = snap.LastRefresh
	return nil
}
