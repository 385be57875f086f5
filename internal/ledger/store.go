package ledger

import "context"

// Store persists portfolios. Update runs the mutation under the store's
// writer lock across the full read-modify-write span, so concurrent writers
// cannot lose updates; the mutation operates on a copy and is discarded
// entirely when fn or persistence fails.
type Store interface {
	Get(ctx context.Context, userID string) (*Portfolio, error)
	Create(ctx context.Context, p *Portfolio) error
	Update(ctx context.Context, userID string, fn func(*Portfolio) error) error
}
