package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/storage"
)

// FileStore keeps the whole portfolios collection in one JSON file, replaced
// atomically on every write. A single mutex serializes writers; the atomic
// rename underneath guarantees readers never see a torn file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore builds a store backed by the portfolios file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type portfolioRecord struct {
	Wallets map[string]decimal.Decimal `json:"wallets"`
}

func (s *FileStore) load() (map[string]*Portfolio, error) {
	data, err := storage.Read(s.path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return make(map[string]*Portfolio), nil
		}
		return nil, err
	}

	records := make(map[string]portfolioRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode portfolios %s: %w", s.path, err)
	}

	portfolios := make(map[string]*Portfolio, len(records))
	for userID, rec := range records {
		p := NewPortfolio(userID)
		for code, balance := range rec.Wallets {
			if balance.IsNegative() {
				return nil, fmt.Errorf("portfolio %s: negative balance %s %s on disk", userID, balance, code)
			}
			p.Wallets[code] = &Wallet{Currency: code, Balance: balance}
		}
		portfolios[userID] = p
	}
	return portfolios, nil
}

func (s *FileStore) persist(portfolios map[string]*Portfolio) error {
	records := make(map[string]portfolioRecord, len(portfolios))
	for userID, p := range portfolios {
		rec := portfolioRecord{Wallets: make(map[string]decimal.Decimal, len(p.Wallets))}
		for code, w := range p.Wallets {
			rec.Wallets[code] = w.Balance
		}
		records[userID] = rec
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolios: %w", err)
	}
	return storage.Write(s.path, data)
}

// Get returns a copy of the user's portfolio.
func (s *FileStore) Get(_ context.Context, userID string) (*Portfolio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolios, err := s.load()
	if err != nil {
		return nil, err
	}
	p, ok := portfolios[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", ErrPortfolioNotFound, userID)
	}
	return p.Clone(), nil
}

// Create persists a new portfolio. Creating one that already exists is an
// error so registration cannot silently overwrite holdings.
func (s *FileStore) Create(_ context.Context, p *Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolios, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := portfolios[p.UserID]; exists {
		return fmt.Errorf("portfolio for user %s already exists", p.UserID)
	}
	portfolios[p.UserID] = p.Clone()
	return s.persist(portfolios)
}

// Update applies fn to a copy of the user's portfolio and persists the whole
// collection atomically. When fn or the write fails, the on-disk state stays
// at its pre-operation snapshot.
func (s *FileStore) Update(_ context.Context, userID string, fn func(*Portfolio) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolios, err := s.load()
	if err != nil {
		return err
	}
	p, ok := portfolios[userID]
	if !ok {
		return fmt.Errorf("%w: user %s", ErrPortfolioNotFound, userID)
	}

	next := p.Clone()
	if err := fn(next); err != nil {
		return err
	}

	portfolios[userID] = next
	return s.persist(portfolios)
}
