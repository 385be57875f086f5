package rates

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/storage"
)

// HistoryLog records every fetched quote set in an append-only JSONL file for
// audit purposes. Transactional logic never reads it back.
type HistoryLog struct {
	path string
	mu   sync.Mutex
}

// NewHistoryLog builds a history log writing to path.
func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{path: path}
}

type historyEntry struct {
	FetchedAt time.Time                  `json:"fetched_at"`
	Base      string                     `json:"base"`
	Source    string                     `json:"source"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// Append writes one quote set as a single log line.
func (l *HistoryLog) Append(fetchedAt time.Time, base, source string, quotes map[string]decimal.Decimal) error {
	line, err := json.Marshal(historyEntry{
		FetchedAt: fetchedAt.UTC(),
		Base:      base,
		Source:    source,
		Rates:     quotes,
	})
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return storage.AppendLine(l.path, line)
}
