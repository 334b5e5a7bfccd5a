package shipper

import (
	"context"
	"sync"
	"time"
)

// QuoteLogEntry records the rates returned for one webhook request, keyed
// by the request token, so support can audit what a shopper was offered.
type QuoteLogEntry struct {
	Token     string
	Invoice   string
	Rates     []Rate
	CreatedAt time.Time
}

// QuoteLog records rate responses. Implementations must tolerate
// concurrent writers.
type QuoteLog interface {
	Record(ctx context.Context, entry QuoteLogEntry) error
}

// MemoryQuoteLog is an in-process QuoteLog with a bounded history.
type MemoryQuoteLog struct {
	mu      sync.Mutex
	entries []QuoteLogEntry
	limit   int
}

// NewMemoryQuoteLog creates a quote log retaining at most limit entries
// (oldest evicted first). limit <= 0 means 1000.
func NewMemoryQuoteLog(limit int) *MemoryQuoteLog {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryQuoteLog{limit: limit}
}

// Record appends an entry, evicting the oldest once past the limit.
func (l *MemoryQuoteLog) Record(_ context.Context, entry QuoteLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
	return nil
}

// Entries returns a copy of the recorded entries, newest last.
func (l *MemoryQuoteLog) Entries() []QuoteLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]QuoteLogEntry(nil), l.entries...)
}
