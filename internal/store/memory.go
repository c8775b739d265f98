// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Matches live only as long as the process; nothing is written to disk.
//
// Characteristics:
//   - Stores *match.Match values keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Sweep evicts idle matches and closes them so pending computer moves stop.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/numberduel/apps/go-server/internal/match"
	"github.com/robalobadob/numberduel/apps/go-server/internal/metrics"
)

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for matches.
type Store interface {
	// Save persists or updates a match.
	Save(ctx context.Context, m *match.Match) error

	// Get retrieves a match by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*match.Match, error)

	// Delete removes and closes a match. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes matches idle since before cutoff.
	// Returns the number of evicted matches.
	Sweep(ctx context.Context, cutoff time.Time) int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu      sync.RWMutex            // guards matches map
	matches map[string]*match.Match // keyed by Match.ID()
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{matches: make(map[string]*match.Match)}
}

func (m *memory) Save(ctx context.Context, mt *match.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[mt.ID()] = mt
	metrics.ActiveMatches.Set(float64(len(m.matches)))
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*match.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if mt, ok := m.matches[id]; ok {
		return mt, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	mt, ok := m.matches[id]
	delete(m.matches, id)
	metrics.ActiveMatches.Set(float64(len(m.matches)))
	m.mu.Unlock()
	if ok {
		mt.Close()
	}
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	var idle []*match.Match
	for id, mt := range m.matches {
		if mt.LastActive().Before(cutoff) {
			idle = append(idle, mt)
			delete(m.matches, id)
		}
	}
	metrics.ActiveMatches.Set(float64(len(m.matches)))
	m.mu.Unlock()

	for _, mt := range idle {
		mt.Close()
	}
	return len(idle)
}
