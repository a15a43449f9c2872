package draft

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager keeps the drafts of all open creation sessions
type Manager struct {
	mu      sync.RWMutex
	drafts  map[string]*Draft
	idleTTL time.Duration
}

// NewManager creates a manager. Drafts untouched for idleTTL are removed by
// the janitor; a zero idleTTL keeps drafts until they are discarded.
func NewManager(idleTTL time.Duration) *Manager {
	return &Manager{
		drafts:  make(map[string]*Draft),
		idleTTL: idleTTL,
	}
}

// Create opens a new draft for ownerID
func (m *Manager) Create(ownerID string) *Draft {
	d := newDraft(uuid.New().String(), ownerID, time.Now())

	m.mu.Lock()
	m.drafts[d.id] = d
	m.mu.Unlock()

	return d
}

// Get returns the draft with the given id
func (m *Manager) Get(id string) (*Draft, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[id]
	return d, ok
}

// Discard destroys a draft. Discarding an unknown id is a no-op.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	delete(m.drafts, id)
	m.mu.Unlock()
}

// Len returns the number of open drafts
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}

// Sweep removes drafts idle since before now-idleTTL and returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, d := range m.drafts {
		if d.lastTouched().Before(cutoff) {
			delete(m.drafts, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps idle drafts every interval until ctx is done
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				log.Printf("[Drafts] Expired %d idle drafts", n)
			}
		}
	}
}
