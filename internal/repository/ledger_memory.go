package repository

import (
	"context"
	"sync"
	"time"

	"github.com/soochol/aihub/internal/hub"
)

// MemoryApprovalLedger is the in-process default ledger. Suitable as the
// default and for tests; a deployment wanting durability across restarts
// uses the Postgres ledger instead.
type MemoryApprovalLedger struct {
	mu      sync.Mutex
	entries map[string]ApprovalEntry
}

func NewMemoryApprovalLedger() *MemoryApprovalLedger {
	return &MemoryApprovalLedger{entries: make(map[string]ApprovalEntry)}
}

func (l *MemoryApprovalLedger) Suspend(_ context.Context, state *hub.WorkflowState, gate string) (string, error) {
	id := hub.GenerateID("apr")
	l.mu.Lock()
	defer l.mu.Unlock()
	// Deep copy so the caller's state cannot mutate the stored snapshot.
	l.entries[id] = ApprovalEntry{
		ID:        id,
		Family:    state.Family,
		Gate:      gate,
		State:     state.Clone(),
		CreatedAt: time.Now(),
	}
	return id, nil
}

func (l *MemoryApprovalLedger) Resume(_ context.Context, id string) (*hub.WorkflowState, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[id]
	if !ok {
		return nil, "", ErrApprovalNotFound
	}
	// Remove before returning: the delete and the read are one critical
	// section, so a concurrent Resume on the same id gets ErrApprovalNotFound.
	delete(l.entries, id)
	return entry.State, entry.Gate, nil
}

func (l *MemoryApprovalLedger) Evict(_ context.Context, before time.Time) ([]ApprovalEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var evicted []ApprovalEntry
	for id, entry := range l.entries {
		if entry.CreatedAt.Before(before) {
			evicted = append(evicted, entry)
			delete(l.entries, id)
		}
	}
	return evicted, nil
}

// Len reports the number of pending entries. Test helper.
func (l *MemoryApprovalLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
