package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soochol/aihub/internal/hub"
)

func suspendOne(t *testing.T, l *MemoryApprovalLedger) (string, *hub.WorkflowState) {
	t.Helper()
	state := hub.NewWorkflowState("expense_claim")
	state.SetOutput("validate", map[string]any{"amount": 125.5})
	id, err := l.Suspend(context.Background(), state, "manager")
	if err != nil {
		t.Fatal(err)
	}
	return id, state
}

func TestSuspendResume(t *testing.T) {
	l := NewMemoryApprovalLedger()
	id, state := suspendOne(t, l)

	got, gate, err := l.Resume(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if gate != "manager" {
		t.Errorf("gate = %q, want manager", gate)
	}
	if got.WorkflowID != state.WorkflowID {
		t.Errorf("snapshot workflow id = %q, want %q", got.WorkflowID, state.WorkflowID)
	}
	if got.Output("validate")["amount"] != 125.5 {
		t.Errorf("snapshot lost outputs: %+v", got.Outputs)
	}
	if l.Len() != 0 {
		t.Errorf("ledger still holds %d entries after resume", l.Len())
	}
}

func TestResumeUnknownID(t *testing.T) {
	l := NewMemoryApprovalLedger()
	if _, _, err := l.Resume(context.Background(), "apr-missing"); !errors.Is(err, ErrApprovalNotFound) {
		t.Errorf("want ErrApprovalNotFound, got %v", err)
	}
}

func TestResumeIsDestructive(t *testing.T) {
	l := NewMemoryApprovalLedger()
	id, _ := suspendOne(t, l)

	if _, _, err := l.Resume(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if _, _, err := l.Resume(context.Background(), id); !errors.Is(err, ErrApprovalNotFound) {
		t.Errorf("second resume must fail with ErrApprovalNotFound, got %v", err)
	}
}

// Even under concurrent decisions for the same id, exactly one caller wins.
func TestResumeAtMostOnceConcurrent(t *testing.T) {
	l := NewMemoryApprovalLedger()
	id, _ := suspendOne(t, l)

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := l.Resume(context.Background(), id); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("got %d successful resumes, want exactly 1", wins)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	l := NewMemoryApprovalLedger()
	state := hub.NewWorkflowState("taxi_receipt")
	state.SetOutput("extract", map[string]any{"fare": 125.5})
	id, err := l.Suspend(context.Background(), state, "supervisor")
	if err != nil {
		t.Fatal(err)
	}

	// Mutations after suspension must not leak into the snapshot.
	state.Output("extract")["fare"] = 999.0
	state.Finish(hub.OutcomeFailed)

	got, _, err := l.Resume(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Output("extract")["fare"] != 125.5 {
		t.Error("snapshot observed caller mutation")
	}
	if got.Terminal() {
		t.Error("snapshot observed caller's terminal outcome")
	}
}

func TestUniqueApprovalIDs(t *testing.T) {
	l := NewMemoryApprovalLedger()
	state := hub.NewWorkflowState("expense_claim")
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := l.Suspend(context.Background(), state, "manager")
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("approval id %q issued twice", id)
		}
		seen[id] = true
	}
}

func TestEvict(t *testing.T) {
	l := NewMemoryApprovalLedger()
	oldID, _ := suspendOne(t, l)

	cutoff := time.Now().Add(time.Millisecond)
	time.Sleep(2 * time.Millisecond)
	freshID, _ := suspendOne(t, l)

	evicted, err := l.Evict(context.Background(), cutoff)
	if err != nil {
		t.Fatal(err)
	}
	if len(evicted) != 1 || evicted[0].ID != oldID {
		t.Fatalf("evicted %+v, want just %s", evicted, oldID)
	}

	if _, _, err := l.Resume(context.Background(), oldID); !errors.Is(err, ErrApprovalNotFound) {
		t.Error("evicted entry should be gone")
	}
	if _, _, err := l.Resume(context.Background(), freshID); err != nil {
		t.Errorf("fresh entry should survive eviction: %v", err)
	}
}
