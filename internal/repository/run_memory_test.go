package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/soochol/aihub/internal/hub"
)

func TestRunRepositoryCRUD(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	rec := &hub.RunRecord{
		ID:        "wf-1",
		Family:    "expense_claim",
		Status:    hub.RunRunning,
		StartedAt: time.Now(),
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatal(err)
	}

	rec.Status = hub.RunCompleted
	rec.Response = "## Expense Claim Processed"
	if err := repo.Update(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, "wf-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != hub.RunCompleted || got.Response == "" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestRunRepositoryGetMissing(t *testing.T) {
	repo := NewMemoryRunRepository()
	if _, err := repo.Get(context.Background(), "wf-missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("want ErrRunNotFound, got %v", err)
	}
	if err := repo.Update(context.Background(), &hub.RunRecord{ID: "wf-missing"}); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("update of missing run: want ErrRunNotFound, got %v", err)
	}
}

func TestRunRepositoryListFilters(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		family := "expense_claim"
		if i%2 == 1 {
			family = "taxi_receipt"
		}
		err := repo.Create(ctx, &hub.RunRecord{
			ID:        fmt.Sprintf("wf-%d", i),
			Family:    family,
			Status:    hub.RunCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	all, err := repo.List(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("len(all) = %d, want 5", len(all))
	}
	// Newest first.
	if all[0].ID != "wf-4" {
		t.Errorf("first run = %s, want wf-4", all[0].ID)
	}

	expense, err := repo.List(ctx, "expense_claim", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(expense) != 3 {
		t.Errorf("len(expense) = %d, want 3", len(expense))
	}

	limited, err := repo.List(ctx, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("len(limited) = %d, want 2", len(limited))
	}
}
