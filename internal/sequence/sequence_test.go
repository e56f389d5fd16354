package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestFormatRef(t *testing.T) {
	got := FormatRef("inv", 2025, 7)
	if got != "INV-2025-0007" {
		t.Fatalf("expected INV-2025-0007, got %s", got)
	}
	got = FormatRef("CASH", 2026, 1234)
	if got != "CASH-2026-1234" {
		t.Fatalf("expected CASH-2026-1234, got %s", got)
	}
}

func TestMemoryRepoConcurrentNext(t *testing.T) {
	repo := NewMemoryRepo()
	const n = 100

	results := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			v, err := repo.Next(context.Background(), Name("inv", 2025))
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			results[idx] = v
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, v := range results {
		if v != int64(i+1) {
			t.Fatalf("expected consecutive values with no gaps, got %v at position %d", v, i)
		}
	}
}

func TestMemoryRepoIndependentNames(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if v, _ := repo.Next(ctx, Name("inv", 2025)); v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
	if v, _ := repo.Next(ctx, Name("inv", 2026)); v != 1 {
		t.Fatalf("expected year-scoped reset to 1, got %d", v)
	}
	if v, _ := repo.Next(ctx, Name("inv", 2025)); v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}
}

func TestPGRepoNextUpsert(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := &PGRepo{DB: conn}

	mock.ExpectQuery("INSERT INTO sequences").
		WithArgs("inv-2025").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(8)))

	v, err := repo.Next(context.Background(), "inv-2025")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if v != 8 {
		t.Fatalf("expected 8, got %d", v)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
