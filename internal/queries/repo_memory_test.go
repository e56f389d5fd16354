package queries

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func seedEntries(t *testing.T, repo *MemoryRepo, userID string, n int, kind string, base time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := repo.Create(context.Background(), Entry{
			ID:        fmt.Sprintf("%s-%s-%d", userID, kind, i),
			UserID:    userID,
			Kind:      kind,
			Query:     fmt.Sprintf("question %d", i),
			Answer:    "answer",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestListByUserFiltersByKind(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Now()
	seedEntries(t, repo, "u-1", 2, KindChat, base)
	seedEntries(t, repo, "u-1", 3, KindWebSearch, base.Add(time.Minute))
	seedEntries(t, repo, "u-2", 2, KindChat, base)

	chats, err := repo.ListByUser(context.Background(), "u-1", KindChat, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("chat entries = %d, want 2 (other kinds and users excluded)", len(chats))
	}
	for _, e := range chats {
		if e.UserID != "u-1" || e.Kind != KindChat {
			t.Fatalf("stray entry %+v", e)
		}
	}

	all, err := repo.ListByUser(context.Background(), "u-1", "", 10, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("all entries = %d, want 5", len(all))
	}
}

func TestListByUserNewestFirstWithPagination(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Now()
	seedEntries(t, repo, "u-1", 5, KindChat, base)

	page, err := repo.ListByUser(context.Background(), "u-1", "", 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != "u-1-chat-4" || page[1].ID != "u-1-chat-3" {
		t.Fatalf("first page = %+v, want newest two", page)
	}

	page, err = repo.ListByUser(context.Background(), "u-1", "", 2, 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].ID != "u-1-chat-0" {
		t.Fatalf("last page = %+v, want oldest entry only", page)
	}

	if page, _ = repo.ListByUser(context.Background(), "u-1", "", 2, 50); len(page) != 0 {
		t.Fatalf("past-the-end page = %+v, want empty", page)
	}
}

func TestListByUserClampsLimit(t *testing.T) {
	repo := NewMemoryRepo()
	base := time.Now()
	seedEntries(t, repo, "u-1", 30, KindChat, base)

	byDefault, err := repo.ListByUser(context.Background(), "u-1", "", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byDefault) != 20 {
		t.Fatalf("default limit returned %d, want 20", len(byDefault))
	}

	capped, err := repo.ListByUser(context.Background(), "u-1", "", 500, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(capped) != 30 {
		t.Fatalf("capped list returned %d, want all 30 under the 100 cap", len(capped))
	}
}

func TestCreateNormalizesNilDocumentIDs(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Create(context.Background(), Entry{ID: "e-1", UserID: "u-1", Kind: KindChat, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.ListByUser(context.Background(), "u-1", "", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got[0].DocumentIDs == nil {
		t.Fatal("document ids should round-trip as an empty slice")
	}
}

func TestValidKind(t *testing.T) {
	for _, kind := range []string{KindChat, KindDocument, KindCrossDocument, KindWebSearch} {
		if !ValidKind(kind) {
			t.Errorf("%s should be valid", kind)
		}
	}
	if ValidKind("search") || ValidKind("") {
		t.Fatal("unknown kinds accepted")
	}
}
