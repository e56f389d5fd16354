package queries

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGListByUserPassesKindAndPagination(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := &PGRepo{DB: conn}
	now := time.Now()

	mock.ExpectQuery("SELECT id, user_id, kind, query, answer, document_ids, created_at").
		WithArgs("u-1", KindDocument, 2, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "kind", "query", "answer", "document_ids", "created_at"}).
			AddRow("e-1", "u-1", KindDocument, "payback period?", "five years", []byte(`["doc-1","doc-2"]`), now))

	out, err := repo.ListByUser(context.Background(), "u-1", KindDocument, 2, 4)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(out) != 1 || len(out[0].DocumentIDs) != 2 || out[0].DocumentIDs[1] != "doc-2" {
		t.Fatalf("entries = %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGListByUserClampsBadPagination(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	repo := &PGRepo{DB: conn}

	// limit<=0 falls back to 20, limit>100 caps at 100, offset<0 to 0.
	mock.ExpectQuery("SELECT id, user_id, kind, query, answer, document_ids, created_at").
		WithArgs("u-1", "", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "kind", "query", "answer", "document_ids", "created_at"}))

	if _, err := repo.ListByUser(context.Background(), "u-1", "", 0, -3); err != nil {
		t.Fatalf("ListByUser: %v", err)
	}

	mock.ExpectQuery("SELECT id, user_id, kind, query, answer, document_ids, created_at").
		WithArgs("u-1", "", 100, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "kind", "query", "answer", "document_ids", "created_at"}))

	if _, err := repo.ListByUser(context.Background(), "u-1", "", 500, 0); err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
