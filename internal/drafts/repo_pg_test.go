package drafts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"letterhead-backend/internal/profiles"
)

func TestPGRepoPutUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	savedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO drafts").
		WithArgs("user_1", WizardKey, sqlmock.AnyArg(), savedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	err = repo.Put(context.Background(), Draft{UserID: "user_1", Key: WizardKey, Data: profiles.DocumentData{Title: "A"}, SavedAt: savedAt})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	savedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT data, saved_at").
		WithArgs("user_1", WizardKey).
		WillReturnRows(sqlmock.NewRows([]string{"data", "saved_at"}).AddRow([]byte(`{"title":"Undangan","content":"Isi"}`), savedAt))
	mock.ExpectQuery("SELECT data, saved_at").
		WithArgs("user_1", "broken").
		WillReturnRows(sqlmock.NewRows([]string{"data", "saved_at"}).AddRow([]byte(`{`), savedAt))
	mock.ExpectQuery("SELECT data, saved_at").
		WithArgs("user_1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"data", "saved_at"}))

	repo := &PGRepo{DB: db}
	d, err := repo.Get(context.Background(), "user_1", WizardKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Data.Title != "Undangan" || !d.SavedAt.Equal(savedAt) {
		t.Fatalf("unexpected draft %+v", d)
	}
	if _, err := repo.Get(context.Background(), "user_1", "broken"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected undecodable draft as ErrNotFound, got %v", err)
	}
	if _, err := repo.Get(context.Background(), "user_1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("DELETE FROM drafts").
		WithArgs("user_1", WizardKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := &PGRepo{DB: db}
	if err := repo.Delete(context.Background(), "user_1", WizardKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
