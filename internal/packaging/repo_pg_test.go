package packaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoUpsertDelivery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	d := Delivery{
		ID:             "del-1",
		RequestID:      "req-1",
		ZipFilePath:    "/data/packages/Shadow7_S7-1A2B3C4D.zip",
		ZipFileURL:     "http://localhost:8002/api/shadow7/download/S7-1A2B3C4D",
		ZipFileSize:    2048,
		InternalISBN:   "978-0-S7-2B3C4D-0",
		WordCountFinal: 500,
		ExpiresAt:      time.Now().UTC().Add(PackageTTL),
	}

	mock.ExpectExec("INSERT INTO shadow7_deliveries").
		WithArgs(
			d.ID,
			d.RequestID,
			d.ZipFilePath,
			d.ZipFileURL,
			d.ZipFileSize,
			d.InternalISBN,
			d.WordCountFinal,
			d.ExpiresAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Upsert(context.Background(), d); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoIncrementDownloadMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE shadow7_deliveries").
		WithArgs("req-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.IncrementDownload(context.Background(), "req-missing"); !errors.Is(err, ErrFileMissing) {
		t.Fatalf("expected ErrFileMissing, got %v", err)
	}
}

func TestPGRepoGetByRequestIDMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT (.+) FROM shadow7_deliveries").
		WithArgs("req-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByRequestID(context.Background(), "req-missing"); !errors.Is(err, ErrFileMissing) {
		t.Fatalf("expected ErrFileMissing, got %v", err)
	}
}
