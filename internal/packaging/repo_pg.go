package packaging

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements DeliveryRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or replaces the delivery record for a request. Re-assembly
// replaces the archive location and refreshes the expiry but keeps the
// download counter.
func (r *PGRepo) Upsert(ctx context.Context, d Delivery) error {
	const query = `
INSERT INTO shadow7_deliveries (
	id, request_id, zip_file_path, zip_file_url, zip_file_size,
	internal_isbn, word_count_final, expires_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (request_id) DO UPDATE SET
	zip_file_path = EXCLUDED.zip_file_path,
	zip_file_url = EXCLUDED.zip_file_url,
	zip_file_size = EXCLUDED.zip_file_size,
	internal_isbn = EXCLUDED.internal_isbn,
	word_count_final = EXCLUDED.word_count_final,
	expires_at = EXCLUDED.expires_at`

	_, err := r.DB.ExecContext(ctx, query,
		d.ID,
		d.RequestID,
		d.ZipFilePath,
		d.ZipFileURL,
		d.ZipFileSize,
		d.InternalISBN,
		d.WordCountFinal,
		d.ExpiresAt,
	)
	return err
}

// GetByRequestID returns the delivery record for a request.
func (r *PGRepo) GetByRequestID(ctx context.Context, requestID string) (Delivery, error) {
	const query = `
SELECT id, request_id, zip_file_path, zip_file_url, zip_file_size,
       internal_isbn, word_count_final, expires_at, download_count,
       last_downloaded, email_sent, email_sent_at, created_at
FROM shadow7_deliveries
WHERE request_id = $1
LIMIT 1`

	var d Delivery
	var lastDownloaded sql.NullTime
	var emailSentAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, requestID).Scan(
		&d.ID,
		&d.RequestID,
		&d.ZipFilePath,
		&d.ZipFileURL,
		&d.ZipFileSize,
		&d.InternalISBN,
		&d.WordCountFinal,
		&d.ExpiresAt,
		&d.DownloadCount,
		&lastDownloaded,
		&d.EmailSent,
		&emailSentAt,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Delivery{}, ErrFileMissing
		}
		return Delivery{}, err
	}
	if lastDownloaded.Valid {
		d.LastDownloaded = &lastDownloaded.Time
	}
	if emailSentAt.Valid {
		d.EmailSentAt = &emailSentAt.Time
	}
	return d, nil
}

// IncrementDownload bumps the download counter and stamps the access time.
func (r *PGRepo) IncrementDownload(ctx context.Context, requestID string) error {
	const query = `
UPDATE shadow7_deliveries
SET download_count = download_count + 1,
    last_downloaded = now()
WHERE request_id = $1`
	res, err := r.DB.ExecContext(ctx, query, requestID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileMissing
	}
	return nil
}

// MarkEmailSent records that the delivery notification went out.
func (r *PGRepo) MarkEmailSent(ctx context.Context, requestID string) error {
	const query = `
UPDATE shadow7_deliveries
SET email_sent = TRUE,
    email_sent_at = now()
WHERE request_id = $1`
	res, err := r.DB.ExecContext(ctx, query, requestID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileMissing
	}
	return nil
}

var _ DeliveryRepo = (*PGRepo)(nil)
