package omni

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new intake.
func (r *PGRepo) Create(ctx context.Context, in Intake) error {
	const query = `
INSERT INTO shadow7_omni_intakes (
	id, tracking_code, merged_content, word_count, file_count, encoding
)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.DB.ExecContext(ctx, query,
		in.ID,
		in.TrackingCode,
		in.MergedContent,
		in.WordCount,
		in.FileCount,
		in.Encoding,
	)
	return err
}

// GetByTrackingCode returns the intake identified by the tracking code.
func (r *PGRepo) GetByTrackingCode(ctx context.Context, trackingCode string) (Intake, error) {
	const query = `
SELECT id, tracking_code, merged_content, word_count, file_count, encoding,
       purge_report, created_at, updated_at
FROM shadow7_omni_intakes
WHERE tracking_code = $1
LIMIT 1`

	var in Intake
	var purgeReport []byte
	err := r.DB.QueryRowContext(ctx, query, trackingCode).Scan(
		&in.ID,
		&in.TrackingCode,
		&in.MergedContent,
		&in.WordCount,
		&in.FileCount,
		&in.Encoding,
		&purgeReport,
		&in.CreatedAt,
		&in.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Intake{}, ErrNotFound
		}
		return Intake{}, err
	}
	if len(purgeReport) > 0 {
		if err := json.Unmarshal(purgeReport, &in.PurgeReport); err != nil {
			in.PurgeReport = nil
		}
	}
	return in, nil
}

// UpdatePurgeReport stores the purge result against the intake.
func (r *PGRepo) UpdatePurgeReport(ctx context.Context, trackingCode string, report map[string]any) error {
	const query = `
UPDATE shadow7_omni_intakes
SET purge_report = $1::jsonb,
    updated_at = now()
WHERE tracking_code = $2`

	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, payload, trackingCode)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
