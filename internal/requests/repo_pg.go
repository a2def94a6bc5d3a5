package requests

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new manuscript request.
func (r *PGRepo) Create(ctx context.Context, req ManuscriptRequest) error {
	const query = `
INSERT INTO shadow7_requests (
	id, tracking_code, user_email, user_name, raw_text, word_count_in, file_name,
	target_audience, book_genre, tone_of_voice, platform, language,
	ip_address, user_agent, status, progress, current_step, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.DB.ExecContext(ctx, query,
		req.ID,
		req.TrackingCode,
		req.UserEmail,
		nullString(req.UserName),
		req.RawText,
		req.WordCountIn,
		nullString(req.FileName),
		nullString(req.TargetAudience),
		nullString(req.BookGenre),
		nullString(req.ToneOfVoice),
		nullString(req.Platform),
		req.Language,
		nullString(req.IPAddress),
		nullString(req.UserAgent),
		req.Status,
		req.Progress,
		nullString(req.CurrentStep),
		req.CreatedAt,
	)
	return err
}

// GetByTrackingCode returns the request identified by the public code.
func (r *PGRepo) GetByTrackingCode(ctx context.Context, trackingCode string) (ManuscriptRequest, error) {
	const query = `
SELECT id, tracking_code, user_email, user_name, raw_text, word_count_in, file_name,
       target_audience, book_genre, tone_of_voice, platform, language,
       ip_address, user_agent, status, progress, current_step, error_message,
       created_at, started_at, completed_at
FROM shadow7_requests
WHERE tracking_code = $1
LIMIT 1`

	var req ManuscriptRequest
	var userName sql.NullString
	var fileName sql.NullString
	var targetAudience sql.NullString
	var bookGenre sql.NullString
	var toneOfVoice sql.NullString
	var platform sql.NullString
	var ipAddress sql.NullString
	var userAgent sql.NullString
	var currentStep sql.NullString
	var errorMessage sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime

	err := r.DB.QueryRowContext(ctx, query, trackingCode).Scan(
		&req.ID,
		&req.TrackingCode,
		&req.UserEmail,
		&userName,
		&req.RawText,
		&req.WordCountIn,
		&fileName,
		&targetAudience,
		&bookGenre,
		&toneOfVoice,
		&platform,
		&req.Language,
		&ipAddress,
		&userAgent,
		&req.Status,
		&req.Progress,
		&currentStep,
		&errorMessage,
		&req.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ManuscriptRequest{}, ErrNotFound
		}
		return ManuscriptRequest{}, err
	}
	if userName.Valid {
		req.UserName = userName.String
	}
	if fileName.Valid {
		req.FileName = fileName.String
	}
	if targetAudience.Valid {
		req.TargetAudience = targetAudience.String
	}
	if bookGenre.Valid {
		req.BookGenre = bookGenre.String
	}
	if toneOfVoice.Valid {
		req.ToneOfVoice = toneOfVoice.String
	}
	if platform.Valid {
		req.Platform = platform.String
	}
	if ipAddress.Valid {
		req.IPAddress = ipAddress.String
	}
	if userAgent.Valid {
		req.UserAgent = userAgent.String
	}
	if currentStep.Valid {
		req.CurrentStep = currentStep.String
	}
	if errorMessage.Valid {
		req.ErrorMessage = errorMessage.String
	}
	if startedAt.Valid {
		req.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		req.CompletedAt = &completedAt.Time
	}
	return req, nil
}

// Advance applies one lifecycle transition. started_at is stamped on the
// first transition into active work only; completed_at is stamped whenever
// the request reaches completed.
func (r *PGRepo) Advance(ctx context.Context, trackingCode string, adv Advance) error {
	const query = `
UPDATE shadow7_requests
SET status = $1,
    progress = COALESCE($2::int, progress),
    current_step = COALESCE($3::text, current_step),
    error_message = COALESCE($4::text, error_message),
    started_at = CASE
        WHEN $1 NOT IN ('pending', 'failed') AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    completed_at = CASE
        WHEN $1 = 'completed' THEN now()
        ELSE completed_at
    END
WHERE tracking_code = $5`

	res, err := r.DB.ExecContext(ctx, query,
		adv.Status,
		adv.Progress,
		adv.CurrentStep,
		adv.ErrorMessage,
		trackingCode,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of requests per status.
func (r *PGRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	const query = `SELECT status, COUNT(*) FROM shadow7_requests GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
