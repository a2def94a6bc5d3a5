package artifacts

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

// UpsertOutline inserts or replaces the single outline for a request.
func (r *PGRepo) UpsertOutline(ctx context.Context, o Outline) error {
	const query = `
INSERT INTO shadow7_outlines (
	id, request_id, book_title, book_subtitle, book_summary, chapters,
	chapter_count, model_used, generation_time_ms
)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9)
ON CONFLICT (request_id) DO UPDATE SET
	book_title = EXCLUDED.book_title,
	book_subtitle = EXCLUDED.book_subtitle,
	book_summary = EXCLUDED.book_summary,
	chapters = EXCLUDED.chapters,
	chapter_count = EXCLUDED.chapter_count,
	model_used = EXCLUDED.model_used,
	generation_time_ms = EXCLUDED.generation_time_ms,
	updated_at = now()`

	chapters, err := json.Marshal(o.Chapters)
	if err != nil {
		return err
	}
	if o.Chapters == nil {
		chapters = []byte("[]")
	}

	_, err = r.DB.ExecContext(ctx, query,
		o.ID,
		o.RequestID,
		o.BookTitle,
		nullString(o.BookSubtitle),
		nullString(o.BookSummary),
		chapters,
		o.ChapterCount,
		nullString(o.ModelUsed),
		nullInt64(o.GenerationTimeMS),
	)
	return err
}

// GetOutline returns the outline for a request.
func (r *PGRepo) GetOutline(ctx context.Context, requestID string) (Outline, error) {
	const query = `
SELECT id, request_id, book_title, book_subtitle, book_summary, chapters,
       chapter_count, model_used, generation_time_ms, created_at, updated_at
FROM shadow7_outlines
WHERE request_id = $1
LIMIT 1`

	var o Outline
	var subtitle sql.NullString
	var summary sql.NullString
	var chapters []byte
	var modelUsed sql.NullString
	var generationTimeMS sql.NullInt64

	err := r.DB.QueryRowContext(ctx, query, requestID).Scan(
		&o.ID,
		&o.RequestID,
		&o.BookTitle,
		&subtitle,
		&summary,
		&chapters,
		&o.ChapterCount,
		&modelUsed,
		&generationTimeMS,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Outline{}, ErrNotFound
		}
		return Outline{}, err
	}
	if subtitle.Valid {
		o.BookSubtitle = subtitle.String
	}
	if summary.Valid {
		o.BookSummary = summary.String
	}
	if modelUsed.Valid {
		o.ModelUsed = modelUsed.String
	}
	if generationTimeMS.Valid {
		o.GenerationTimeMS = generationTimeMS.Int64
	}
	if len(chapters) > 0 {
		if err := json.Unmarshal(chapters, &o.Chapters); err != nil {
			o.Chapters = nil
		}
	}
	return o, nil
}

// UpsertChapter inserts or replaces one chapter keyed by (request, number).
func (r *PGRepo) UpsertChapter(ctx context.Context, ch Chapter) error {
	const query = `
INSERT INTO shadow7_chapters (
	id, request_id, chapter_number, title, content, word_count, ending_summary
)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (request_id, chapter_number) DO UPDATE SET
	title = EXCLUDED.title,
	content = EXCLUDED.content,
	word_count = EXCLUDED.word_count,
	ending_summary = EXCLUDED.ending_summary,
	completed_at = now()`

	_, err := r.DB.ExecContext(ctx, query,
		ch.ID,
		ch.RequestID,
		ch.Number,
		ch.Title,
		ch.Content,
		ch.WordCount,
		nullString(ch.EndingSummary),
	)
	return err
}

// ListChapters returns a request's chapters ordered by chapter number.
func (r *PGRepo) ListChapters(ctx context.Context, requestID string) ([]Chapter, error) {
	const query = `
SELECT id, request_id, chapter_number, title, content, word_count, ending_summary, completed_at
FROM shadow7_chapters
WHERE request_id = $1
ORDER BY chapter_number`

	rows, err := r.DB.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chapter
	for rows.Next() {
		var ch Chapter
		var endingSummary sql.NullString
		if err := rows.Scan(
			&ch.ID,
			&ch.RequestID,
			&ch.Number,
			&ch.Title,
			&ch.Content,
			&ch.WordCount,
			&endingSummary,
			&ch.CompletedAt,
		); err != nil {
			return nil, err
		}
		if endingSummary.Valid {
			ch.EndingSummary = endingSummary.String
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// ReplaceReports swaps in the supplied report set for a request in one
// transaction. Upserts guard against a concurrent duplicate callback racing
// the delete.
func (r *PGRepo) ReplaceReports(ctx context.Context, requestID string, reports []Report) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shadow7_reports WHERE request_id = $1`, requestID); err != nil {
		return err
	}

	const insert = `
INSERT INTO shadow7_reports (id, request_id, report_type, title, content, scores)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb)
ON CONFLICT (request_id, report_type) DO UPDATE SET
	title = EXCLUDED.title,
	content = EXCLUDED.content,
	scores = EXCLUDED.scores`

	for _, rep := range reports {
		content, err := marshalJSONB(rep.Content)
		if err != nil {
			return err
		}
		var scores any
		if rep.Scores != nil {
			scores, err = json.Marshal(rep.Scores)
			if err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, insert,
			rep.ID,
			requestID,
			rep.Type,
			nullString(rep.Title),
			content,
			scores,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListReports returns a request's reports ordered by type.
func (r *PGRepo) ListReports(ctx context.Context, requestID string) ([]Report, error) {
	const query = `
SELECT id, request_id, report_type, title, content, scores, created_at
FROM shadow7_reports
WHERE request_id = $1
ORDER BY report_type`

	rows, err := r.DB.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		var rep Report
		var title sql.NullString
		var content []byte
		var scores []byte
		if err := rows.Scan(
			&rep.ID,
			&rep.RequestID,
			&rep.Type,
			&title,
			&content,
			&scores,
			&rep.CreatedAt,
		); err != nil {
			return nil, err
		}
		if title.Valid {
			rep.Title = title.String
		}
		if len(content) > 0 {
			if err := json.Unmarshal(content, &rep.Content); err != nil {
				rep.Content = nil
			}
		}
		if len(scores) > 0 {
			if err := json.Unmarshal(scores, &rep.Scores); err != nil {
				rep.Scores = nil
			}
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

func marshalJSONB(value map[string]any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
