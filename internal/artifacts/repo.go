package artifacts

import "context"

// Repo defines persistence operations for the stage ledger. All writes are
// idempotent upserts so duplicate callbacks re-apply cleanly.
type Repo interface {
	UpsertOutline(ctx context.Context, o Outline) error
	GetOutline(ctx context.Context, requestID string) (Outline, error)
	UpsertChapter(ctx context.Context, ch Chapter) error
	ListChapters(ctx context.Context, requestID string) ([]Chapter, error)
	ReplaceReports(ctx context.Context, requestID string, reports []Report) error
	ListReports(ctx context.Context, requestID string) ([]Report, error)
}
