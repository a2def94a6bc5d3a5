package requests

import "context"

// Repo defines persistence operations for manuscript requests.
type Repo interface {
	Create(ctx context.Context, req ManuscriptRequest) error
	GetByTrackingCode(ctx context.Context, trackingCode string) (ManuscriptRequest, error)
	Advance(ctx context.Context, trackingCode string, adv Advance) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}
