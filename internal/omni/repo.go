package omni

import "context"

// Repo defines persistence operations for omni intakes.
type Repo interface {
	Create(ctx context.Context, in Intake) error
	GetByTrackingCode(ctx context.Context, trackingCode string) (Intake, error)
	UpdatePurgeReport(ctx context.Context, trackingCode string, report map[string]any) error
}
