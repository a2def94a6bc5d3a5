package packaging

import "context"

// DeliveryRepo defines persistence operations for delivery packages.
type DeliveryRepo interface {
	Upsert(ctx context.Context, d Delivery) error
	GetByRequestID(ctx context.Context, requestID string) (Delivery, error)
	IncrementDownload(ctx context.Context, requestID string) error
	MarkEmailSent(ctx context.Context, requestID string) error
}
