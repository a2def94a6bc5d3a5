package omni

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for local runs and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Intake // trackingCode -> intake
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Intake),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, in Intake) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	in.CreatedAt = now
	in.UpdatedAt = now
	r.data[in.TrackingCode] = in
	return nil
}

func (r *MemoryRepo) GetByTrackingCode(ctx context.Context, trackingCode string) (Intake, error) {
	if err := ctx.Err(); err != nil {
		return Intake{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.data[trackingCode]
	if !ok {
		return Intake{}, ErrNotFound
	}
	return in, nil
}

func (r *MemoryRepo) UpdatePurgeReport(ctx context.Context, trackingCode string, report map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.data[trackingCode]
	if !ok {
		return ErrNotFound
	}
	in.PurgeReport = report
	in.UpdatedAt = time.Now().UTC()
	r.data[trackingCode] = in
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
