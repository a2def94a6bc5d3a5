package requests

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for local runs and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]ManuscriptRequest // trackingCode -> request
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]ManuscriptRequest),
	}
}

// Create stores a new request keyed by tracking code.
func (r *MemoryRepo) Create(ctx context.Context, req ManuscriptRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[req.TrackingCode] = req
	return nil
}

// GetByTrackingCode returns the request identified by the public code.
func (r *MemoryRepo) GetByTrackingCode(ctx context.Context, trackingCode string) (ManuscriptRequest, error) {
	if err := ctx.Err(); err != nil {
		return ManuscriptRequest{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.data[trackingCode]
	if !ok {
		return ManuscriptRequest{}, ErrNotFound
	}
	return req, nil
}

// Advance applies one lifecycle transition with the same timestamp stamping
// rules as the Postgres implementation.
func (r *MemoryRepo) Advance(ctx context.Context, trackingCode string, adv Advance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.data[trackingCode]
	if !ok {
		return ErrNotFound
	}

	req.Status = adv.Status
	if adv.Progress != nil {
		req.Progress = *adv.Progress
	}
	if adv.CurrentStep != nil {
		req.CurrentStep = *adv.CurrentStep
	}
	if adv.ErrorMessage != nil {
		req.ErrorMessage = *adv.ErrorMessage
	}

	now := time.Now().UTC()
	if adv.Status != StatusPending && adv.Status != StatusFailed && req.StartedAt == nil {
		req.StartedAt = &now
	}
	if adv.Status == StatusCompleted {
		req.CompletedAt = &now
	}

	r.data[trackingCode] = req
	return nil
}

// CountByStatus returns the number of requests per status.
func (r *MemoryRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, req := range r.data {
		out[req.Status]++
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
