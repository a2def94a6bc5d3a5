package packaging

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DeliveryRepo for local runs
// and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Delivery // requestID -> delivery
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Delivery),
	}
}

func (r *MemoryRepo) Upsert(ctx context.Context, d Delivery) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.data[d.RequestID]; ok {
		d.DownloadCount = existing.DownloadCount
		d.LastDownloaded = existing.LastDownloaded
		d.EmailSent = existing.EmailSent
		d.EmailSentAt = existing.EmailSentAt
		d.CreatedAt = existing.CreatedAt
	} else {
		d.CreatedAt = time.Now().UTC()
	}
	r.data[d.RequestID] = d
	return nil
}

func (r *MemoryRepo) GetByRequestID(ctx context.Context, requestID string) (Delivery, error) {
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.data[requestID]
	if !ok {
		return Delivery{}, ErrFileMissing
	}
	return d, nil
}

func (r *MemoryRepo) IncrementDownload(ctx context.Context, requestID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[requestID]
	if !ok {
		return ErrFileMissing
	}
	now := time.Now().UTC()
	d.DownloadCount++
	d.LastDownloaded = &now
	r.data[requestID] = d
	return nil
}

func (r *MemoryRepo) MarkEmailSent(ctx context.Context, requestID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[requestID]
	if !ok {
		return ErrFileMissing
	}
	now := time.Now().UTC()
	d.EmailSent = true
	d.EmailSentAt = &now
	r.data[requestID] = d
	return nil
}

var _ DeliveryRepo = (*MemoryRepo)(nil)
