package artifacts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for local runs and tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	outlines map[string]Outline           // requestID -> outline
	chapters map[string]map[int]Chapter   // requestID -> number -> chapter
	reports  map[string]map[string]Report // requestID -> type -> report
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		outlines: make(map[string]Outline),
		chapters: make(map[string]map[int]Chapter),
		reports:  make(map[string]map[string]Report),
	}
}

func (r *MemoryRepo) UpsertOutline(ctx context.Context, o Outline) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := r.outlines[o.RequestID]; ok {
		o.CreatedAt = existing.CreatedAt
	} else {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	r.outlines[o.RequestID] = o
	return nil
}

func (r *MemoryRepo) GetOutline(ctx context.Context, requestID string) (Outline, error) {
	if err := ctx.Err(); err != nil {
		return Outline{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.outlines[requestID]
	if !ok {
		return Outline{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepo) UpsertChapter(ctx context.Context, ch Chapter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byNumber, ok := r.chapters[ch.RequestID]
	if !ok {
		byNumber = make(map[int]Chapter)
		r.chapters[ch.RequestID] = byNumber
	}
	ch.CompletedAt = time.Now().UTC()
	byNumber[ch.Number] = ch
	return nil
}

func (r *MemoryRepo) ListChapters(ctx context.Context, requestID string) ([]Chapter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	byNumber := r.chapters[requestID]
	out := make([]Chapter, 0, len(byNumber))
	for _, ch := range byNumber {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *MemoryRepo) ReplaceReports(ctx context.Context, requestID string, reports []Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	byType := make(map[string]Report, len(reports))
	now := time.Now().UTC()
	for _, rep := range reports {
		rep.CreatedAt = now
		byType[rep.Type] = rep
	}
	r.reports[requestID] = byType
	return nil
}

func (r *MemoryRepo) ListReports(ctx context.Context, requestID string) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	byType := r.reports[requestID]
	out := make([]Report, 0, len(byType))
	for _, rep := range byType {
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
