package artifacts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"shadow7-backend/internal/joblog"
	"shadow7-backend/internal/requests"
)

// OutlineInput is the outline callback payload after decoding.
type OutlineInput struct {
	BookTitle        string
	BookSubtitle     string
	BookSummary      string
	Chapters         []ChapterStub
	ChapterCount     int
	ModelUsed        string
	GenerationTimeMS int64
}

// ChapterInput is the chapter callback payload after decoding.
type ChapterInput struct {
	Number        int
	Title         string
	Content       string
	WordCount     int
	EndingSummary string
}

// Service applies workflow callbacks to the stage ledger and advances the
// request lifecycle at the coarse checkpoints.
type Service struct {
	Repo     Repo
	Requests requests.Repo
	Log      joblog.Appender
}

// SaveOutline stores the outline and moves the request into chapter
// generation. A repeated callback replaces the stored outline wholesale.
func (s *Service) SaveOutline(ctx context.Context, trackingCode string, in OutlineInput) (string, error) {
	req, err := s.Requests.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return "", err
	}

	title := in.BookTitle
	if title == "" {
		title = "Untitled"
	}
	chapterCount := in.ChapterCount
	if chapterCount == 0 {
		chapterCount = len(in.Chapters)
	}

	if err := s.Repo.UpsertOutline(ctx, Outline{
		ID:               uuid.NewString(),
		RequestID:        req.ID,
		BookTitle:        title,
		BookSubtitle:     in.BookSubtitle,
		BookSummary:      in.BookSummary,
		Chapters:         in.Chapters,
		ChapterCount:     chapterCount,
		ModelUsed:        in.ModelUsed,
		GenerationTimeMS: in.GenerationTimeMS,
	}); err != nil {
		return "", err
	}

	progress := requests.ProgressChaptersStarted
	step := requests.StepGeneratingChapters
	if err := s.Requests.Advance(ctx, trackingCode, requests.Advance{
		Status:      requests.StatusGeneratingChapters,
		Progress:    &progress,
		CurrentStep: &step,
	}); err != nil {
		return "", err
	}

	s.Log.Append(ctx, joblog.Entry{
		RequestID: req.ID,
		Module:    "architect",
		Message:   "outline saved: " + title,
		Details:   map[string]any{"chapter_count": chapterCount},
	})

	return req.ID, nil
}

// SaveChapter upserts one chapter. Chapters do not move the lifecycle; the
// workflow reports fine-grained progress separately.
func (s *Service) SaveChapter(ctx context.Context, trackingCode string, in ChapterInput) error {
	req, err := s.Requests.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return err
	}

	if err := s.Repo.UpsertChapter(ctx, Chapter{
		ID:            uuid.NewString(),
		RequestID:     req.ID,
		Number:        in.Number,
		Title:         in.Title,
		Content:       in.Content,
		WordCount:     in.WordCount,
		EndingSummary: in.EndingSummary,
	}); err != nil {
		return err
	}

	s.Log.Append(ctx, joblog.Entry{
		RequestID: req.ID,
		Module:    "writers_room",
		Message:   fmt.Sprintf("chapter %d saved: %d words", in.Number, in.WordCount),
	})

	return nil
}

// SaveReports replaces the request's report set and moves the lifecycle to
// packaging.
func (s *Service) SaveReports(ctx context.Context, trackingCode string, reports map[string]map[string]any) (int, error) {
	req, err := s.Requests.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return 0, err
	}

	batch := make([]Report, 0, len(reports))
	for reportType, body := range reports {
		title := reportType
		if t, ok := body["title"].(string); ok && t != "" {
			title = t
		}
		var scores map[string]any
		if score, ok := body["score"]; ok {
			scores = map[string]any{"score": score}
		}
		batch = append(batch, Report{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			Type:      reportType,
			Title:     title,
			Content:   body,
			Scores:    scores,
		})
	}

	if err := s.Repo.ReplaceReports(ctx, req.ID, batch); err != nil {
		return 0, err
	}

	progress := requests.ProgressPackaging
	step := requests.StepPackaging
	if err := s.Requests.Advance(ctx, trackingCode, requests.Advance{
		Status:      requests.StatusPackaging,
		Progress:    &progress,
		CurrentStep: &step,
	}); err != nil {
		return 0, err
	}

	s.Log.Append(ctx, joblog.Entry{
		RequestID: req.ID,
		Module:    "consulting",
		Message:   fmt.Sprintf("saved %d reports", len(batch)),
	})

	return len(batch), nil
}

// UpdateProgress passes a fine-grained progress report straight through to
// the lifecycle. An empty status keeps the request in chapter generation.
func (s *Service) UpdateProgress(ctx context.Context, trackingCode string, progress int, status, currentStep string) error {
	if status == "" {
		status = requests.StatusGeneratingChapters
	}
	adv := requests.Advance{
		Status:   status,
		Progress: &progress,
	}
	if currentStep != "" {
		adv.CurrentStep = &currentStep
	}
	return s.Requests.Advance(ctx, trackingCode, adv)
}
