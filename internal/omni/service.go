package omni

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"shadow7-backend/internal/intake"
	"shadow7-backend/internal/llm"
	"shadow7-backend/internal/shared/telemetry"
	"shadow7-backend/internal/shared/util"
)

// PurgeResult is what the purge stage reports back to the client.
type PurgeResult struct {
	PurgeReport    map[string]any
	WordCount      int
	WordCountAfter int
	AnomaliesFixed int
}

// Service contains the intake and purge business logic.
type Service struct {
	Repo   Repo
	LLM    llm.Client
	Limits intake.Limits
}

// Upload merges and validates the uploaded files and stores the intake under
// a fresh tracking code.
func (s *Service) Upload(ctx context.Context, files []intake.File) (Intake, error) {
	merged, err := intake.MergeAndValidate(ctx, files, s.Limits)
	if err != nil {
		return Intake{}, err
	}

	in := Intake{
		ID:            uuid.NewString(),
		TrackingCode:  util.NewTrackingCode(),
		MergedContent: merged.MergedText,
		WordCount:     merged.WordCount,
		FileCount:     merged.FileCount,
		Encoding:      merged.Encoding,
	}
	if err := s.Repo.Create(ctx, in); err != nil {
		return Intake{}, err
	}
	return in, nil
}

// Purge runs the semantic purge over a stored intake. When no LLM provider
// is configured the purge degrades to a zero report instead of failing.
func (s *Service) Purge(ctx context.Context, trackingCode string) (PurgeResult, error) {
	in, err := s.Repo.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return PurgeResult{}, err
	}

	result := PurgeResult{
		WordCount:      in.WordCount,
		WordCountAfter: in.WordCount,
	}

	analysis, err := s.LLM.AnalyzePurge(ctx, in.MergedContent)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			return PurgeResult{}, err
		}
		telemetry.Warn("purge provider not configured, returning zero report", map[string]any{
			"tracking_code": trackingCode,
		})
		analysis = llm.PurgeAnalysis{}
	}

	result.PurgeReport = map[string]any{
		"duplicates":      analysis.Duplicates,
		"outliers":        analysis.Outliers,
		"thematic_shifts": analysis.ThematicShifts,
	}
	if analysis.WordCountAfter > 0 {
		result.WordCountAfter = analysis.WordCountAfter
	}
	result.AnomaliesFixed = analysis.AnomaliesFixed

	if err := s.Repo.UpdatePurgeReport(ctx, trackingCode, result.PurgeReport); err != nil {
		return PurgeResult{}, err
	}

	return result, nil
}
