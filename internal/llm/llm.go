// Package llm abstracts the language-model provider used by the semantic
// purge stage.
package llm

import (
	"context"
	"errors"
)

// PurgeAnalysis is the structured result of a semantic purge pass.
type PurgeAnalysis struct {
	Duplicates     int `json:"duplicates"`
	Outliers       int `json:"outliers"`
	ThematicShifts int `json:"thematic_shifts"`
	WordCountAfter int `json:"word_count_after"`
	AnomaliesFixed int `json:"anomalies_fixed"`
}

// Client abstracts LLM providers for purge analysis.
type Client interface {
	AnalyzePurge(ctx context.Context, text string) (PurgeAnalysis, error)
}

// ErrNotConfigured is returned when no provider credentials are available.
// Callers degrade to a zero report instead of failing the purge.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient is used when no provider is wired.
type PlaceholderClient struct{}

// AnalyzePurge returns ErrNotConfigured.
func (PlaceholderClient) AnalyzePurge(ctx context.Context, text string) (PurgeAnalysis, error) {
	_ = ctx
	_ = text
	return PurgeAnalysis{}, ErrNotConfigured
}
