// Package artifacts is the stage ledger: outline, chapters and reports
// delivered by the external generation workflow, keyed by the owning request.
package artifacts

import "time"

// ChapterStub is one planned chapter inside an outline.
type ChapterStub struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary,omitempty"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// Outline is the book plan produced before chapter generation. At most one
// outline exists per request.
type Outline struct {
	ID               string
	RequestID        string
	BookTitle        string
	BookSubtitle     string
	BookSummary      string
	Chapters         []ChapterStub
	ChapterCount     int
	ModelUsed        string
	GenerationTimeMS int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Chapter is one generated chapter, unique per (request, number).
type Chapter struct {
	ID            string
	RequestID     string
	Number        int
	Title         string
	Content       string
	WordCount     int
	EndingSummary string
	CompletedAt   time.Time
}

// Report is one consulting report, unique per (request, type).
type Report struct {
	ID        string
	RequestID string
	Type      string
	Title     string
	Content   map[string]any
	Scores    map[string]any
	CreatedAt time.Time
}
