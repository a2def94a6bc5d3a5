package requests

import "time"

// Lifecycle statuses for a manuscript request. Transitions run pending ->
// outlining -> generating_chapters -> packaging -> completed, with failed as
// the terminal failure state reachable from anywhere.
const (
	StatusPending            = "pending"
	StatusOutlining          = "outlining"
	StatusGeneratingChapters = "generating_chapters"
	StatusPackaging          = "packaging"
	StatusCompleted          = "completed"
	StatusFailed             = "failed"
)

// Progress checkpoints reported at the coarse stage boundaries. The external
// engine fills in finer-grained values between them.
const (
	ProgressChaptersStarted = 15
	ProgressPackaging       = 85
	ProgressCompleted       = 100
)

// Human-readable step labels shown to the submitter while tracking.
const (
	StepGeneratingChapters = "جاري توليد الفصول"
	StepPackaging          = "جاري تجهيز الحزمة"
	StepCompleted          = "اكتمل التوليد"
)

// ManuscriptRequest is one submitted manuscript moving through the pipeline.
type ManuscriptRequest struct {
	ID             string
	TrackingCode   string
	UserEmail      string
	UserName       string
	RawText        string
	WordCountIn    int
	FileName       string
	TargetAudience string
	BookGenre      string
	ToneOfVoice    string
	Platform       string
	Language       string
	IPAddress      string
	UserAgent      string
	Status         string
	Progress       int
	CurrentStep    string
	ErrorMessage   string
	CreatedAt      time.Time
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// Advance describes one lifecycle transition. Status is always applied; nil
// optional fields leave the stored column untouched.
type Advance struct {
	Status       string
	Progress     *int
	CurrentStep  *string
	ErrorMessage *string
}

// IsTerminal reports whether status is one of the two terminal states.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}
