package requests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shadow7-backend/internal/engine"
	"shadow7-backend/internal/intake"
	"shadow7-backend/internal/joblog"
	"shadow7-backend/internal/shared/metrics"
	"shadow7-backend/internal/shared/telemetry"
	"shadow7-backend/internal/shared/util"
	"shadow7-backend/internal/textnorm"
)

// Preference defaults applied when the submitter leaves a field blank.
const (
	DefaultAudience = "عام"
	DefaultGenre    = "آخر"
	DefaultTone     = "رسمي"
	DefaultPlatform = "kindle"
	DefaultLanguage = "ar"
)

// DeliveryInfo is the download projection attached to a completed request's
// tracking view.
type DeliveryInfo struct {
	DownloadURL    string
	InternalISBN   string
	WordCountFinal int
	DownloadCount  int
	ExpiresAt      time.Time
}

// DeliveryReader looks up delivery info for a request. Implemented by the
// packaging layer and wired in at bootstrap.
type DeliveryReader interface {
	DeliveryForRequest(ctx context.Context, requestID string) (DeliveryInfo, bool, error)
}

// SubmitInput carries one manuscript submission, inline or pre-merged from
// uploaded files.
type SubmitInput struct {
	UserEmail      string
	UserName       string
	RawText        string
	TargetAudience string
	BookGenre      string
	ToneOfVoice    string
	Platform       string
	Language       string
	FileName       string
	IPAddress      string
	UserAgent      string
}

// TrackView is the read-only tracking projection.
type TrackView struct {
	TrackingCode string
	Status       string
	Progress     int
	CurrentStep  string
	ErrorMessage string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	Delivery     *DeliveryInfo
}

// Service contains the submission and lifecycle business logic.
type Service struct {
	Repo        Repo
	Log         joblog.Appender
	Engine      engine.Trigger
	Deliveries  DeliveryReader
	CallbackURL string
	MinWords    int
	MaxWords    int
}

// Submit validates and stores a new manuscript request, then triggers the
// generation workflow in the background. The caller gets a tracking code
// before the workflow is even contacted.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (ManuscriptRequest, error) {
	email := strings.TrimSpace(in.UserEmail)
	if email == "" {
		return ManuscriptRequest{}, ErrInvalidInput
	}

	text := textnorm.Normalize(in.RawText)
	wordCount := textnorm.CountWords(text)
	if err := intake.ValidateWordCount(wordCount, s.MinWords, s.MaxWords); err != nil {
		return ManuscriptRequest{}, err
	}

	req := ManuscriptRequest{
		ID:             uuid.NewString(),
		TrackingCode:   util.NewTrackingCode(),
		UserEmail:      email,
		UserName:       strings.TrimSpace(in.UserName),
		RawText:        text,
		WordCountIn:    wordCount,
		FileName:       in.FileName,
		TargetAudience: defaultIfEmpty(in.TargetAudience, DefaultAudience),
		BookGenre:      defaultIfEmpty(in.BookGenre, DefaultGenre),
		ToneOfVoice:    defaultIfEmpty(in.ToneOfVoice, DefaultTone),
		Platform:       defaultIfEmpty(in.Platform, DefaultPlatform),
		Language:       defaultIfEmpty(in.Language, DefaultLanguage),
		IPAddress:      in.IPAddress,
		UserAgent:      in.UserAgent,
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, req); err != nil {
		return ManuscriptRequest{}, err
	}

	s.Log.Append(ctx, joblog.Entry{
		RequestID: req.ID,
		Module:    "gatekeeper",
		Message:   fmt.Sprintf("طلب جديد: %d كلمة", wordCount),
		Details:   map[string]any{"email": req.UserEmail, "genre": req.BookGenre},
	})
	metrics.IncSubmitted()

	if s.Engine != nil {
		go s.triggerGeneration(req)
	}

	return req, nil
}

// triggerGeneration fires the workflow webhook for a freshly created request.
// Failures are logged and leave the request pending; nothing is rolled back.
func (s *Service) triggerGeneration(req ManuscriptRequest) {
	ctx := context.Background()
	payload := engine.TriggerPayload{
		TrackingID: req.TrackingCode,
		RequestID:  req.ID,
		UserEmail:  req.UserEmail,
		UserName:   req.UserName,
		RawText:    req.RawText,
		WordCount:  req.WordCountIn,
		Preferences: map[string]string{
			"target_audience": req.TargetAudience,
			"book_genre":      req.BookGenre,
			"tone_of_voice":   req.ToneOfVoice,
			"platform":        req.Platform,
			"language":        req.Language,
		},
		CallbackURL: s.CallbackURL,
	}
	if err := s.Engine.TriggerGeneration(ctx, payload); err != nil {
		telemetry.Warn("engine trigger failed", map[string]any{
			"tracking_code": req.TrackingCode,
			"error":         err.Error(),
		})
		s.Log.Append(ctx, joblog.Entry{
			RequestID: req.ID,
			Level:     joblog.LevelWarn,
			Module:    "gatekeeper",
			Message:   "engine trigger failed",
			Details:   map[string]any{"error": err.Error()},
		})
	}
}

// Track returns the tracking projection for a request, including delivery
// info once the request has completed.
func (s *Service) Track(ctx context.Context, trackingCode string) (TrackView, error) {
	req, err := s.Repo.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return TrackView{}, err
	}

	view := TrackView{
		TrackingCode: req.TrackingCode,
		Status:       req.Status,
		Progress:     req.Progress,
		CurrentStep:  req.CurrentStep,
		ErrorMessage: req.ErrorMessage,
		CreatedAt:    req.CreatedAt,
		StartedAt:    req.StartedAt,
		CompletedAt:  req.CompletedAt,
	}

	if req.Status == StatusCompleted && s.Deliveries != nil {
		info, ok, err := s.Deliveries.DeliveryForRequest(ctx, req.ID)
		if err != nil {
			telemetry.Warn("delivery lookup failed", map[string]any{
				"tracking_code": trackingCode,
				"error":         err.Error(),
			})
		} else if ok {
			view.Delivery = &info
		}
	}

	return view, nil
}

// HandleCompletion applies the workflow's terminal callback. Only the two
// terminal statuses are accepted.
func (s *Service) HandleCompletion(ctx context.Context, trackingCode, status, errorMessage string) error {
	if !IsTerminal(status) {
		return ErrInvalidInput
	}

	req, err := s.Repo.GetByTrackingCode(ctx, trackingCode)
	if err != nil {
		return err
	}

	switch status {
	case StatusCompleted:
		progress := ProgressCompleted
		step := StepCompleted
		if err := s.Repo.Advance(ctx, trackingCode, Advance{
			Status:      StatusCompleted,
			Progress:    &progress,
			CurrentStep: &step,
		}); err != nil {
			return err
		}
		metrics.IncCompleted()
		s.Log.Append(ctx, joblog.Entry{
			RequestID: req.ID,
			Module:    "lifecycle",
			Message:   "generation completed",
		})
	case StatusFailed:
		if err := s.Repo.Advance(ctx, trackingCode, Advance{
			Status:       StatusFailed,
			ErrorMessage: &errorMessage,
		}); err != nil {
			return err
		}
		metrics.IncFailed()
		s.Log.Append(ctx, joblog.Entry{
			RequestID: req.ID,
			Level:     joblog.LevelError,
			Module:    "lifecycle",
			Message:   "generation failed",
			Details:   map[string]any{"error": errorMessage},
		})
	}

	return nil
}

func defaultIfEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
