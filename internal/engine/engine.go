// Package engine triggers the external generation workflow over HTTP. The
// workflow runs out of process and reports back through the callback
// endpoints; this package only covers the outbound leg.
package engine

import "context"

// TriggerPayload is the body posted to the workflow webhook.
type TriggerPayload struct {
	TrackingID  string            `json:"tracking_id"`
	RequestID   string            `json:"request_id"`
	UserEmail   string            `json:"user_email"`
	UserName    string            `json:"user_name,omitempty"`
	RawText     string            `json:"raw_text"`
	WordCount   int               `json:"word_count"`
	Preferences map[string]string `json:"preferences"`
	CallbackURL string            `json:"callback_url"`
}

// Trigger starts the generation workflow for one request.
type Trigger interface {
	TriggerGeneration(ctx context.Context, p TriggerPayload) error
}

// Noop ignores triggers. Used when no webhook URL is configured.
type Noop struct{}

func (Noop) TriggerGeneration(ctx context.Context, p TriggerPayload) error { return nil }

var _ Trigger = Noop{}
