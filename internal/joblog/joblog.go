// Package joblog appends pipeline audit entries to the job log. Logging is
// best effort: a failed append must never fail the operation that produced it.
package joblog

import "context"

// Levels recorded against entries.
const (
	LevelInfo  = "info"
	LevelWarn  = "warning"
	LevelError = "error"
)

// Entry is one audit record for a request's pipeline run.
type Entry struct {
	RequestID string
	Level     string
	Module    string
	Message   string
	Details   map[string]any
}

// Appender records pipeline audit entries.
type Appender interface {
	Append(ctx context.Context, e Entry)
}

// Noop discards every entry.
type Noop struct{}

func (Noop) Append(ctx context.Context, e Entry) {}

var _ Appender = Noop{}
