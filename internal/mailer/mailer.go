// Package mailer sends delivery notifications to submitters. Sending is
// always best effort; the pipeline never fails because an email did not go
// out.
package mailer

import (
	"context"
	"time"
)

// DownloadNotice carries everything the delivery email needs.
type DownloadNotice struct {
	To           string
	Name         string
	TrackingCode string
	DownloadURL  string
	ExpiresAt    time.Time
}

// Mailer sends delivery notifications.
type Mailer interface {
	SendDownloadLink(ctx context.Context, n DownloadNotice) error
}

// Noop discards every notification. Used when SMTP is not configured.
type Noop struct{}

func (Noop) SendDownloadLink(ctx context.Context, n DownloadNotice) error { return nil }

var _ Mailer = Noop{}
