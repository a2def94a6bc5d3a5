// Package packaging assembles the final delivery archive from the stage
// ledger and gates downloads on completion and expiry.
package packaging

import "time"

// Delivery is the durable record of one assembled package.
type Delivery struct {
	ID             string
	RequestID      string
	ZipFilePath    string
	ZipFileURL     string
	ZipFileSize    int64
	InternalISBN   string
	WordCountFinal int
	ExpiresAt      time.Time
	DownloadCount  int
	LastDownloaded *time.Time
	EmailSent      bool
	EmailSentAt    *time.Time
	CreatedAt      time.Time
}

// PackageTTL is the default lifetime of a download link.
const PackageTTL = 7 * 24 * time.Hour
