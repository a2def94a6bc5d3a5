// Package omni is the multi-file front door: a standalone intake that merges
// uploaded manuscripts and runs an optional semantic purge over the result.
package omni

import "time"

// Intake is one merged multi-file upload.
type Intake struct {
	ID            string
	TrackingCode  string
	MergedContent string
	WordCount     int
	FileCount     int
	Encoding      string
	PurgeReport   map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
