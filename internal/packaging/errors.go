package packaging

import "errors"

var (
	// ErrNotFound indicates no request matches the tracking code.
	ErrNotFound = errors.New("request not found")
	// ErrNotReady indicates the request has not reached the success terminal
	// state yet.
	ErrNotReady = errors.New("request not completed")
	// ErrExpired indicates the download link has passed its expiry.
	ErrExpired = errors.New("download link expired")
	// ErrFileMissing indicates the delivery record or archive file is gone.
	ErrFileMissing = errors.New("package file missing")
)
