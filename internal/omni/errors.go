package omni

import "errors"

// ErrNotFound indicates no intake matches the tracking code.
var ErrNotFound = errors.New("intake not found")
