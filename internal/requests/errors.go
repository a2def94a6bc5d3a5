package requests

import "errors"

// ErrNotFound indicates no request matches the given tracking code.
var ErrNotFound = errors.New("request not found")

// ErrInvalidInput indicates a submission or callback failed validation.
var ErrInvalidInput = errors.New("invalid input")
