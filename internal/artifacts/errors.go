package artifacts

import "errors"

// ErrNotFound indicates no artifact of the requested kind exists for the
// request.
var ErrNotFound = errors.New("artifact not found")
