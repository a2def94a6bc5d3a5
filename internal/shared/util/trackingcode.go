package util

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// TrackingCodePrefix is the public prefix of every tracking code.
const TrackingCodePrefix = "S7-"

// NewTrackingCode returns a fresh tracking code of the form S7-XXXXXXXX where
// X is an uppercase hex digit.
func NewTrackingCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return TrackingCodePrefix + strings.ToUpper(hex.EncodeToString(b))
}

// IsTrackingCode reports whether s has the public tracking-code shape.
func IsTrackingCode(s string) bool {
	if len(s) != len(TrackingCodePrefix)+8 || !strings.HasPrefix(s, TrackingCodePrefix) {
		return false
	}
	for _, r := range s[len(TrackingCodePrefix):] {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}
