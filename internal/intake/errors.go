package intake

import (
	"errors"
	"fmt"
)

// ErrTooManyOrNoFiles is returned when an upload carries zero files or more
// than the per-upload maximum.
var ErrTooManyOrNoFiles = errors.New("upload must contain between 1 and 7 files")

// UnsupportedFileTypeError names the offending file.
type UnsupportedFileTypeError struct {
	FileName string
}

func (e *UnsupportedFileTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s (allowed: .txt, .docx)", e.FileName)
}

// FileTooLargeError names the offending file and the exceeded ceiling.
type FileTooLargeError struct {
	FileName  string
	SizeBytes int64
	MaxBytes  int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file too large: %s (%d bytes, max %d)", e.FileName, e.SizeBytes, e.MaxBytes)
}

// WordCountError carries the actual count and the violated bound.
type WordCountError struct {
	Count int
	Bound int
	Below bool
}

func (e *WordCountError) Error() string {
	if e.Below {
		return fmt.Sprintf("word count %d below minimum %d", e.Count, e.Bound)
	}
	return fmt.Sprintf("word count %d exceeds maximum %d", e.Count, e.Bound)
}

// ValidateWordCount checks a count against the configured [min, max] band.
// Shared by file merge and inline text submission so both surfaces reject on
// the same definition.
func ValidateWordCount(count, minWords, maxWords int) error {
	if count < minWords {
		return &WordCountError{Count: count, Bound: minWords, Below: true}
	}
	if count > maxWords {
		return &WordCountError{Count: count, Bound: maxWords}
	}
	return nil
}
