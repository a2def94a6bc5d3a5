// Package intake merges and validates uploaded manuscript files. It accepts
// 1-7 plain-text or .docx files, detects per-file encoding, extracts and
// normalizes the text, and enforces the configured word-count band.
package intake

import (
	"context"
	"path/filepath"
	"strings"

	"shadow7-backend/internal/shared/util"
	"shadow7-backend/internal/textnorm"
)

// MaxFiles is the per-upload file ceiling.
const MaxFiles = 7

// File is one uploaded file, already read into memory.
type File struct {
	Name string
	Data []byte
}

// Limits configures the merge validation band and per-file ceilings. MaxFiles
// zero or negative falls back to the package default.
type Limits struct {
	MinWords     int
	MaxWords     int
	MaxFileBytes int64
	MaxFiles     int
}

// Result is a successful merge.
type Result struct {
	MergedText string
	WordCount  int
	FileCount  int
	// Encoding is the single label applying to the whole upload, or "mixed"
	// when per-file encodings disagreed.
	Encoding  string
	Encodings []string
	FileNames []string
}

// MergeAndValidate extracts, normalizes and concatenates the given files in
// upload order. The aggregate word count is computed on the final merged text,
// never summed from per-file counts.
func MergeAndValidate(ctx context.Context, files []File, limits Limits) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	maxFiles := limits.MaxFiles
	if maxFiles <= 0 {
		maxFiles = MaxFiles
	}
	if len(files) == 0 || len(files) > maxFiles {
		return Result{}, ErrTooManyOrNoFiles
	}

	parts := make([]string, 0, len(files))
	encodings := make([]string, 0, len(files))
	names := make([]string, 0, len(files))

	for _, f := range files {
		name, err := util.SanitizeFileName(f.Name)
		if err != nil {
			return Result{}, &UnsupportedFileTypeError{FileName: f.Name}
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".txt" && ext != ".docx" {
			return Result{}, &UnsupportedFileTypeError{FileName: name}
		}
		if limits.MaxFileBytes > 0 && int64(len(f.Data)) > limits.MaxFileBytes {
			return Result{}, &FileTooLargeError{FileName: name, SizeBytes: int64(len(f.Data)), MaxBytes: limits.MaxFileBytes}
		}

		var text, enc string
		if ext == ".docx" {
			extracted, err := extractDOCX(f.Data)
			if err != nil {
				return Result{}, &UnsupportedFileTypeError{FileName: name}
			}
			// docx extraction normalizes internally, so the declared
			// encoding is always the universal one.
			text, enc = extracted, EncodingUTF8
		} else {
			enc = DetectEncoding(f.Data)
			text = DecodeText(f.Data, enc)
		}

		parts = append(parts, textnorm.Normalize(text))
		encodings = append(encodings, enc)
		names = append(names, name)
	}

	merged := textnorm.Normalize(strings.Join(parts, "\n\n"))
	wordCount := textnorm.CountWords(merged)

	if err := ValidateWordCount(wordCount, limits.MinWords, limits.MaxWords); err != nil {
		return Result{}, err
	}

	encoding := encodings[0]
	for _, enc := range encodings[1:] {
		if enc != encoding {
			encoding = EncodingMixed
			break
		}
	}

	return Result{
		MergedText: merged,
		WordCount:  wordCount,
		FileCount:  len(files),
		Encoding:   encoding,
		Encodings:  encodings,
		FileNames:  names,
	}, nil
}
