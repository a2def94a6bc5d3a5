package intake

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding labels reported to callers.
const (
	EncodingUTF8   = "UTF-8"
	EncodingCP1256 = "CP1256"
	EncodingMixed  = "mixed"
)

// replacementScanLimit bounds how far DetectEncoding looks for replacement
// characters when judging a UTF-8 decode.
const replacementScanLimit = 1000

// DetectEncoding tries UTF-8 first and falls back to Windows-1256, the legacy
// 8-bit Arabic code page. When neither decodes cleanly it defaults to UTF-8
// and accepts possible mojibake.
func DetectEncoding(data []byte) string {
	if utf8.Valid(data) && !hasEarlyReplacement(string(data)) {
		return EncodingUTF8
	}
	if _, err := charmap.Windows1256.NewDecoder().Bytes(data); err == nil {
		return EncodingCP1256
	}
	return EncodingUTF8
}

// DecodeText decodes raw bytes using a label returned by DetectEncoding.
func DecodeText(data []byte, encoding string) string {
	if encoding == EncodingCP1256 {
		decoded, err := charmap.Windows1256.NewDecoder().Bytes(data)
		if err == nil {
			return string(decoded)
		}
	}
	return string(data)
}

func hasEarlyReplacement(text string) bool {
	scanned := 0
	for _, r := range text {
		if r == '�' {
			return true
		}
		scanned++
		if scanned >= replacementScanLimit {
			break
		}
	}
	return false
}
