package intake

import (
	"strings"
	"testing"
)

func TestDetectEncodingUTF8(t *testing.T) {
	if got := DetectEncoding([]byte("نص عربي سليم")); got != EncodingUTF8 {
		t.Fatalf("DetectEncoding = %q, want %q", got, EncodingUTF8)
	}
}

func TestDetectEncodingFallsBackToCP1256(t *testing.T) {
	// "مرحبا" in Windows-1256: not valid UTF-8.
	data := []byte{0xE3, 0xD1, 0xCD, 0xC8, 0xC7}
	if got := DetectEncoding(data); got != EncodingCP1256 {
		t.Fatalf("DetectEncoding = %q, want %q", got, EncodingCP1256)
	}
	if got := DecodeText(data, EncodingCP1256); got != "مرحبا" {
		t.Fatalf("DecodeText = %q, want مرحبا", got)
	}
}

func TestDetectEncodingTreatsEarlyReplacementAsLegacy(t *testing.T) {
	// Valid UTF-8 that already carries a replacement rune near the start is
	// taken as evidence of an upstream decode gone wrong.
	data := []byte("نص " + string('�') + " مشوه")
	if got := DetectEncoding(data); got == EncodingUTF8 {
		t.Fatalf("DetectEncoding = %q, expected fallback away from UTF-8", got)
	}
}

func TestDetectEncodingIgnoresLateReplacement(t *testing.T) {
	prefix := strings.Repeat("ن", replacementScanLimit)
	data := []byte(prefix + string('�'))
	if got := DetectEncoding(data); got != EncodingUTF8 {
		t.Fatalf("DetectEncoding = %q, want %q", got, EncodingUTF8)
	}
}
