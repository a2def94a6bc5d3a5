// Package textnorm canonicalizes Arabic manuscript text before it enters the
// pipeline. Normalize is pure and idempotent: applying it twice yields the
// same output as applying it once.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Arabic-script variant folding. Each variant maps onto one canonical code
// point so word counting and downstream generation see a single spelling.
var foldTable = map[rune]rune{
	'ی': 'ي', // Farsi yeh -> Arabic yeh
	'ک': 'ك', // Farsi kaf -> Arabic kaf
	'ى': 'ي', // alef maksura -> yeh
	'آ': 'ا', // alef with madda -> alef
	'أ': 'ا', // alef with hamza above -> alef
	'إ': 'ا', // alef with hamza below -> alef
	'ٱ': 'ا', // alef wasla -> alef
	'ۃ': 'ة', // teh marbuta goal -> teh marbuta
}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	periodRun      = regexp.MustCompile(`\.{3,}`)
	exclamationRun = regexp.MustCompile(`!{2,}`)
	questionRun    = regexp.MustCompile(`\?{2,}`)
)

// Normalize applies NFC composition, Arabic variant folding, whitespace
// collapsing and punctuation de-duplication.
func Normalize(text string) string {
	// Folding can strip a precomposed hamza while a combining mark survives,
	// which NFC then recomposes into another foldable form. Compose-and-fold
	// repeats until the text is stable.
	for {
		next := strings.Map(foldRune, norm.NFC.String(text))
		if next == text {
			break
		}
		text = next
	}
	text = periodRun.ReplaceAllString(text, "...")
	text = exclamationRun.ReplaceAllString(text, "!")
	text = questionRun.ReplaceAllString(text, "?")
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func foldRune(r rune) rune {
	if folded, ok := foldTable[r]; ok {
		return folded
	}
	return r
}

// CountWords counts whitespace-delimited non-empty tokens. This is the single
// word-count definition used everywhere counts are validated or reported.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
