// Package transcript merges per-chunk transcription results into one
// running text. Consecutive chunks share a little audio at their boundary,
// so the backend usually transcribes a few words twice; the merge finds the
// token overlap and drops the duplicate. Everything here is a total
// function over strings: no input, however malformed, is an error.
package transcript

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxOverlapTokens bounds the boundary search; overlaps longer than this
// would mean the chunk overlap carried multiple sentences of audio.
const maxOverlapTokens = 10

// Tokenize splits text on whitespace, keeping punctuation attached to its
// word.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

// FindOverlap returns the length of the longest suffix of prev that equals
// a prefix of curr, trying sizes from min(maxOverlapTokens, len(prev),
// len(curr)) down to 1. The largest match wins.
func FindOverlap(prev, curr []string) int {
	maxOverlap := min(maxOverlapTokens, len(prev), len(curr))

	for size := maxOverlap; size >= 1; size-- {
		if tokensEqual(prev[len(prev)-size:], curr[:size]) {
			return size
		}
	}
	return 0
}

func tokensEqual(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Merge combines the accumulated transcript with a new chunk's text,
// deduplicating the boundary overlap. It returns the merged transcript and
// the newly added text (empty when the chunk added nothing).
func Merge(previous, current string) (merged string, newText string) {
	if previous == "" {
		return current, current
	}
	if current == "" {
		return previous, ""
	}

	// a trailing and a leading ellipsis at a pause boundary would double up
	if strings.HasSuffix(strings.TrimRight(previous, " \t\r\n"), "...") &&
		strings.HasPrefix(strings.TrimLeft(current, " \t\r\n"), "...") {
		rest := strings.TrimLeft(strings.TrimLeft(current, " \t\r\n"), ".")
		rest = strings.TrimLeft(rest, " \t\r\n")
		if rest == "" {
			return previous, ""
		}
		return previous + " " + rest, rest
	}

	prevTokens := Tokenize(previous)
	currTokens := Tokenize(current)

	overlap := FindOverlap(prevTokens, currTokens)
	if overlap == 0 {
		return previous + " " + current, current
	}

	remaining := currTokens[overlap:]
	if len(remaining) == 0 {
		return previous, ""
	}
	newText = strings.Join(remaining, " ")
	return previous + " " + newText, newText
}

var (
	whitespaceRE      = regexp.MustCompile(`\s+`)
	spaceBeforePunct  = regexp.MustCompile(`\s+([.,!?;:])`)
	missingSpaceAfter = regexp.MustCompile(`([.,!?;:])([A-Za-z])`)
)

// Clean normalizes whitespace and punctuation spacing in transcribed text:
// runs of whitespace collapse to one space, "word ." tightens to "word.",
// and a letter directly after sentence punctuation gets its space back.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRE.ReplaceAllString(strings.TrimSpace(text), " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = missingSpaceAfter.ReplaceAllString(text, "$1 $2")
	return text
}

// EnsureLeadingSpace guards the seam between already-emitted text and the
// next fragment: backends sometimes drop the natural space at a chunk
// boundary, producing "word.Next" or "wordnext" artifacts when the fragment
// is typed out.
func EnsureLeadingSpace(previous, next string) string {
	if previous == "" || next == "" {
		return next
	}

	p := strings.TrimRight(previous, " \t\r\n")
	n := strings.TrimLeft(next, " \t\r\n")
	if p == "" || n == "" {
		return next
	}

	last, _ := utf8.DecodeLastRuneInString(p)
	first, _ := utf8.DecodeRuneInString(n)

	if strings.ContainsRune(".!?;:,)]}", last) && unicode.IsLetter(first) {
		return " " + n
	}
	if isAlphanumeric(last) && isAlphanumeric(first) {
		return " " + n
	}
	return next
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
