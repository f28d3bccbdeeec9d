package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEmptyPrevious(t *testing.T) {
	merged, newText := Merge("", "hello world")
	assert.Equal(t, "hello world", merged)
	assert.Equal(t, "hello world", newText)
}

func TestMergeEmptyCurrent(t *testing.T) {
	merged, newText := Merge("hello world", "")
	assert.Equal(t, "hello world", merged)
	assert.Equal(t, "", newText)
}

func TestMergeBothEmpty(t *testing.T) {
	merged, newText := Merge("", "")
	assert.Equal(t, "", merged)
	assert.Equal(t, "", newText)
}

func TestMergeBoundaryOverlap(t *testing.T) {
	merged, newText := Merge("Hello world", "world how are")
	assert.Equal(t, "Hello world how are", merged)
	assert.Equal(t, "how are", newText)
}

func TestMergeMultiTokenOverlap(t *testing.T) {
	merged, newText := Merge("I went to the", "to the store")
	assert.Equal(t, "I went to the store", merged)
	assert.Equal(t, "store", newText)
}

func TestMergeNoOverlapConcatenates(t *testing.T) {
	merged, newText := Merge("Complete sentence.", "New sentence.")
	assert.Equal(t, "Complete sentence. New sentence.", merged)
	assert.Equal(t, "New sentence.", newText)
}

func TestMergeEllipsisJoin(t *testing.T) {
	merged, newText := Merge("Um...", "...I think")
	assert.Equal(t, "Um... I think", merged)
	assert.Equal(t, "I think", newText)
	assert.Equal(t, 1, strings.Count(merged, "..."))
}

func TestMergeEllipsisOnlyCurrent(t *testing.T) {
	merged, newText := Merge("Um...", "...")
	assert.Equal(t, "Um...", merged)
	assert.Equal(t, "", newText)
}

func TestMergeFullOverlapAddsNothing(t *testing.T) {
	merged, newText := Merge("and then I said", "then I said")
	assert.Equal(t, "and then I said", merged)
	assert.Equal(t, "", newText)
}

func TestMergePrefersLongestOverlap(t *testing.T) {
	// "a b" repeats; the 4-token overlap must win over the 2-token one
	merged, newText := Merge("x a b a b", "a b a b c")
	assert.Equal(t, "x a b a b c", merged)
	assert.Equal(t, "c", newText)
}

func TestMergeOverlapRequiresExactTokens(t *testing.T) {
	merged, newText := Merge("Hello world.", "world how")
	// "world." != "world", so no overlap is found
	assert.Equal(t, "Hello world. world how", merged)
	assert.Equal(t, "world how", newText)
}

func TestMergeIsTotal(t *testing.T) {
	// the merge must never panic, whatever the backend returns
	inputs := []string{
		"", " ", "\t\n", "...", ".....", "a", "🎤 🎤 🎤",
		strings.Repeat("word ", 500), "\x00\x01", "日本語 テスト",
	}
	for _, prev := range inputs {
		for _, curr := range inputs {
			require.NotPanics(t, func() {
				Merge(prev, curr)
			})
		}
	}
}

func TestFindOverlap(t *testing.T) {
	assert.Equal(t, 0, FindOverlap(nil, nil))
	assert.Equal(t, 0, FindOverlap([]string{"a"}, nil))
	assert.Equal(t, 1, FindOverlap([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, 2, FindOverlap([]string{"a", "b", "c"}, []string{"b", "c", "d"}))
	assert.Equal(t, 0, FindOverlap([]string{"a"}, []string{"b"}))
}

func TestFindOverlapIsBounded(t *testing.T) {
	tokens := strings.Fields(strings.Repeat("same ", 30))
	assert.Equal(t, 10, FindOverlap(tokens, tokens))
}

func TestTokenize(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   "))
	assert.Equal(t, []string{"Hello,", "world!"}, Tokenize("  Hello,   world!\n"))
}

func TestClean(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  hello   world  ", "hello world"},
		{"word .", "word."},
		{"word ,next", "word, next"},
		{"end.Start", "end. Start"},
		{"fine. Already spaced", "fine. Already spaced"},
		{"one\ntwo\tthree", "one two three"},
	} {
		assert.Equal(t, tc.want, Clean(tc.in), "Clean(%q)", tc.in)
	}
}

func TestEnsureLeadingSpace(t *testing.T) {
	for _, tc := range []struct {
		prev string
		next string
		want string
	}{
		{"", "next", "next"},
		{"prev", "", ""},
		{"sentence.", "Next", " Next"},
		{"word", "next", " next"},
		{"year 2024", "was", " was"},
		{"quote)", "and", " and"},
		{"word", ", comma", ", comma"},
		{"word ", " next", " next"},
		{"ends with.", "...", "..."},
	} {
		assert.Equal(t, tc.want, EnsureLeadingSpace(tc.prev, tc.next), "EnsureLeadingSpace(%q, %q)", tc.prev, tc.next)
	}
}
