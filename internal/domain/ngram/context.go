package ngram

import (
	"fmt"
	"strings"
)

// MaxPrecedingWords is the system-wide cap on window length: the maximum
// n-gram order dictionary lookups support, minus the word being composed.
const MaxPrecedingWords = 3

// Context is an ordered window of WordInfo slots: index 0 is the most recent
// preceding word, index k the (k+1)-th most recent. Length never exceeds
// MaxPrecedingWords; the cap is enforced at construction, not just on
// Extend.
//
// Context is an immutable value type. Every deriving operation returns a new
// window, so values are safe to share across goroutines without locking.
type Context struct {
	words []WordInfo
}

// EmptyContext signals "no usable context". Callers must not feed it into
// prediction lookups; it exists so a reset composing session has a defined
// window value.
var EmptyContext = NewContext(EmptyWordInfo)

// BeginningOfSentenceContext is the window at the start of an input field or
// right after a sentence separator.
var BeginningOfSentenceContext = NewContext(BeginningOfSentenceWordInfo)

// NewContext returns a window of length 1 holding the given slot.
func NewContext(w WordInfo) Context {
	return Context{words: []WordInfo{w}}
}

// NewContextFromWords returns a window over the given slots, most recent
// first. The slice is copied and hard-capped at MaxPrecedingWords, dropping
// the least recent slots. Used when a host restores a window it serialized.
func NewContextFromWords(words []WordInfo) Context {
	n := min(len(words), MaxPrecedingWords)
	copied := make([]WordInfo, n)
	copy(copied, words[:n])
	return Context{words: copied}
}

// Extend returns the window after accepting one more word: w lands at index
// 0, every prior slot shifts right by one, and the least recent slot falls
// off once the window is at capacity.
func (c Context) Extend(w WordInfo) Context {
	n := min(MaxPrecedingWords, len(c.words)+1)
	words := make([]WordInfo, n)
	words[0] = w
	copy(words[1:], c.words)
	return Context{words: words}
}

// Trim returns the window keeping only the first min(maxCount, Len()) slots,
// most-recent-first order preserved. maxCount must be non-negative; a
// negative count is a programming error, not a recoverable failure.
func (c Context) Trim(maxCount int) Context {
	n := min(maxCount, len(c.words))
	words := make([]WordInfo, n)
	copy(words, c.words[:n])
	return Context{words: words}
}

// Len returns the current window length.
func (c Context) Len() int {
	return len(c.words)
}

// At returns the slot at index i (0 = most recent preceding word).
func (c Context) At(i int) WordInfo {
	return c.words[i]
}

// IsValid reports whether the window carries usable context: it is non-empty
// and its most recent slot is valid. Invalid windows must not reach
// prediction lookups.
func (c Context) IsValid() bool {
	return len(c.words) > 0 && c.words[0].IsValid()
}

// CodePointRows renders the window into the parallel-array shape binary
// n-gram lookups consume: per slot, the word's code points (empty for
// invalid slots) and its beginning-of-sentence flag (false for invalid
// slots). Ordering matches the window exactly, index 0 most recent.
func (c Context) CodePointRows() (codePoints [][]rune, beginningOfSentence []bool) {
	codePoints = make([][]rune, len(c.words))
	beginningOfSentence = make([]bool, len(c.words))
	for i, w := range c.words {
		if !w.IsValid() {
			codePoints[i] = []rune{}
			continue
		}
		codePoints[i] = []rune(w.Word())
		beginningOfSentence[i] = w.IsBeginningOfSentence()
	}
	return codePoints, beginningOfSentence
}

// Equal compares two windows element-wise up to the shorter length. The
// longer window's remaining tail must consist only of invalid slots for the
// windows to still count as equal: trailing "no information" padding never
// breaks equality.
func (c Context) Equal(o Context) bool {
	n := min(len(c.words), len(o.words))
	for i := 0; i < n; i++ {
		if !c.words[i].Equal(o.words[i]) {
			return false
		}
	}
	longer := c.words
	if len(o.words) > len(c.words) {
		longer = o.words
	}
	for _, w := range longer[n:] {
		if !w.Equal(EmptyWordInfo) {
			return false
		}
	}
	return true
}

// Hash is derived from the most recent slot only. Windows that Equal
// reports equal under tail padding therefore always hash identically, but
// so do windows that differ beyond index 0 — Hash is a coarse key, and
// Equal is the authority.
func (c Context) Hash() uint64 {
	if len(c.words) == 0 {
		return EmptyWordInfo.hash()
	}
	return c.words[0].hash()
}

// String renders the window slot by slot for diagnostics.
func (c Context) String() string {
	var b strings.Builder
	for i, w := range c.words {
		fmt.Fprintf(&b, "PrevWord[%d]: ", i)
		if !w.IsValid() {
			b.WriteString("Empty. ")
			continue
		}
		fmt.Fprintf(&b, "%s, isBeginningOfSentence: %v. ", w.Word(), w.IsBeginningOfSentence())
	}
	return b.String()
}
