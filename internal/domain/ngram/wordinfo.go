// Package ngram models the preceding-words context used to key n-gram
// dictionary lookups: an immutable, ordered window of the most recent words
// (or sentence-boundary/unknown markers) before the word being composed.
package ngram

import "hash/fnv"

// WordInfo describes one slot in a preceding-words window: a concrete prior
// word, the beginning-of-sentence marker, or no usable context at all.
// The zero value is the "no usable context" slot.
type WordInfo struct {
	word                string
	valid               bool
	beginningOfSentence bool
}

// EmptyWordInfo marks a slot with no usable context for that position — not
// a word, and not a sentence start either. An example is the slot right
// after a comma: there is a boundary, but nothing to predict from.
var EmptyWordInfo = WordInfo{}

// BeginningOfSentenceWordInfo marks a sentence start: nothing precedes the
// composed word because an input field or a new sentence begins there. It
// carries no text but is valid context, unlike EmptyWordInfo.
var BeginningOfSentenceWordInfo = WordInfo{valid: true, beginningOfSentence: true}

// NewWordInfo returns the slot for a concrete prior word.
func NewWordInfo(word string) WordInfo {
	return WordInfo{word: word, valid: true}
}

// Word returns the slot's text. Empty for the beginning-of-sentence marker
// and for invalid slots.
func (w WordInfo) Word() string {
	return w.word
}

// IsValid reports whether the slot carries usable context (a word or the
// beginning-of-sentence marker).
func (w WordInfo) IsValid() bool {
	return w.valid
}

// IsBeginningOfSentence reports whether the slot is the sentence-start
// marker.
func (w WordInfo) IsBeginningOfSentence() bool {
	return w.beginningOfSentence
}

// Equal reports value equality: two invalid slots are equal iff their
// sentence-start flags match; two valid slots are equal iff both text and
// flag match. A valid slot never equals an invalid one.
func (w WordInfo) Equal(o WordInfo) bool {
	if !w.valid || !o.valid {
		return w.valid == o.valid && w.beginningOfSentence == o.beginningOfSentence
	}
	return w.word == o.word && w.beginningOfSentence == o.beginningOfSentence
}

// hash folds the slot into a 64-bit FNV-1a value.
func (w WordInfo) hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(w.word))
	var flags [2]byte
	if w.valid {
		flags[0] = 1
	}
	if w.beginningOfSentence {
		flags[1] = 1
	}
	h.Write(flags[:])
	return h.Sum64()
}
