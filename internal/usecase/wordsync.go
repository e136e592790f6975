package usecase

import (
	"sync"

	"slpscribe/internal/domain"
)

// FlattenWords concatenates per-utterance word lists in utterance order,
// stamping each word with its utterance's speaker label when the word
// carries none of its own.
func FlattenWords(utterances []domain.Utterance) []domain.Word {
	var words []domain.Word
	for _, utterance := range utterances {
		for _, word := range utterance.Words {
			if word.Speaker == "" {
				word.Speaker = utterance.Speaker
			}
			words = append(words, word)
		}
	}
	return words
}

// activeWordIndex returns the index of the first word whose
// [StartMs, EndMs) interval contains currentTimeMs. When no interval
// matches the previous index is retained, so the highlight does not flicker
// off during pauses between words.
func activeWordIndex(words []domain.Word, currentTimeMs float64, previous int) int {
	for i, word := range words {
		if float64(word.StartMs) <= currentTimeMs && currentTimeMs < float64(word.EndMs) {
			return i
		}
	}
	return previous
}

// WordTracker derives the active word from the playback position. It holds
// the flattened word list of the current transcript and the last reported
// index; playback position is a read-only input produced elsewhere.
type WordTracker struct {
	mu     sync.Mutex
	words  []domain.Word
	active int
}

func NewWordTracker() *WordTracker {
	return &WordTracker{active: domain.NoActiveWord}
}

// SetWords replaces the word list with a new transcript's words and resets
// the active index.
func (t *WordTracker) SetWords(words []domain.Word) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.words = append([]domain.Word(nil), words...)
	t.active = domain.NoActiveWord
}

// Update recomputes the active word for the given playback position and
// reports whether the index changed.
func (t *WordTracker) Update(currentTimeMs float64) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	index := activeWordIndex(t.words, currentTimeMs, t.active)
	changed := index != t.active
	t.active = index
	return index, changed
}

// Active returns the last computed index.
func (t *WordTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// WordCount returns the size of the current word list.
func (t *WordTracker) WordCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.words)
}
