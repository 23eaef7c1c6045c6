package tutor

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Confusion scoring policy. These are the most likely tuning points, so they
// live here as named constants rather than inline literals.
const (
	confusionWindowSize = 5

	negativeWeight   = 0.6
	repetitionWeight = 0.4

	mediumThreshold = 0.3
	highThreshold   = 0.6
)

// ConfusionTracker maintains a rolling window of each user's recent messages
// and scores their apparent confusion from sentiment and repetition. It does
// not compute sentiment itself; the signal is supplied by the caller.
//
// Scoring and recording are split so the orchestrator can score before calling
// the model and only commit the window (and any transition) once the model
// call succeeded. Update does both for callers without that concern.
type ConfusionTracker struct {
	mu      sync.Mutex
	windows map[string]*confusionWindow
	ledger  *SessionLedger
	now     func() time.Time
}

type confusionWindow struct {
	messages  []string
	lastLevel ConfusionLevel
}

// NewConfusionTracker creates a tracker that records level transitions into
// the given ledger.
func NewConfusionTracker(ledger *SessionLedger) *ConfusionTracker {
	return &ConfusionTracker{
		windows: make(map[string]*confusionWindow),
		ledger:  ledger,
		now:     time.Now,
	}
}

func (t *ConfusionTracker) window(userID string) *confusionWindow {
	w, ok := t.windows[userID]
	if !ok {
		w = &confusionWindow{lastLevel: ConfusionLow}
		t.windows[userID] = w
	}
	return w
}

// Score computes the confusion state for a message without mutating the
// window. sig must be supplied; the tracker never defaults to a neutral score.
func (t *ConfusionTracker) Score(userID, message string, sig *SentimentSignal) (ConfusionState, error) {
	if strings.TrimSpace(message) == "" {
		return ConfusionState{}, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	if sig == nil {
		return ConfusionState{}, fmt.Errorf("%w: missing sentiment signal", ErrInvalidInput)
	}
	if sig.Polarity < -1 || sig.Polarity > 1 || sig.Magnitude < 0 || sig.Magnitude > 1 {
		return ConfusionState{}, fmt.Errorf("%w: sentiment signal out of range", ErrInvalidInput)
	}

	// Copy the window out under the lock; tokenizing and scoring happen
	// outside it so users never serialize through the tracker for CPU work.
	t.mu.Lock()
	w := t.window(userID)
	recent := append([]string(nil), w.messages...)
	t.mu.Unlock()

	repetition := 0.0
	current := contentTokens(message)
	for _, prev := range recent {
		if s := tokenOverlap(current, contentTokens(prev)); s > repetition {
			repetition = s
		}
	}

	negative := 0.0
	if sig.Polarity < 0 {
		negative = -sig.Polarity
	}
	score := clamp01(negative*negativeWeight + repetition*repetitionWeight)

	level := ConfusionLow
	switch {
	case score >= highThreshold:
		level = ConfusionHigh
	case score >= mediumThreshold:
		level = ConfusionMedium
	}

	return ConfusionState{Level: level, Score: score, Badge: level.Badge()}, nil
}

// Commit pushes the message into the user's window and records a transition
// in the ledger when the level changed. Consecutive identical levels are
// never recorded twice.
func (t *ConfusionTracker) Commit(userID, message string, state ConfusionState) {
	t.mu.Lock()
	w := t.window(userID)
	w.messages = append(w.messages, message)
	if len(w.messages) > confusionWindowSize {
		w.messages = w.messages[len(w.messages)-confusionWindowSize:]
	}
	changed := state.Level != w.lastLevel
	prev := w.lastLevel
	w.lastLevel = state.Level
	t.mu.Unlock()

	if changed {
		t.ledger.AppendConfusionTransition(userID, prev, state.Level, t.now().UTC())
	}
}

// Level returns the user's last committed confusion level. Users with no
// history report Low.
func (t *ConfusionTracker) Level(userID string) ConfusionLevel {
	t.mu.Lock()
	defer t.mu.Unlock()
	if w, ok := t.windows[userID]; ok {
		return w.lastLevel
	}
	return ConfusionLow
}

// Update scores and commits in one step.
func (t *ConfusionTracker) Update(userID, message string, sig *SentimentSignal) (ConfusionState, error) {
	state, err := t.Score(userID, message, sig)
	if err != nil {
		return ConfusionState{}, err
	}
	t.Commit(userID, message, state)
	return state, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// stopwords are filler tokens ignored by the repetition metric, so that
// rephrasings of the same question still register as repetition.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "i": true, "im": true, "is": true,
	"am": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"do": true, "does": true, "did": true, "dont": true, "doesnt": true, "didnt": true,
	"what": true, "why": true, "how": true, "when": true, "where": true, "who": true,
	"it": true, "its": true, "this": true, "that": true, "me": true, "my": true,
	"you": true, "your": true, "to": true, "of": true, "in": true, "on": true,
	"for": true, "and": true, "or": true, "not": true, "get": true, "got": true,
	"can": true, "cant": true, "could": true, "couldnt": true, "with": true,
	"at": true, "so": true, "just": true, "please": true, "help": true,
}

// contentTokens lowercases, splits on non-alphanumeric runes and drops
// stopwords.
func contentTokens(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if !stopwords[tok] {
			tokens[tok] = true
		}
	}
	return tokens
}

// tokenOverlap is the overlap coefficient |A∩B| / min(|A|,|B|): deterministic,
// symmetric, and monotone in the number of shared content tokens.
func tokenOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for tok := range small {
		if large[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
