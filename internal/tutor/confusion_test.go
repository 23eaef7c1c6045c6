package tutor

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestBadgeIsPureFunctionOfLevel(t *testing.T) {
	cases := map[ConfusionLevel]BadgeColor{
		ConfusionLow:    BadgeGreen,
		ConfusionMedium: BadgeYellow,
		ConfusionHigh:   BadgeRed,
	}
	for level, want := range cases {
		if got := level.Badge(); got != want {
			t.Errorf("Badge(%s) = %s, want %s", level, got, want)
		}
	}
}

func TestUpdateRequiresSentiment(t *testing.T) {
	tracker := NewConfusionTracker(NewSessionLedger())

	if _, err := tracker.Update("u1", "help me", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing sentiment: got %v, want ErrInvalidInput", err)
	}
	if _, err := tracker.Update("u1", "   ", &SentimentSignal{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty message: got %v, want ErrInvalidInput", err)
	}
	if _, err := tracker.Update("u1", "hi", &SentimentSignal{Polarity: -2}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("out-of-range polarity: got %v, want ErrInvalidInput", err)
	}
}

func TestConfusionEscalationOnRepeatedQuestions(t *testing.T) {
	ledger := NewSessionLedger()
	tracker := NewConfusionTracker(ledger)

	steps := []struct {
		message  string
		polarity float64
		want     ConfusionLevel
	}{
		{"what is recursion", -0.1, ConfusionLow},
		{"i dont get recursion", -0.4, ConfusionHigh},
		{"recursion confuses me", -0.5, ConfusionHigh},
	}

	for i, step := range steps {
		state, err := tracker.Update("u1", step.message, &SentimentSignal{Polarity: step.polarity, Magnitude: 0.5})
		if err != nil {
			t.Fatalf("step %d: Update: %v", i, err)
		}
		if state.Level != step.want {
			t.Errorf("step %d: level = %s (score %.2f), want %s", i, state.Level, state.Score, step.want)
		}
		if state.Badge != state.Level.Badge() {
			t.Errorf("step %d: badge %s does not match level %s", i, state.Badge, state.Level)
		}
	}

	// The climb Low -> High collapses into exactly one recorded transition;
	// the repeated High must not log again.
	transitions := ledger.Snapshot("u1").ConfusionTransitions
	if len(transitions) != 1 {
		t.Fatalf("got %d transitions, want 1: %+v", len(transitions), transitions)
	}
	if transitions[0].From != ConfusionLow || transitions[0].To != ConfusionHigh {
		t.Errorf("transition = %s->%s, want low->high", transitions[0].From, transitions[0].To)
	}
}

func TestRepetitionSaturatesToHigh(t *testing.T) {
	tracker := NewConfusionTracker(NewSessionLedger())

	var last ConfusionState
	for i := 0; i < 5; i++ {
		var err error
		last, err = tracker.Update("u1", "how do i reverse a linked list", &SentimentSignal{Polarity: -0.5, Magnitude: 0.8})
		if err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}
	if last.Level != ConfusionHigh {
		t.Errorf("after 5 near-identical messages level = %s (score %.2f), want high", last.Level, last.Score)
	}
}

func TestPositiveMessagesStayLow(t *testing.T) {
	tracker := NewConfusionTracker(NewSessionLedger())

	state, err := tracker.Update("u1", "that makes sense, thanks", &SentimentSignal{Polarity: 0.8, Magnitude: 0.9})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if state.Level != ConfusionLow {
		t.Errorf("level = %s, want low", state.Level)
	}
	if state.Score != 0 {
		t.Errorf("score = %.2f, want 0", state.Score)
	}
}

func TestTrackerIsolatesUsers(t *testing.T) {
	tracker := NewConfusionTracker(NewSessionLedger())

	for i := 0; i < 4; i++ {
		if _, err := tracker.Update("u1", "why does my loop never stop", &SentimentSignal{Polarity: -0.6, Magnitude: 0.5}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	// A different user asking the same thing once has no repetition history.
	state, err := tracker.Update("u2", "why does my loop never stop", &SentimentSignal{Polarity: -0.1, Magnitude: 0.5})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if state.Level != ConfusionLow {
		t.Errorf("u2 level = %s, want low (no shared window with u1)", state.Level)
	}
}

func TestTrackerConcurrentUsers(t *testing.T) {
	tracker := NewConfusionTracker(NewSessionLedger())

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		userID := fmt.Sprintf("u%d", u)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if _, err := tracker.Update(userID, "why does my loop never stop", &SentimentSignal{Polarity: -0.5, Magnitude: 0.5}); err != nil {
					t.Errorf("%s: Update: %v", userID, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		userID := fmt.Sprintf("u%d", u)
		if got := tracker.Level(userID); got != ConfusionHigh {
			t.Errorf("%s level = %s, want high", userID, got)
		}
	}
}

func TestTokenOverlapProperties(t *testing.T) {
	a := contentTokens("reverse a linked list")
	b := contentTokens("how to reverse my linked list")

	if got, want := tokenOverlap(a, b), tokenOverlap(b, a); got != want {
		t.Errorf("overlap not symmetric: %.2f vs %.2f", got, want)
	}
	if got := tokenOverlap(a, a); got != 1.0 {
		t.Errorf("self overlap = %.2f, want 1.0", got)
	}
	if got := tokenOverlap(a, contentTokens("the cat sat")); got != 0 {
		t.Errorf("disjoint overlap = %.2f, want 0", got)
	}
	if got := tokenOverlap(a, contentTokens("the of and")); got != 0 {
		t.Errorf("stopword-only overlap = %.2f, want 0", got)
	}
}
