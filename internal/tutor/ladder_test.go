package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func ladderErrors() []CodeError {
	return []CodeError{
		{Type: ErrorSyntax, Line: 4, Description: "missing closing brace", Severity: 2},
		{Type: ErrorLogic, Line: 10, Description: "off-by-one in loop bound", Severity: 5},
	}
}

func TestInitializePicksHighestSeveritySubject(t *testing.T) {
	engine := NewHintLadderEngine(newFakeGateway())

	ladder, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "for i := 0; i <= n; i++ {")
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if ladder.Subject.Type != ErrorLogic || ladder.Subject.Line != 10 {
		t.Errorf("subject = %s line %d, want logic line 10", ladder.Subject.Type, ladder.Subject.Line)
	}
	if ladder.CurrentLevel != 0 {
		t.Errorf("fresh ladder CurrentLevel = %d, want 0", ladder.CurrentLevel)
	}
}

func TestSubjectTieBreaks(t *testing.T) {
	cases := []struct {
		name string
		errs []CodeError
		want int // expected index into errs
	}{
		{
			name: "same severity lower line wins",
			errs: []CodeError{
				{Type: ErrorLogic, Line: 20, Severity: 3, Description: "a"},
				{Type: ErrorLogic, Line: 7, Severity: 3, Description: "b"},
			},
			want: 1,
		},
		{
			name: "known line beats unknown line",
			errs: []CodeError{
				{Type: ErrorRuntime, Line: 0, Severity: 4, Description: "a"},
				{Type: ErrorRuntime, Line: 12, Severity: 4, Description: "b"},
			},
			want: 1,
		},
		{
			name: "full tie keeps first seen",
			errs: []CodeError{
				{Type: ErrorSyntax, Line: 3, Severity: 2, Description: "a"},
				{Type: ErrorSyntax, Line: 3, Severity: 2, Description: "b"},
			},
			want: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := pickSubject(tc.errs)
			if got.Description != tc.errs[tc.want].Description {
				t.Errorf("pickSubject chose %q, want %q", got.Description, tc.errs[tc.want].Description)
			}
		})
	}
}

func TestAdvanceWalksTiersInOrder(t *testing.T) {
	engine := NewHintLadderEngine(newFakeGateway())
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	wantTiers := []HintTier{TierConceptual, TierSyntax, TierSolution}
	for i, want := range wantTiers {
		res, err := engine.Advance("s1")
		if err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
		if res.Tier != want {
			t.Errorf("Advance %d tier = %s, want %s", i, res.Tier, want)
		}
		if res.Content == "" {
			t.Errorf("Advance %d returned empty content", i)
		}
		if wantNext := i < len(wantTiers)-1; res.HasNext != wantNext {
			t.Errorf("Advance %d HasNext = %v, want %v", i, res.HasNext, wantNext)
		}
	}

	// Hints cite the subject, not the less severe error.
	ladder, _ := engine.Ladder("s1")
	for _, h := range ladder.Hints {
		if !strings.Contains(h.Content, "line 10") {
			t.Errorf("hint %q does not cite the subject's line", h.Content)
		}
	}
}

func TestAdvancePastSolutionIsExhausted(t *testing.T) {
	engine := NewHintLadderEngine(newFakeGateway())
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := engine.Advance("s1"); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}

	if _, err := engine.Advance("s1"); !errors.Is(err, ErrHintExhausted) {
		t.Fatalf("4th Advance: got %v, want ErrHintExhausted", err)
	}
	ladder, _ := engine.Ladder("s1")
	if ladder.CurrentLevel != 3 {
		t.Errorf("exhausted advance moved CurrentLevel to %d", ladder.CurrentLevel)
	}
}

func TestRevealedTiersAreAlwaysAPrefix(t *testing.T) {
	engine := NewHintLadderEngine(newFakeGateway())
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	checkPrefix := func(stage string) {
		t.Helper()
		ladder, ok := engine.Ladder("s1")
		if !ok {
			t.Fatalf("%s: ladder missing", stage)
		}
		seenHidden := false
		for _, h := range ladder.Hints {
			if !h.Revealed {
				seenHidden = true
			} else if seenHidden {
				t.Fatalf("%s: revealed tier %s after a hidden one", stage, h.Tier)
			}
		}
	}

	checkPrefix("initial")
	engine.Advance("s1")
	checkPrefix("after first advance")
	engine.Advance("s1")
	checkPrefix("after second advance")
}

func TestJumpToRequiresExplicitSkip(t *testing.T) {
	engine := NewHintLadderEngine(newFakeGateway())
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, err := engine.JumpTo("s1", 3, false); !errors.Is(err, ErrSkipNotAllowed) {
		t.Fatalf("JumpTo without skip flag: got %v, want ErrSkipNotAllowed", err)
	}
	ladder, _ := engine.Ladder("s1")
	if ladder.CurrentLevel != 0 {
		t.Fatalf("rejected jump moved CurrentLevel to %d", ladder.CurrentLevel)
	}

	res, err := engine.JumpTo("s1", 3, true)
	if err != nil {
		t.Fatalf("JumpTo with skip flag: %v", err)
	}
	if res.Tier != TierSolution || res.HasNext {
		t.Errorf("jump to 3: tier %s HasNext %v, want solution with no next", res.Tier, res.HasNext)
	}

	// A jump reveals everything before the target too.
	ladder, _ = engine.Ladder("s1")
	for _, h := range ladder.Hints {
		if !h.Revealed {
			t.Errorf("tier %s not revealed after jump to solution", h.Tier)
		}
	}
}

func TestJumpToValidatesLevel(t *testing.T) {
	engine := NewHintLadderEngine(newFakeGateway())
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := engine.JumpTo("s1", 0, true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("level 0: got %v, want ErrInvalidInput", err)
	}
	if _, err := engine.JumpTo("s1", 4, true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("level 4: got %v, want ErrInvalidInput", err)
	}
	if _, err := engine.Advance("s1"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := engine.JumpTo("s1", 1, true); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("jump to already-revealed level: got %v, want ErrInvalidInput", err)
	}
}

func TestInitializeRequiresErrorsAndFreshSession(t *testing.T) {
	engine := NewHintLadderEngine(newFakeGateway())

	if _, err := engine.Initialize(context.Background(), "s1", nil, "code"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("no errors: got %v, want ErrInvalidInput", err)
	}
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("duplicate session: got %v, want ErrInvalidInput", err)
	}

	engine.Reset("s1")
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "other code"); err != nil {
		t.Errorf("Initialize after Reset: %v", err)
	}
}

func TestFailedSynthesisLeavesNoLadder(t *testing.T) {
	gateway := newFakeGateway()
	gateway.hint = func(tier HintTier, subject CodeError, code string) (string, error) {
		if tier == TierSyntax {
			return "", fmt.Errorf("%w: model returned nothing", ErrModelMalformed)
		}
		return "ok", nil
	}
	engine := NewHintLadderEngine(gateway)

	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); !errors.Is(err, ErrModelMalformed) {
		t.Fatalf("Initialize: got %v, want wrapped ErrModelMalformed", err)
	}
	if _, ok := engine.Ladder("s1"); ok {
		t.Fatal("failed synthesis left a ladder behind")
	}

	// The session is still free for a retry.
	gateway.hint = nil
	if _, err := engine.Initialize(context.Background(), "s1", ladderErrors(), "code"); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestInitializeHonorsCancellation(t *testing.T) {
	engine := NewHintLadderEngine(newFakeGateway())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Initialize(ctx, "s1", ladderErrors(), "code"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Initialize: got %v, want context.Canceled", err)
	}
	if _, ok := engine.Ladder("s1"); ok {
		t.Fatal("cancelled Initialize left a ladder behind")
	}
}
