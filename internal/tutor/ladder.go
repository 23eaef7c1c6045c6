package tutor

import (
	"context"
	"fmt"
	"sync"
)

// HintLadderEngine owns the per-session hint ladders and enforces strictly
// sequential disclosure: Conceptual, then Syntax, then Solution, terminal.
// Tier content is synthesized by the model gateway; the engine owns only the
// tier selection and ordering.
type HintLadderEngine struct {
	mu      sync.Mutex
	ladders map[string]*HintLadder
	gateway ModelGateway
}

// NewHintLadderEngine creates an engine that synthesizes hint payloads
// through the given gateway.
func NewHintLadderEngine(gateway ModelGateway) *HintLadderEngine {
	return &HintLadderEngine{
		ladders: make(map[string]*HintLadder),
		gateway: gateway,
	}
}

// Initialize creates the ladder for a session from at least one detected
// error. The highest-severity error becomes the ladder's subject; ties break
// on the lowest known line number, then first-seen order. All three tier
// payloads are synthesized before anything is stored, so a failed or
// cancelled synthesis leaves no ladder behind.
func (e *HintLadderEngine) Initialize(ctx context.Context, sessionID string, errs []CodeError, code string) (*HintLadder, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", ErrInvalidInput)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: initialize requires at least one error", ErrInvalidInput)
	}

	e.mu.Lock()
	_, exists := e.ladders[sessionID]
	e.mu.Unlock()
	if exists {
		return nil, fmt.Errorf("%w: session %s already has an active ladder", ErrInvalidInput, sessionID)
	}

	subject := pickSubject(errs)

	var hints [3]Hint
	for i, tier := range tierOrder {
		content, err := e.gateway.HintContent(ctx, tier, subject, code)
		if err != nil {
			return nil, fmt.Errorf("synthesizing %s hint for session %s: %w", tier, sessionID, err)
		}
		hints[i] = Hint{Tier: tier, Content: content}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ladder := &HintLadder{
		SessionID: sessionID,
		Subject:   subject,
		Hints:     hints,
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.ladders[sessionID]; exists {
		return nil, fmt.Errorf("%w: session %s already has an active ladder", ErrInvalidInput, sessionID)
	}
	e.ladders[sessionID] = ladder
	cp := *ladder
	return &cp, nil
}

// Advance reveals exactly the next tier and returns it, with HasNext false
// once the solution is out. Advancing an exhausted ladder fails with
// ErrHintExhausted and leaves the ladder unchanged.
func (e *HintLadderEngine) Advance(sessionID string) (HintResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ladder, ok := e.ladders[sessionID]
	if !ok {
		return HintResult{}, fmt.Errorf("%w: no active ladder for session %s", ErrInvalidInput, sessionID)
	}
	if ladder.CurrentLevel >= len(ladder.Hints) {
		return HintResult{}, fmt.Errorf("%w: session %s", ErrHintExhausted, sessionID)
	}

	ladder.Hints[ladder.CurrentLevel].Revealed = true
	hint := ladder.Hints[ladder.CurrentLevel]
	ladder.CurrentLevel++

	return HintResult{
		Tier:    hint.Tier,
		Content: hint.Content,
		HasNext: ladder.CurrentLevel < len(ladder.Hints),
	}, nil
}

// JumpTo reveals every tier up to level (1..3) in one step, preserving the
// prefix property. It is only legal when the caller sets the explicit-skip
// flag; without it the jump fails with ErrSkipNotAllowed.
func (e *HintLadderEngine) JumpTo(sessionID string, level int, allowSkip bool) (HintResult, error) {
	if level < 1 || level > len(tierOrder) {
		return HintResult{}, fmt.Errorf("%w: hint level %d out of range", ErrInvalidInput, level)
	}
	if !allowSkip {
		return HintResult{}, fmt.Errorf("%w: session %s", ErrSkipNotAllowed, sessionID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ladder, ok := e.ladders[sessionID]
	if !ok {
		return HintResult{}, fmt.Errorf("%w: no active ladder for session %s", ErrInvalidInput, sessionID)
	}
	if level <= ladder.CurrentLevel {
		return HintResult{}, fmt.Errorf("%w: level %d already revealed", ErrInvalidInput, level)
	}

	for i := ladder.CurrentLevel; i < level; i++ {
		ladder.Hints[i].Revealed = true
	}
	ladder.CurrentLevel = level
	hint := ladder.Hints[level-1]

	return HintResult{
		Tier:    hint.Tier,
		Content: hint.Content,
		HasNext: ladder.CurrentLevel < len(ladder.Hints),
	}, nil
}

// Reset discards the session's ladder so Initialize may run again, used when
// the user resubmits different code.
func (e *HintLadderEngine) Reset(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.ladders, sessionID)
}

// Ladder returns a copy of the session's ladder, if any.
func (e *HintLadderEngine) Ladder(sessionID string) (HintLadder, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ladder, ok := e.ladders[sessionID]
	if !ok {
		return HintLadder{}, false
	}
	return *ladder, true
}

// pickSubject selects the ladder subject: highest severity, then lowest known
// line number, then first-seen order. Errors without a line number sort after
// those with one.
func pickSubject(errs []CodeError) CodeError {
	best := errs[0]
	for _, e := range errs[1:] {
		if moreUrgent(e, best) {
			best = e
		}
	}
	return best
}

func moreUrgent(a, b CodeError) bool {
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	switch {
	case a.Line > 0 && b.Line > 0:
		return a.Line < b.Line
	case a.Line > 0:
		return true
	default:
		return false
	}
}
