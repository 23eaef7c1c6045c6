package tutor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config tunes the orchestrator and its components.
type Config struct {
	Curator CuratorConfig
}

// Orchestrator composes the tracker, ladder engine, curator and ledger, and
// is the only entry point the API layer talks to.
//
// Locking discipline: per-user state is mutated only under that user's lock
// from the lock table. The lock is never held across a model gateway call;
// each operation reads what it needs, releases, waits on the gateway, and
// re-acquires to commit. A cancelled gateway call commits nothing.
type Orchestrator struct {
	gateway ModelGateway
	store   Store
	ledger  *SessionLedger
	tracker *ConfusionTracker
	engine  *HintLadderEngine
	curator *FlashcardCurator
	locks   *lockTable

	mu       sync.RWMutex
	users    map[string]*User
	sessions map[string]string
	now      func() time.Time
}

// NewOrchestrator wires the core around the given collaborators.
func NewOrchestrator(gateway ModelGateway, store Store, cfg Config) *Orchestrator {
	ledger := NewSessionLedger()
	return &Orchestrator{
		gateway:  gateway,
		store:    store,
		ledger:   ledger,
		tracker:  NewConfusionTracker(ledger),
		engine:   NewHintLadderEngine(gateway),
		curator:  NewFlashcardCurator(ledger, cfg.Curator),
		locks:    newLockTable(),
		users:    make(map[string]*User),
		sessions: make(map[string]string),
		now:      time.Now,
	}
}

// Ledger exposes the session ledger, mainly for tests and export plumbing.
func (o *Orchestrator) Ledger() *SessionLedger { return o.ledger }

// ensureUser loads or creates the user and, on first sight, restores their
// persisted history into the ledger. Callers must hold the user's lock.
func (o *Orchestrator) ensureUser(ctx context.Context, userID string) (User, error) {
	o.mu.RLock()
	u, ok := o.users[userID]
	o.mu.RUnlock()
	if ok {
		return *u, nil
	}

	loaded, err := o.store.LoadUser(ctx, userID)
	if err != nil {
		return User{}, fmt.Errorf("loading user %s: %w", userID, err)
	}
	if loaded == nil {
		loaded = &User{ID: userID, Style: StyleStandard, Mode: ModeLearning}
		if err := o.store.SaveUser(ctx, *loaded); err != nil {
			return User{}, fmt.Errorf("saving user %s: %w", userID, err)
		}
	}

	history, err := o.store.Load(ctx, userID)
	if err != nil {
		return User{}, fmt.Errorf("loading history for user %s: %w", userID, err)
	}
	if history != nil {
		if err := o.ledger.Restore(userID, history); err != nil {
			return User{}, fmt.Errorf("restoring history for user %s: %w", userID, err)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.users[userID]; ok {
		return *existing, nil
	}
	o.users[userID] = loaded
	return *loaded, nil
}

// HandleMessage processes one inbound message or code submission and returns
// the decision record for the API layer to render. Exactly one interaction is
// appended to the ledger per call that reaches a branch.
func (o *Orchestrator) HandleMessage(ctx context.Context, req MessageRequest) (*Decision, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}

	lk := o.locks.get(req.UserID)
	lk.Lock()
	user, err := o.ensureUser(ctx, req.UserID)
	lk.Unlock()
	if err != nil {
		return nil, err
	}

	switch user.Mode {
	case ModeDebugging:
		return o.handleDebugging(ctx, user, req, lk)
	default:
		return o.handleLearning(ctx, user, req, lk)
	}
}

func (o *Orchestrator) handleLearning(ctx context.Context, user User, req MessageRequest, lk *sync.Mutex) (*Decision, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: learning mode requires a message", ErrInvalidInput)
	}

	sig, err := o.gateway.ScoreSentiment(ctx, req.Message)
	if err != nil {
		return nil, fmt.Errorf("scoring sentiment for user %s: %w",
			req.UserID, fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err))
	}

	state, err := o.tracker.Score(req.UserID, req.Message, &sig)
	if err != nil {
		return nil, err
	}

	text, err := o.gateway.Explain(ctx, ExplainRequest{
		Message:    req.Message,
		Style:      user.Style,
		Simplified: state.Level == ConfusionHigh,
	})
	if err != nil {
		return nil, fmt.Errorf("explaining for user %s: %w", req.UserID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lk.Lock()
	o.tracker.Commit(req.UserID, req.Message, state)
	appendErr := o.ledger.Append(Interaction{
		UserID:         req.UserID,
		Message:        req.Message,
		Response:       text,
		ConfusionLevel: state.Level,
	})
	lk.Unlock()
	if appendErr != nil {
		return nil, appendErr
	}

	if err := o.persist(ctx, req.UserID); err != nil {
		return nil, err
	}

	return &Decision{
		ResponseText:   text,
		ConfusionLevel: state.Level,
		Badge:          state.Badge,
	}, nil
}

func (o *Orchestrator) handleDebugging(ctx context.Context, user User, req MessageRequest, lk *sync.Mutex) (*Decision, error) {
	if strings.TrimSpace(req.Code) == "" {
		return nil, fmt.Errorf("%w: debugging mode requires a code submission", ErrInvalidInput)
	}

	// Track confusion from the note accompanying the code, when there is one.
	var state *ConfusionState
	if strings.TrimSpace(req.Message) != "" {
		sig, err := o.gateway.ScoreSentiment(ctx, req.Message)
		if err != nil {
			return nil, fmt.Errorf("scoring sentiment for user %s: %w",
				req.UserID, fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err))
		}
		s, err := o.tracker.Score(req.UserID, req.Message, &sig)
		if err != nil {
			return nil, err
		}
		state = &s
	}

	analysis, err := o.gateway.AnalyzeCode(ctx, req.Code)
	if err != nil {
		return nil, fmt.Errorf("analyzing code for user %s: %w",
			req.UserID, fmt.Errorf("%w: %w", ErrAnalysisUnavailable, err))
	}

	sessionID := ""
	if len(analysis.Errors) > 0 {
		sessionID = uuid.NewString()
		if _, err := o.engine.Initialize(ctx, sessionID, analysis.Errors, req.Code); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		if sessionID != "" {
			o.engine.Reset(sessionID)
		}
		return nil, err
	}

	// Only now that the new ladder stands does a resubmission discard the
	// previous one; a failed or cancelled resubmission leaves it serving hints.
	if sessionID != "" {
		o.mu.Lock()
		previous := o.sessions[req.UserID]
		o.mu.Unlock()
		if previous != "" && previous != sessionID {
			o.engine.Reset(previous)
		}
	}

	ordered := append([]CodeError(nil), analysis.Errors...)
	sort.SliceStable(ordered, func(i, j int) bool { return moreUrgent(ordered[i], ordered[j]) })

	lk.Lock()
	if state != nil {
		o.tracker.Commit(req.UserID, req.Message, *state)
	}
	level := o.tracker.Level(req.UserID)

	madeCard := false
	warning := ""
	for _, codeErr := range ordered {
		if strings.TrimSpace(codeErr.Correction) == "" {
			// No correction means no valid card back; skip rather than
			// curate an empty remediation.
			continue
		}
		card, limitHit, err := o.curator.MaybeCreate(req.UserID, codeErr, codeErr.Correction, cardContext(analysis, sessionID))
		if err != nil {
			lk.Unlock()
			return nil, err
		}
		if card != nil {
			madeCard = true
		}
		if limitHit {
			warning = ErrFlashcardLimit.Error()
		}
	}

	if sessionID != "" {
		o.mu.Lock()
		o.sessions[req.UserID] = sessionID
		o.mu.Unlock()
	}

	message := req.Message
	if message == "" {
		message = req.Code
	}
	appendErr := o.ledger.Append(Interaction{
		UserID:             req.UserID,
		Message:            message,
		Response:           analysis.Summary,
		ConfusionLevel:     level,
		FlashcardGenerated: madeCard,
	})
	lk.Unlock()
	if appendErr != nil {
		return nil, appendErr
	}

	if err := o.persist(ctx, req.UserID); err != nil {
		return nil, err
	}

	return &Decision{
		ResponseText:       analysis.Summary,
		ConfusionLevel:     level,
		Badge:              level.Badge(),
		FlashcardGenerated: madeCard,
		SessionID:          sessionID,
		Warning:            warning,
	}, nil
}

func cardContext(analysis *CodeAnalysis, sessionID string) string {
	if strings.TrimSpace(analysis.Summary) != "" {
		return analysis.Summary
	}
	return "debugging session " + sessionID
}

// RequestNextHint reveals the next hint tier for the session.
func (o *Orchestrator) RequestNextHint(sessionID string) (HintResult, error) {
	return o.engine.Advance(sessionID)
}

// JumpToHint reveals every tier up to level; allowSkip must be set explicitly.
func (o *Orchestrator) JumpToHint(sessionID string, level int, allowSkip bool) (HintResult, error) {
	return o.engine.JumpTo(sessionID, level, allowSkip)
}

// ListFlashcards returns the user's flashcards, newest first, after filters.
func (o *Orchestrator) ListFlashcards(ctx context.Context, userID string, filter CardFilter) ([]Flashcard, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	lk := o.locks.get(userID)
	lk.Lock()
	_, err := o.ensureUser(ctx, userID)
	lk.Unlock()
	if err != nil {
		return nil, err
	}

	cards := o.ledger.Flashcards(userID)
	out := make([]Flashcard, 0, len(cards))
	for i := len(cards) - 1; i >= 0; i-- {
		c := cards[i]
		if filter.UnreviewedOnly && c.ReviewCount > 0 {
			continue
		}
		if !filter.CreatedAfter.IsZero() && !c.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		out = append(out, c)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// ReviewFlashcard bumps a card's review metadata.
func (o *Orchestrator) ReviewFlashcard(ctx context.Context, userID, cardID string) (*Flashcard, error) {
	lk := o.locks.get(userID)
	lk.Lock()
	_, err := o.ensureUser(ctx, userID)
	if err != nil {
		lk.Unlock()
		return nil, err
	}
	card, err := o.ledger.MarkReviewed(userID, cardID, o.now())
	lk.Unlock()
	if err != nil {
		return nil, err
	}
	if err := o.persist(ctx, userID); err != nil {
		return nil, err
	}
	return card, nil
}

// ExportSession returns a deep copy of the user's full session history.
func (o *Orchestrator) ExportSession(ctx context.Context, userID string) (*SessionHistory, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	lk := o.locks.get(userID)
	lk.Lock()
	_, err := o.ensureUser(ctx, userID)
	lk.Unlock()
	if err != nil {
		return nil, err
	}
	return o.ledger.Snapshot(userID), nil
}

// RestoreSession replaces the user's ledger with the snapshot and persists it.
func (o *Orchestrator) RestoreSession(ctx context.Context, userID string, snap *SessionHistory) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	lk := o.locks.get(userID)
	lk.Lock()
	_, err := o.ensureUser(ctx, userID)
	if err != nil {
		lk.Unlock()
		return err
	}
	err = o.ledger.Restore(userID, snap)
	lk.Unlock()
	if err != nil {
		return err
	}
	return o.persist(ctx, userID)
}

// SetMode switches the user between learning and debugging. The switch is
// recorded as a mode-change ledger entry; nothing is ever truncated.
func (o *Orchestrator) SetMode(ctx context.Context, userID string, mode Mode) error {
	if mode != ModeLearning && mode != ModeDebugging {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, mode)
	}
	lk := o.locks.get(userID)
	lk.Lock()
	user, err := o.ensureUser(ctx, userID)
	if err != nil {
		lk.Unlock()
		return err
	}
	if user.Mode == mode {
		lk.Unlock()
		return nil
	}

	o.mu.Lock()
	from := o.users[userID].Mode
	o.users[userID].Mode = mode
	o.mu.Unlock()

	o.ledger.AppendModeChange(userID, from, mode, o.now())
	saveErr := o.store.SaveUser(ctx, User{ID: userID, Style: user.Style, Mode: mode})
	lk.Unlock()
	if saveErr != nil {
		return fmt.Errorf("saving user %s: %w", userID, saveErr)
	}
	return o.persist(ctx, userID)
}

// SetLearningStyle updates the user's persisted learning style.
func (o *Orchestrator) SetLearningStyle(ctx context.Context, userID string, style LearningStyle) error {
	if style != StyleELI5 && style != StyleVisual && style != StyleStandard {
		return fmt.Errorf("%w: unknown learning style %q", ErrInvalidInput, style)
	}
	lk := o.locks.get(userID)
	lk.Lock()
	user, err := o.ensureUser(ctx, userID)
	if err != nil {
		lk.Unlock()
		return err
	}
	o.mu.Lock()
	o.users[userID].Style = style
	o.mu.Unlock()
	saveErr := o.store.SaveUser(ctx, User{ID: userID, Style: style, Mode: user.Mode})
	lk.Unlock()
	if saveErr != nil {
		return fmt.Errorf("saving user %s: %w", userID, saveErr)
	}
	return nil
}

// User returns the current in-memory user record, creating it if needed.
func (o *Orchestrator) User(ctx context.Context, userID string) (User, error) {
	lk := o.locks.get(userID)
	lk.Lock()
	defer lk.Unlock()
	return o.ensureUser(ctx, userID)
}

func (o *Orchestrator) persist(ctx context.Context, userID string) error {
	if err := o.store.Persist(ctx, o.ledger.Snapshot(userID)); err != nil {
		return fmt.Errorf("persisting session for user %s: %w", userID, err)
	}
	return nil
}
