package tutor

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionLedger is the append-only, per-user record of interactions, mode
// changes, confusion transitions and flashcards. It is the single source of
// truth for history export and restore. Appends for one user are serialized;
// different users never contend.
type SessionLedger struct {
	mu    sync.RWMutex
	users map[string]*userLedger
	now   func() time.Time
}

type userLedger struct {
	mu      sync.Mutex
	history SessionHistory
}

// NewSessionLedger creates an empty ledger.
func NewSessionLedger() *SessionLedger {
	return &SessionLedger{
		users: make(map[string]*userLedger),
		now:   time.Now,
	}
}

func (l *SessionLedger) user(userID string) *userLedger {
	l.mu.RLock()
	u, ok := l.users[userID]
	l.mu.RUnlock()
	if ok {
		return u
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok = l.users[userID]; ok {
		return u
	}
	now := l.now().UTC()
	u = &userLedger{history: SessionHistory{
		UserID:       userID,
		StartedAt:    now,
		LastActiveAt: now,
	}}
	l.users[userID] = u
	return u
}

// stamp returns an append timestamp that never moves backwards within a
// user's ledger.
func (u *userLedger) stamp(now time.Time) time.Time {
	if n := len(u.history.Interactions); n > 0 {
		if last := u.history.Interactions[n-1].CreatedAt; now.Before(last) {
			return last
		}
	}
	return now
}

// Append records one interaction. The interaction's ID and timestamp are
// assigned here when unset, keeping the append sequence gapless and ordered.
func (l *SessionLedger) Append(in Interaction) error {
	if in.UserID == "" {
		return fmt.Errorf("%w: interaction missing user id", ErrInvalidInput)
	}
	u := l.user(in.UserID)
	u.mu.Lock()
	defer u.mu.Unlock()

	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = u.stamp(l.now().UTC())
	}
	u.history.Interactions = append(u.history.Interactions, in)
	u.history.LastActiveAt = in.CreatedAt
	return nil
}

// AppendModeChange records a learning/debugging mode switch. Mode switches
// never truncate the ledger; they are entries like any other.
func (l *SessionLedger) AppendModeChange(userID string, from, to Mode, at time.Time) {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.history.ModeChanges = append(u.history.ModeChanges, ModeChange{
		UserID: userID,
		From:   from,
		To:     to,
		At:     at.UTC(),
	})
	u.history.LastActiveAt = at.UTC()
}

// AppendConfusionTransition records a confusion-level change. Callers only
// append on an actual change, so consecutive duplicates never appear.
func (l *SessionLedger) AppendConfusionTransition(userID string, from, to ConfusionLevel, at time.Time) {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.history.ConfusionTransitions = append(u.history.ConfusionTransitions, ConfusionTransition{
		UserID: userID,
		From:   from,
		To:     to,
		At:     at.UTC(),
	})
}

// AppendFlashcard adds a curated flashcard to the user's history.
func (l *SessionLedger) AppendFlashcard(card Flashcard) error {
	if card.UserID == "" {
		return fmt.Errorf("%w: flashcard missing user id", ErrInvalidInput)
	}
	u := l.user(card.UserID)
	u.mu.Lock()
	defer u.mu.Unlock()
	u.history.Flashcards = append(u.history.Flashcards, card)
	return nil
}

// RemoveFlashcard deletes one flashcard by id. Used only by the curator's
// retention eviction; interactions are never removed.
func (l *SessionLedger) RemoveFlashcard(userID, cardID string) bool {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, c := range u.history.Flashcards {
		if c.ID == cardID {
			u.history.Flashcards = append(u.history.Flashcards[:i], u.history.Flashcards[i+1:]...)
			return true
		}
	}
	return false
}

// MarkReviewed bumps a flashcard's review metadata, the only mutation a
// flashcard permits after creation.
func (l *SessionLedger) MarkReviewed(userID, cardID string, at time.Time) (*Flashcard, error) {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	for i := range u.history.Flashcards {
		if u.history.Flashcards[i].ID == cardID {
			at := at.UTC()
			u.history.Flashcards[i].ReviewCount++
			u.history.Flashcards[i].LastReviewed = &at
			card := u.history.Flashcards[i]
			return &card, nil
		}
	}
	return nil, fmt.Errorf("%w: no flashcard %s for user %s", ErrInvalidInput, cardID, userID)
}

// Flashcards returns a copy of the user's current flashcards in creation order.
func (l *SessionLedger) Flashcards(userID string) []Flashcard {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Flashcard, len(u.history.Flashcards))
	copy(out, u.history.Flashcards)
	return out
}

// Snapshot returns a deep copy of the user's full history. Mutating the
// returned value never affects the live ledger.
func (l *SessionLedger) Snapshot(userID string) *SessionHistory {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return cloneHistory(&u.history)
}

// Restore replaces the user's in-memory ledger with the snapshot. A snapshot
// whose interaction timestamps are not monotonically non-decreasing is
// rejected with ErrMalformedSnapshot and the live state is left untouched.
func (l *SessionLedger) Restore(userID string, snap *SessionHistory) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrMalformedSnapshot)
	}
	for i := 1; i < len(snap.Interactions); i++ {
		if snap.Interactions[i].CreatedAt.Before(snap.Interactions[i-1].CreatedAt) {
			return fmt.Errorf("%w: interaction %d out of order", ErrMalformedSnapshot, i)
		}
	}

	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	restored := cloneHistory(snap)
	restored.UserID = userID
	u.history = *restored
	return nil
}

func cloneHistory(h *SessionHistory) *SessionHistory {
	out := &SessionHistory{
		UserID:       h.UserID,
		StartedAt:    h.StartedAt,
		LastActiveAt: h.LastActiveAt,
	}
	out.Interactions = append([]Interaction(nil), h.Interactions...)
	out.ModeChanges = append([]ModeChange(nil), h.ModeChanges...)
	out.ConfusionTransitions = append([]ConfusionTransition(nil), h.ConfusionTransitions...)
	out.Flashcards = make([]Flashcard, len(h.Flashcards))
	for i, c := range h.Flashcards {
		if c.LastReviewed != nil {
			t := *c.LastReviewed
			c.LastReviewed = &t
		}
		out.Flashcards[i] = c
	}
	return out
}
