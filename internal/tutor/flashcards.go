package tutor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default curation policy.
const (
	// DefaultFlashcardLimit is the per-user retention ceiling.
	DefaultFlashcardLimit = 500
)

// CuratorConfig tunes flashcard curation. A zero DedupWindow deduplicates
// over the entire session.
type CuratorConfig struct {
	Limit       int
	DedupWindow time.Duration
}

// FlashcardCurator derives flashcards from detected errors, deduplicates them
// by error signature and enforces the per-user retention ceiling.
//
// Eviction policy: when the ceiling is exceeded, the oldest card with at
// least one review is evicted first, falling back to the oldest card overall.
// Reviewed material has already served its purpose once, so it is sacrificed
// before unreviewed material. Changing this order changes observable behavior
// and must be treated as a policy change, not a cleanup.
type FlashcardCurator struct {
	ledger *SessionLedger
	cfg    CuratorConfig
	now    func() time.Time
}

// NewFlashcardCurator creates a curator appending into the given ledger.
func NewFlashcardCurator(ledger *SessionLedger, cfg CuratorConfig) *FlashcardCurator {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultFlashcardLimit
	}
	return &FlashcardCurator{ledger: ledger, cfg: cfg, now: time.Now}
}

// MaybeCreate creates a flashcard for the error unless an identical signature
// already exists for the user within the dedup window, in which case it
// returns (nil, false, nil). limitHit reports that the retention ceiling was
// reached and an old card was evicted; it is a soft condition and never
// blocks the creation.
func (c *FlashcardCurator) MaybeCreate(userID string, codeErr CodeError, correction, context string) (card *Flashcard, limitHit bool, err error) {
	if userID == "" {
		return nil, false, fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	if strings.TrimSpace(codeErr.Description) == "" {
		return nil, false, fmt.Errorf("%w: error has no description", ErrInvalidInput)
	}
	if strings.TrimSpace(correction) == "" {
		return nil, false, fmt.Errorf("%w: empty correction", ErrInvalidInput)
	}
	if strings.TrimSpace(context) == "" {
		return nil, false, fmt.Errorf("%w: empty context", ErrInvalidInput)
	}

	sig := errorSignature(codeErr)
	now := c.now().UTC()

	existing := c.ledger.Flashcards(userID)
	for _, prev := range existing {
		if prev.Signature != sig {
			continue
		}
		if c.cfg.DedupWindow == 0 || now.Sub(prev.CreatedAt) <= c.cfg.DedupWindow {
			return nil, false, nil
		}
	}

	// The ceiling check is intentionally approximate: the count is read
	// without holding the user's interaction lock, so a concurrent burst may
	// briefly overshoot before eviction catches up.
	if len(existing) >= c.cfg.Limit {
		if victim := pickEviction(existing); victim != "" {
			c.ledger.RemoveFlashcard(userID, victim)
		}
		limitHit = true
	}

	created := Flashcard{
		ID:        uuid.NewString(),
		UserID:    userID,
		Signature: sig,
		Front:     codeErr.Description,
		Back:      correction,
		Context:   context,
		CreatedAt: now,
	}
	if err := c.ledger.AppendFlashcard(created); err != nil {
		return nil, false, err
	}
	return &created, limitHit, nil
}

// pickEviction returns the id of the card to evict: oldest reviewed card
// first, oldest overall if none has been reviewed.
func pickEviction(cards []Flashcard) string {
	var oldestReviewed, oldest *Flashcard
	for i := range cards {
		c := &cards[i]
		if oldest == nil || c.CreatedAt.Before(oldest.CreatedAt) {
			oldest = c
		}
		if c.ReviewCount > 0 && (oldestReviewed == nil || c.CreatedAt.Before(oldestReviewed.CreatedAt)) {
			oldestReviewed = c
		}
	}
	if oldestReviewed != nil {
		return oldestReviewed.ID
	}
	if oldest != nil {
		return oldest.ID
	}
	return ""
}

// errorSignature is the dedup key: error type, whitespace-collapsed lowercase
// description, and the line number (or "-" when unknown).
func errorSignature(e CodeError) string {
	desc := strings.Join(strings.Fields(strings.ToLower(e.Description)), " ")
	line := "-"
	if e.Line > 0 {
		line = strconv.Itoa(e.Line)
	}
	return string(e.Type) + "|" + desc + "|" + line
}
