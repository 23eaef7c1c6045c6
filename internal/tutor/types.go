package tutor

import "time"

// Mode selects which tutoring branch handles an inbound request.
type Mode string

const (
	ModeLearning  Mode = "learning"
	ModeDebugging Mode = "debugging"
)

// LearningStyle controls the register the tutor asks the model to use.
type LearningStyle string

const (
	StyleELI5     LearningStyle = "eli5"
	StyleVisual   LearningStyle = "visual"
	StyleStandard LearningStyle = "standard"
)

// ConfusionLevel classifies how much difficulty a user appears to be having.
type ConfusionLevel string

const (
	ConfusionLow    ConfusionLevel = "low"
	ConfusionMedium ConfusionLevel = "medium"
	ConfusionHigh   ConfusionLevel = "high"
)

// BadgeColor is the traffic-light indicator shown next to a user's confusion level.
type BadgeColor string

const (
	BadgeGreen  BadgeColor = "green"
	BadgeYellow BadgeColor = "yellow"
	BadgeRed    BadgeColor = "red"
)

// Badge maps a confusion level to its badge color. The badge is derived here
// and nowhere else; it is never stored or set independently.
func (l ConfusionLevel) Badge() BadgeColor {
	switch l {
	case ConfusionHigh:
		return BadgeRed
	case ConfusionMedium:
		return BadgeYellow
	default:
		return BadgeGreen
	}
}

// User holds the tutoring preferences for a single learner.
type User struct {
	ID    string        `json:"id"`
	Style LearningStyle `json:"style"`
	Mode  Mode          `json:"mode"`
}

// SentimentSignal is the normalized output of the sentiment scorer.
// Polarity is in [-1,1], Magnitude in [0,1].
type SentimentSignal struct {
	Polarity  float64 `json:"polarity"`
	Magnitude float64 `json:"magnitude"`
}

// ConfusionState is the tracker's current assessment of a user.
type ConfusionState struct {
	Level ConfusionLevel `json:"level"`
	Score float64        `json:"score"`
	Badge BadgeColor     `json:"badge"`
}

// HintTier identifies one rung of the hint ladder.
type HintTier string

const (
	TierConceptual HintTier = "conceptual"
	TierSyntax     HintTier = "syntax"
	TierSolution   HintTier = "solution"
)

// tierOrder is the fixed disclosure order of the ladder.
var tierOrder = [3]HintTier{TierConceptual, TierSyntax, TierSolution}

// Hint is a single ladder rung. Revealed only ever flips false→true.
type Hint struct {
	Tier     HintTier `json:"tier"`
	Content  string   `json:"content"`
	Revealed bool     `json:"revealed"`
}

// HintLadder is the per-session three-tier disclosure structure.
// CurrentLevel is in {0,1,2,3}; 0 means nothing revealed yet.
type HintLadder struct {
	SessionID    string    `json:"session_id"`
	Subject      CodeError `json:"subject"`
	Hints        [3]Hint   `json:"hints"`
	CurrentLevel int       `json:"current_level"`
}

// ErrorType classifies a detected code error.
type ErrorType string

const (
	ErrorSyntax  ErrorType = "syntax"
	ErrorLogic   ErrorType = "logic"
	ErrorRuntime ErrorType = "runtime"
)

// CodeError is a single issue reported by code analysis. Line is 0 when the
// analysis could not attribute the error to a line. Severity is 1..5.
type CodeError struct {
	Type        ErrorType `json:"type"`
	Line        int       `json:"line,omitempty"`
	Description string    `json:"description"`
	Severity    int       `json:"severity"`
	Correction  string    `json:"correction,omitempty"`
}

// CodeAnalysis is the result of analyzing a code submission.
type CodeAnalysis struct {
	Summary string      `json:"summary"`
	Errors  []CodeError `json:"errors"`
}

// Flashcard is a remediation record derived from a detected error.
// Immutable after creation except for the review metadata.
type Flashcard struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Signature    string     `json:"signature"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	Context      string     `json:"context"`
	CreatedAt    time.Time  `json:"created_at"`
	ReviewCount  int        `json:"review_count"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
}

// Interaction is one inbound message and its response, as recorded in the ledger.
type Interaction struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"user_id"`
	Message            string         `json:"message"`
	Response           string         `json:"response"`
	ConfusionLevel     ConfusionLevel `json:"confusion_level"`
	FlashcardGenerated bool           `json:"flashcard_generated"`
	CreatedAt          time.Time      `json:"created_at"`
}

// ModeChange records a switch between learning and debugging mode.
type ModeChange struct {
	UserID string    `json:"user_id"`
	From   Mode      `json:"from"`
	To     Mode      `json:"to"`
	At     time.Time `json:"at"`
}

// ConfusionTransition records a change in a user's confusion level.
type ConfusionTransition struct {
	UserID string         `json:"user_id"`
	From   ConfusionLevel `json:"from"`
	To     ConfusionLevel `json:"to"`
	At     time.Time      `json:"at"`
}

// SessionHistory is the full per-user record the ledger owns. Interactions and
// mode changes are ordered by append sequence; the store persists and restores
// the whole aggregate verbatim.
type SessionHistory struct {
	UserID               string                `json:"user_id"`
	StartedAt            time.Time             `json:"started_at"`
	LastActiveAt         time.Time             `json:"last_active_at"`
	Interactions         []Interaction         `json:"interactions"`
	Flashcards           []Flashcard           `json:"flashcards"`
	ModeChanges          []ModeChange          `json:"mode_changes"`
	ConfusionTransitions []ConfusionTransition `json:"confusion_transitions"`
}

// CardFilter controls which flashcards ListFlashcards returns.
type CardFilter struct {
	CreatedAfter   time.Time `json:"created_after,omitempty"`
	UnreviewedOnly bool      `json:"unreviewed_only,omitempty"`
	Limit          int       `json:"limit,omitempty"`
}

// MessageRequest is a normalized inbound message or code submission.
type MessageRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Decision is what HandleMessage returns for the API layer to render.
type Decision struct {
	ResponseText       string         `json:"response_text"`
	ConfusionLevel     ConfusionLevel `json:"confusion_level"`
	Badge              BadgeColor     `json:"badge"`
	FlashcardGenerated bool           `json:"flashcard_generated"`
	SessionID          string         `json:"session_id,omitempty"`
	Warning            string         `json:"warning,omitempty"`
}

// HintResult is what RequestNextHint returns.
type HintResult struct {
	Tier    HintTier `json:"tier"`
	Content string   `json:"content"`
	HasNext bool     `json:"has_next"`
}
