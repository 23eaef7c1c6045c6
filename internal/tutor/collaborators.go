package tutor

import "context"

// ModelGateway is the boundary to the language model. Content generation is
// delegated entirely; the core only decides which prompt to request and when.
// Implementations classify their failures with ErrModelTimeout,
// ErrModelRateLimited and ErrModelMalformed so the orchestrator can propagate
// them as typed failures.
type ModelGateway interface {
	// ScoreSentiment scores the sentiment of a user message.
	ScoreSentiment(ctx context.Context, text string) (SentimentSignal, error)

	// Explain produces a learning-mode explanation. Simplified requests a
	// simpler register, used when the user's confusion level is high.
	Explain(ctx context.Context, req ExplainRequest) (string, error)

	// HintContent synthesizes the payload for one hint tier about subject.
	HintContent(ctx context.Context, tier HintTier, subject CodeError, code string) (string, error)

	// AnalyzeCode analyzes a code submission and reports detected errors.
	AnalyzeCode(ctx context.Context, code string) (*CodeAnalysis, error)
}

// ExplainRequest carries the inputs for a learning-mode explanation.
type ExplainRequest struct {
	Message    string
	Style      LearningStyle
	Simplified bool
}

// Store persists and restores per-user session snapshots. Load returns
// (nil, nil) when no history exists for the user; the orchestrator then starts
// a fresh one rather than failing.
type Store interface {
	Persist(ctx context.Context, history *SessionHistory) error
	Load(ctx context.Context, userID string) (*SessionHistory, error)
	SaveUser(ctx context.Context, user User) error
	LoadUser(ctx context.Context, userID string) (*User, error)
}
