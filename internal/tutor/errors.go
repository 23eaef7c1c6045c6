package tutor

import "errors"

// Sentinel errors for the tutoring core. Collaborator failures (model gateway,
// sentiment scorer) are wrapped into these so callers can branch with errors.Is
// without knowing which collaborator failed; the wrapped chain keeps the detail.
var (
	// ErrInvalidInput rejects a malformed or empty message/code before any
	// state mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAnalysisUnavailable reports a sentiment or code-analysis collaborator
	// failure. The core never retries; retry policy belongs to the caller.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")

	// ErrHintExhausted reports an advance past the solution tier.
	ErrHintExhausted = errors.New("hint ladder exhausted")

	// ErrSkipNotAllowed reports a jump without the explicit-skip flag.
	ErrSkipNotAllowed = errors.New("hint skip not allowed")

	// ErrMalformedSnapshot rejects a restore whose interactions are not in
	// non-decreasing timestamp order. The live ledger is left untouched.
	ErrMalformedSnapshot = errors.New("malformed session snapshot")

	// ErrFlashcardLimit is a soft condition: the retention ceiling was hit and
	// an old card was evicted. It never blocks the triggering interaction.
	ErrFlashcardLimit = errors.New("flashcard limit reached")

	// ErrModelTimeout, ErrModelRateLimited and ErrModelMalformed classify
	// model gateway failures for the boundary to map onto retry/backoff.
	ErrModelTimeout     = errors.New("model gateway timeout")
	ErrModelRateLimited = errors.New("model gateway rate limited")
	ErrModelMalformed   = errors.New("malformed model response")
)

// Kind returns the stable error kind string for err, or "internal" when the
// error does not belong to the core taxonomy. These strings are part of the
// boundary contract; internal details never cross it.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	// The model sentinels outrank ErrAnalysisUnavailable: a scorer failure is
	// wrapped in both, and the more specific classification must win.
	case errors.Is(err, ErrModelTimeout):
		return "model_timeout"
	case errors.Is(err, ErrModelRateLimited):
		return "model_rate_limited"
	case errors.Is(err, ErrModelMalformed):
		return "malformed_model_response"
	case errors.Is(err, ErrAnalysisUnavailable):
		return "analysis_unavailable"
	case errors.Is(err, ErrHintExhausted):
		return "hint_exhausted"
	case errors.Is(err, ErrSkipNotAllowed):
		return "skip_not_allowed"
	case errors.Is(err, ErrMalformedSnapshot):
		return "malformed_snapshot"
	case errors.Is(err, ErrFlashcardLimit):
		return "flashcard_limit_reached"
	default:
		return "internal"
	}
}
