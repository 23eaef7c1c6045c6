// Package gateway adapts an llm.Provider into the typed model gateway the
// tutoring core consumes. Generation quality is the model's business; this
// package owns prompt selection, JSON response parsing, and classifying
// transport failures into the core's error taxonomy.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tutorloop/internal/llm"
	"tutorloop/internal/tutor"
)

// Gateway implements tutor.ModelGateway over a chat-completion provider.
type Gateway struct {
	provider llm.Provider
	model    string
}

// New creates a gateway using the given provider and default model.
func New(provider llm.Provider, model string) *Gateway {
	return &Gateway{provider: provider, model: model}
}

// complete runs one completion and maps provider failures onto the core's
// sentinels.
func (g *Gateway) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: user},
		},
		Temperature: 0.2,
		JSONMode:    jsonMode,
	})
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("%w: %v", tutor.ErrModelTimeout, err)
		case errors.Is(err, llm.ErrRateLimited):
			return "", fmt.Errorf("%w: %v", tutor.ErrModelRateLimited, err)
		default:
			return "", err
		}
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", tutor.ErrModelMalformed)
	}
	return resp.Content, nil
}

// ScoreSentiment scores one message. A provider failure here surfaces as a
// scorer failure; the core never substitutes a neutral score.
func (g *Gateway) ScoreSentiment(ctx context.Context, text string) (tutor.SentimentSignal, error) {
	out, err := g.complete(ctx, sentimentSystem, text, true)
	if err != nil {
		return tutor.SentimentSignal{}, err
	}

	var sig tutor.SentimentSignal
	if err := json.Unmarshal([]byte(out), &sig); err != nil {
		return tutor.SentimentSignal{}, fmt.Errorf("%w: sentiment: %v", tutor.ErrModelMalformed, err)
	}
	if sig.Polarity < -1 || sig.Polarity > 1 || sig.Magnitude < 0 || sig.Magnitude > 1 {
		return tutor.SentimentSignal{}, fmt.Errorf("%w: sentiment values out of range", tutor.ErrModelMalformed)
	}
	return sig, nil
}

// Explain produces a learning-mode explanation in the requested register.
func (g *Gateway) Explain(ctx context.Context, req tutor.ExplainRequest) (string, error) {
	system := explainSystem
	if d := styleDirective(req.Style); d != "" {
		system += "\n" + d
	}
	if req.Simplified {
		system += "\nThe learner is struggling right now. Use the simplest possible register and short sentences."
	}
	return g.complete(ctx, system, req.Message, false)
}

// HintContent synthesizes the payload for one hint tier.
func (g *Gateway) HintContent(ctx context.Context, tier tutor.HintTier, subject tutor.CodeError, code string) (string, error) {
	if _, ok := tierDirectives[tier]; !ok {
		return "", fmt.Errorf("unknown hint tier %q", tier)
	}
	return g.complete(ctx, explainSystem, hintPrompt(tier, subject, code), false)
}

// analysisPayload is the JSON contract for code analysis responses.
type analysisPayload struct {
	Summary string `json:"summary"`
	Errors  []struct {
		Type        string `json:"type"`
		Line        int    `json:"line"`
		Description string `json:"description"`
		Severity    int    `json:"severity"`
		Correction  string `json:"correction"`
	} `json:"errors"`
}

// AnalyzeCode analyzes a code submission. Responses that do not follow the
// JSON contract fail with the malformed-response sentinel rather than being
// patched up.
func (g *Gateway) AnalyzeCode(ctx context.Context, code string) (*tutor.CodeAnalysis, error) {
	out, err := g.complete(ctx, analysisSystem, code, true)
	if err != nil {
		return nil, err
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return nil, fmt.Errorf("%w: code analysis: %v", tutor.ErrModelMalformed, err)
	}

	analysis := &tutor.CodeAnalysis{Summary: payload.Summary}
	for _, e := range payload.Errors {
		errType := tutor.ErrorType(e.Type)
		switch errType {
		case tutor.ErrorSyntax, tutor.ErrorLogic, tutor.ErrorRuntime:
		default:
			return nil, fmt.Errorf("%w: unknown error type %q", tutor.ErrModelMalformed, e.Type)
		}
		if strings.TrimSpace(e.Description) == "" {
			return nil, fmt.Errorf("%w: error without description", tutor.ErrModelMalformed)
		}
		analysis.Errors = append(analysis.Errors, tutor.CodeError{
			Type:        errType,
			Line:        max(e.Line, 0),
			Description: e.Description,
			Severity:    clampSeverity(e.Severity),
			Correction:  e.Correction,
		})
	}
	return analysis, nil
}

func clampSeverity(s int) int {
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}
