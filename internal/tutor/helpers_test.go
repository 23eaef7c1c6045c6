package tutor

import (
	"context"
	"fmt"
	"sync"
)

// fakeGateway is a scripted ModelGateway. Each hook can be overridden per
// test; defaults return deterministic canned content.
type fakeGateway struct {
	mu        sync.Mutex
	sentiment func(text string) (SentimentSignal, error)
	explain   func(req ExplainRequest) (string, error)
	hint      func(tier HintTier, subject CodeError, code string) (string, error)
	analyze   func(code string) (*CodeAnalysis, error)

	explainReqs []ExplainRequest
	hintCalls   []HintTier
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{}
}

func (g *fakeGateway) ScoreSentiment(ctx context.Context, text string) (SentimentSignal, error) {
	if err := ctx.Err(); err != nil {
		return SentimentSignal{}, err
	}
	if g.sentiment != nil {
		return g.sentiment(text)
	}
	return SentimentSignal{Polarity: 0, Magnitude: 0.5}, nil
}

func (g *fakeGateway) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	g.mu.Lock()
	g.explainReqs = append(g.explainReqs, req)
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.explain != nil {
		return g.explain(req)
	}
	return "here is an explanation", nil
}

func (g *fakeGateway) HintContent(ctx context.Context, tier HintTier, subject CodeError, code string) (string, error) {
	g.mu.Lock()
	g.hintCalls = append(g.hintCalls, tier)
	g.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.hint != nil {
		return g.hint(tier, subject, code)
	}
	return fmt.Sprintf("%s hint: %s error on line %d", tier, subject.Type, subject.Line), nil
}

func (g *fakeGateway) AnalyzeCode(ctx context.Context, code string) (*CodeAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.analyze != nil {
		return g.analyze(code)
	}
	return &CodeAnalysis{Summary: "looks fine"}, nil
}

func (g *fakeGateway) lastExplain() (ExplainRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.explainReqs) == 0 {
		return ExplainRequest{}, false
	}
	return g.explainReqs[len(g.explainReqs)-1], true
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]User
	histories map[string]*SessionHistory
	persists  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]User),
		histories: make(map[string]*SessionHistory),
	}
}

func (s *fakeStore) Persist(ctx context.Context, history *SessionHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[history.UserID] = cloneHistory(history)
	s.persists++
	return nil
}

func (s *fakeStore) Load(ctx context.Context, userID string) (*SessionHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[userID]
	if !ok {
		return nil, nil
	}
	return cloneHistory(h), nil
}

func (s *fakeStore) SaveUser(ctx context.Context, user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *fakeStore) LoadUser(ctx context.Context, userID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
