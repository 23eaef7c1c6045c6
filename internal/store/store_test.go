package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tutorloop/internal/db"
	"tutorloop/internal/tutor"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database)
}

func TestSaveAndLoadUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loaded, err := s.LoadUser(ctx, "ghost")
	if err != nil {
		t.Fatalf("LoadUser unknown: %v", err)
	}
	if loaded != nil {
		t.Fatalf("unknown user = %+v, want nil", loaded)
	}

	user := tutor.User{ID: "u1", Style: tutor.StyleELI5, Mode: tutor.ModeDebugging}
	if err := s.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	loaded, err = s.LoadUser(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadUser: %v", err)
	}
	if *loaded != user {
		t.Errorf("loaded = %+v, want %+v", *loaded, user)
	}

	// Upsert overwrites preferences in place.
	user.Style = tutor.StyleVisual
	user.Mode = tutor.ModeLearning
	if err := s.SaveUser(ctx, user); err != nil {
		t.Fatalf("SaveUser update: %v", err)
	}
	loaded, _ = s.LoadUser(ctx, "u1")
	if *loaded != user {
		t.Errorf("after upsert = %+v, want %+v", *loaded, user)
	}
}

func TestLoadWithoutSessionReturnsNil(t *testing.T) {
	s := newTestStore(t)

	history, err := s.Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if history != nil {
		t.Errorf("history = %+v, want nil", history)
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)
	reviewed := started.Add(2 * time.Hour)
	history := &tutor.SessionHistory{
		UserID:       "u1",
		StartedAt:    started,
		LastActiveAt: started.Add(3 * time.Hour),
		Interactions: []tutor.Interaction{
			{ID: "i1", UserID: "u1", Message: "what is recursion", Response: "a function calling itself",
				ConfusionLevel: tutor.ConfusionLow, CreatedAt: started.Add(time.Minute)},
			{ID: "i2", UserID: "u1", Message: "i dont get recursion", Response: "think of it as nesting dolls",
				ConfusionLevel: tutor.ConfusionHigh, FlashcardGenerated: true, CreatedAt: started.Add(2 * time.Minute)},
		},
		Flashcards: []tutor.Flashcard{
			{ID: "c1", UserID: "u1", Signature: "logic|missing base case|3",
				Front: "missing base case", Back: "add a terminating condition", Context: "recursion practice",
				CreatedAt: started.Add(2 * time.Minute), ReviewCount: 2, LastReviewed: &reviewed},
			{ID: "c2", UserID: "u1", Signature: "syntax|missing paren|-",
				Front: "missing paren", Back: "close it", Context: "recursion practice",
				CreatedAt: started.Add(4 * time.Minute)},
		},
		ModeChanges: []tutor.ModeChange{
			{UserID: "u1", From: tutor.ModeLearning, To: tutor.ModeDebugging, At: started.Add(90 * time.Second)},
		},
		ConfusionTransitions: []tutor.ConfusionTransition{
			{UserID: "u1", From: tutor.ConfusionLow, To: tutor.ConfusionHigh, At: started.Add(2 * time.Minute)},
		},
	}

	if err := s.Persist(ctx, history); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	loaded, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(history, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistReplacesPreviousSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := &tutor.SessionHistory{
		UserID: "u1", StartedAt: started, LastActiveAt: started,
		Interactions: []tutor.Interaction{
			{ID: "i1", UserID: "u1", Message: "a", ConfusionLevel: tutor.ConfusionLow, CreatedAt: started},
			{ID: "i2", UserID: "u1", Message: "b", ConfusionLevel: tutor.ConfusionLow, CreatedAt: started.Add(time.Minute)},
		},
	}
	if err := s.Persist(ctx, first); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	second := &tutor.SessionHistory{
		UserID: "u1", StartedAt: started, LastActiveAt: started.Add(time.Hour),
		Interactions: []tutor.Interaction{
			{ID: "i3", UserID: "u1", Message: "c", ConfusionLevel: tutor.ConfusionMedium, CreatedAt: started.Add(time.Hour)},
		},
	}
	if err := s.Persist(ctx, second); err != nil {
		t.Fatalf("Persist second: %v", err)
	}

	loaded, err := s.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(second, loaded); diff != "" {
		t.Errorf("snapshot not replaced (-want +got):\n%s", diff)
	}
}

func TestPersistPreservesUserPreferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveUser(ctx, tutor.User{ID: "u1", Style: tutor.StyleVisual, Mode: tutor.ModeDebugging}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := s.Persist(ctx, &tutor.SessionHistory{UserID: "u1", StartedAt: started, LastActiveAt: started}); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, err := s.LoadUser(ctx, "u1")
	if err != nil || loaded == nil {
		t.Fatalf("LoadUser: %v %v", loaded, err)
	}
	if loaded.Style != tutor.StyleVisual || loaded.Mode != tutor.ModeDebugging {
		t.Errorf("preferences clobbered by Persist: %+v", loaded)
	}
}

func TestPersistRejectsMissingUser(t *testing.T) {
	s := newTestStore(t)
	if err := s.Persist(context.Background(), nil); err == nil {
		t.Error("nil history accepted")
	}
	if err := s.Persist(context.Background(), &tutor.SessionHistory{}); err == nil {
		t.Error("history without user id accepted")
	}
}
