// Package store persists per-user session snapshots. It implements the
// narrow contract the tutoring core consumes: whole-history persist and load,
// plus the user preference record. Snapshots go in and come out verbatim; no
// interpretation happens here.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tutorloop/internal/db"
	"tutorloop/internal/tutor"
)

// timeLayout keeps full timestamp precision so a persisted snapshot loads
// back identical.
const timeLayout = time.RFC3339Nano

// SQLite persists session histories in the shared tutorloop database.
type SQLite struct {
	db *db.DB
}

// New creates a store backed by the given database.
func New(database *db.DB) *SQLite {
	return &SQLite{db: database}
}

// SaveUser upserts the user's preference record.
func (s *SQLite) SaveUser(ctx context.Context, user tutor.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, style, mode) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET style = excluded.style, mode = excluded.mode`,
		user.ID, string(user.Style), string(user.Mode),
	)
	if err != nil {
		return fmt.Errorf("saving user %s: %w", user.ID, err)
	}
	return nil
}

// LoadUser returns the user's preference record, or nil when unknown.
func (s *SQLite) LoadUser(ctx context.Context, userID string) (*tutor.User, error) {
	var u tutor.User
	var style, mode string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, style, mode FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &style, &mode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}
	u.Style = tutor.LearningStyle(style)
	u.Mode = tutor.Mode(mode)
	return &u, nil
}

// Persist replaces the user's stored snapshot with the given history, in one
// transaction. Append sequence is preserved via the seq columns.
func (s *SQLite) Persist(ctx context.Context, history *tutor.SessionHistory) error {
	if history == nil || history.UserID == "" {
		return fmt.Errorf("persist: history missing user id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persisting session for %s: %w", history.UserID, err)
	}
	defer tx.Rollback()

	// The user row must exist for the foreign keys; preferences are managed
	// by SaveUser and left alone here.
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, history.UserID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (user_id, started_at, last_active_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET started_at = excluded.started_at, last_active_at = excluded.last_active_at`,
		history.UserID, history.StartedAt.UTC().Format(timeLayout), history.LastActiveAt.UTC().Format(timeLayout),
	); err != nil {
		return err
	}

	for _, table := range []string{"interactions", "flashcards", "mode_changes", "confusion_transitions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", history.UserID); err != nil {
			return err
		}
	}

	for i, in := range history.Interactions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO interactions (id, user_id, seq, message, response, confusion_level, flashcard_generated, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ID, history.UserID, i, in.Message, in.Response, string(in.ConfusionLevel),
			boolToInt(in.FlashcardGenerated), in.CreatedAt.UTC().Format(timeLayout),
		); err != nil {
			return err
		}
	}

	for i, c := range history.Flashcards {
		var lastReviewed *string
		if c.LastReviewed != nil {
			t := c.LastReviewed.UTC().Format(timeLayout)
			lastReviewed = &t
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO flashcards (id, user_id, seq, signature, front, back, context, created_at, review_count, last_reviewed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, history.UserID, i, c.Signature, c.Front, c.Back, c.Context,
			c.CreatedAt.UTC().Format(timeLayout), c.ReviewCount, lastReviewed,
		); err != nil {
			return err
		}
	}

	for i, m := range history.ModeChanges {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO mode_changes (user_id, seq, from_mode, to_mode, at) VALUES (?, ?, ?, ?, ?)`,
			history.UserID, i, string(m.From), string(m.To), m.At.UTC().Format(timeLayout),
		); err != nil {
			return err
		}
	}

	for i, t := range history.ConfusionTransitions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO confusion_transitions (user_id, seq, from_level, to_level, at) VALUES (?, ?, ?, ?, ?)`,
			history.UserID, i, string(t.From), string(t.To), t.At.UTC().Format(timeLayout),
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persisting session for %s: %w", history.UserID, err)
	}
	return nil
}

// Load returns the user's stored snapshot, or nil when none exists.
func (s *SQLite) Load(ctx context.Context, userID string) (*tutor.SessionHistory, error) {
	history := &tutor.SessionHistory{UserID: userID}

	var startedAt, lastActiveAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, last_active_at FROM sessions WHERE user_id = ?`, userID,
	).Scan(&startedAt, &lastActiveAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session for %s: %w", userID, err)
	}
	if history.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if history.LastActiveAt, err = parseTime(lastActiveAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message, response, confusion_level, flashcard_generated, created_at
		FROM interactions WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var in tutor.Interaction
		var level, createdAt string
		var generated int
		if err := rows.Scan(&in.ID, &in.Message, &in.Response, &level, &generated, &createdAt); err != nil {
			return nil, err
		}
		in.UserID = userID
		in.ConfusionLevel = tutor.ConfusionLevel(level)
		in.FlashcardGenerated = generated != 0
		if in.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		history.Interactions = append(history.Interactions, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cardRows, err := s.db.QueryContext(ctx, `
		SELECT id, signature, front, back, context, created_at, review_count, last_reviewed
		FROM flashcards WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer cardRows.Close()
	for cardRows.Next() {
		var c tutor.Flashcard
		var createdAt string
		var lastReviewed sql.NullString
		if err := cardRows.Scan(&c.ID, &c.Signature, &c.Front, &c.Back, &c.Context, &createdAt, &c.ReviewCount, &lastReviewed); err != nil {
			return nil, err
		}
		c.UserID = userID
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if lastReviewed.Valid {
			t, err := parseTime(lastReviewed.String)
			if err != nil {
				return nil, err
			}
			c.LastReviewed = &t
		}
		history.Flashcards = append(history.Flashcards, c)
	}
	if err := cardRows.Err(); err != nil {
		return nil, err
	}

	modeRows, err := s.db.QueryContext(ctx, `
		SELECT from_mode, to_mode, at FROM mode_changes WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer modeRows.Close()
	for modeRows.Next() {
		var m tutor.ModeChange
		var from, to, at string
		if err := modeRows.Scan(&from, &to, &at); err != nil {
			return nil, err
		}
		m.UserID = userID
		m.From = tutor.Mode(from)
		m.To = tutor.Mode(to)
		if m.At, err = parseTime(at); err != nil {
			return nil, err
		}
		history.ModeChanges = append(history.ModeChanges, m)
	}
	if err := modeRows.Err(); err != nil {
		return nil, err
	}

	transRows, err := s.db.QueryContext(ctx, `
		SELECT from_level, to_level, at FROM confusion_transitions WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer transRows.Close()
	for transRows.Next() {
		var t tutor.ConfusionTransition
		var from, to, at string
		if err := transRows.Scan(&from, &to, &at); err != nil {
			return nil, err
		}
		t.UserID = userID
		t.From = tutor.ConfusionLevel(from)
		t.To = tutor.ConfusionLevel(to)
		if t.At, err = parseTime(at); err != nil {
			return nil, err
		}
		history.ConfusionTransitions = append(history.ConfusionTransitions, t)
	}
	if err := transRows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
