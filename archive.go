package ponder

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql/postgres"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/soy"
)

// Archive stores whole sessions durably, keyed by archive ID.
type Archive interface {
	// SaveSession archives the session under a human-readable label and
	// returns the archive ID.
	SaveSession(ctx context.Context, label string, s *Session) (string, error)

	// LoadSession reads an archived session back as a snapshot.
	LoadSession(ctx context.Context, id string) (*Snapshot, error)

	// ListSessions lists archived sessions, most recent first.
	ListSessions(ctx context.Context) ([]ArchiveEntry, error)

	// DeleteSession removes an archived session and its thoughts.
	DeleteSession(ctx context.Context, id string) error
}

// ArchiveEntry describes one archived session.
type ArchiveEntry struct {
	ID            string    `db:"id"`
	Label         string    `db:"label"`
	FormatVersion string    `db:"format_version"`
	SavedAt       time.Time `db:"saved_at"`
}

// sessionRow is the ponder_sessions table shape.
type sessionRow struct {
	ID            string    `db:"id" type:"uuid" constraints:"primarykey" default:"gen_random_uuid()"`
	Label         string    `db:"label" type:"text" constraints:"notnull"`
	FormatVersion string    `db:"format_version" type:"text" constraints:"notnull"`
	SavedAt       time.Time `db:"saved_at" type:"timestamp" constraints:"notnull"`
}

// thoughtRow is the ponder_thoughts table shape. Payload holds the
// thought's JSON form; Position preserves history order. BranchID is
// lifted out of the payload so branch membership is queryable.
type thoughtRow struct {
	ID        string `db:"id" type:"uuid" constraints:"primarykey" default:"gen_random_uuid()"`
	SessionID string `db:"session_id" type:"uuid" constraints:"notnull" references:"ponder_sessions(id)"`
	Position  int    `db:"position" type:"integer" constraints:"notnull"`
	BranchID  string `db:"branch_id" type:"text"`
	Payload   string `db:"payload" type:"jsonb" constraints:"notnull"`
}

// SoyArchive implements Archive on Postgres via soy.
type SoyArchive struct {
	sessions *soy.Soy[sessionRow]
	thoughts *soy.Soy[thoughtRow]
	db       *sqlx.DB
}

// NewSoyArchive creates a Postgres-backed archive over db.
func NewSoyArchive(db *sqlx.DB) (*SoyArchive, error) {
	renderer := postgres.New()

	sessions, err := soy.New[sessionRow](db, "ponder_sessions", renderer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sessions table: %w", err)
	}

	thoughts, err := soy.New[thoughtRow](db, "ponder_thoughts", renderer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize thoughts table: %w", err)
	}

	return &SoyArchive{
		sessions: sessions,
		thoughts: thoughts,
		db:       db,
	}, nil
}

// SaveSession snapshots the session and writes it to the database: one
// session row plus one thought row per history entry.
func (a *SoyArchive) SaveSession(ctx context.Context, label string, s *Session) (string, error) {
	snap := SnapshotSession(s)

	row := sessionRow{
		Label:         label,
		FormatVersion: snap.FormatVersion,
		SavedAt:       snap.SavedAt,
	}
	inserted, err := a.sessions.Insert().Exec(ctx, &row)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	for i, t := range snap.History {
		payload, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("failed to encode thought %d: %w", i, err)
		}
		tr := thoughtRow{
			SessionID: inserted.ID,
			Position:  i,
			BranchID:  t.BranchID,
			Payload:   string(payload),
		}
		if _, err := a.thoughts.Insert().Exec(ctx, &tr); err != nil {
			return "", fmt.Errorf("failed to insert thought %d: %w", i, err)
		}
	}

	capitan.Emit(ctx, ArchiveSaved,
		FieldSessionID.Field(s.ID()),
		FieldArchiveID.Field(inserted.ID),
		FieldHistoryLength.Field(len(snap.History)),
	)
	return inserted.ID, nil
}

// LoadSession reads an archived session's thoughts in history order and
// rebuilds the snapshot. Branch listings come from the thoughts' own
// branch tags, matching how a live session mirrors them.
func (a *SoyArchive) LoadSession(ctx context.Context, id string) (*Snapshot, error) {
	session, err := a.sessions.Select().
		Where("id", "=", "id").
		Exec(ctx, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	rows, err := a.thoughts.Query().
		Where("session_id", "=", "session_id").
		OrderBy("position", "asc").
		Exec(ctx, map[string]any{"session_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get thoughts: %w", err)
	}

	history := make([]Thought, len(rows))
	branches := make(map[string][]Thought)
	for i, row := range rows {
		var t Thought
		if err := json.Unmarshal([]byte(row.Payload), &t); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("thought %d: undecodable payload", row.Position)}
		}
		history[i] = t
		if row.BranchID != "" {
			branches[row.BranchID] = append(branches[row.BranchID], t)
		}
	}

	capitan.Emit(ctx, ArchiveLoaded,
		FieldArchiveID.Field(id),
		FieldHistoryLength.Field(len(history)),
		FieldBranchCount.Field(len(branches)),
	)
	return &Snapshot{
		History:       history,
		Branches:      branches,
		SavedAt:       session.SavedAt,
		FormatVersion: session.FormatVersion,
	}, nil
}

// ListSessions returns archive entries newest-first.
func (a *SoyArchive) ListSessions(ctx context.Context) ([]ArchiveEntry, error) {
	var entries []ArchiveEntry
	err := a.db.SelectContext(ctx, &entries,
		"SELECT id, label, format_version, saved_at FROM ponder_sessions ORDER BY saved_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return entries, nil
}

// DeleteSession removes an archived session and its thoughts.
func (a *SoyArchive) DeleteSession(ctx context.Context, id string) error {
	// Delete thoughts first (foreign key constraint)
	_, err := a.thoughts.Remove().
		Where("session_id", "=", "session_id").
		Exec(ctx, map[string]any{"session_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete thoughts: %w", err)
	}

	_, err = a.sessions.Remove().
		Where("id", "=", "id").
		Exec(ctx, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (a *SoyArchive) Close() error {
	return a.db.Close()
}

var _ Archive = (*SoyArchive)(nil)
