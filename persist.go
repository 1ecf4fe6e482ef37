package ponder

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/zoobzio/capitan"
)

// Snapshot is the serialized form of a session: the linear history, the
// branch listing, and format metadata. Unknown fields in a stored
// snapshot are ignored on load.
type Snapshot struct {
	History       []Thought            `json:"history"`
	Branches      map[string][]Thought `json:"branches"`
	SavedAt       time.Time            `json:"savedAt"`
	FormatVersion string               `json:"formatVersion"`
}

// SnapshotSession captures the session's current contents.
func SnapshotSession(s *Session) *Snapshot {
	branches := make(map[string][]Thought)
	for _, id := range s.BranchIDs() {
		if thoughts, ok := s.Branch(id); ok {
			branches[id] = thoughts
		}
	}
	return &Snapshot{
		History:       s.History(),
		Branches:      branches,
		SavedAt:       time.Now(),
		FormatVersion: FormatVersion,
	}
}

// SaveSession writes the session to path as indented JSON. The write
// goes through a temporary file renamed into place, so a crash cannot
// leave a partially written snapshot at path. Failures are wrapped in
// a *PersistenceError.
func SaveSession(ctx context.Context, s *Session, path string) error {
	snap := SnapshotSession(s)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}

	capitan.Emit(ctx, SessionSaved,
		FieldSessionID.Field(s.ID()),
		FieldPath.Field(path),
		FieldHistoryLength.Field(len(snap.History)),
		FieldBranchCount.Field(len(snap.Branches)),
	)
	return nil
}

// LoadSnapshot reads a snapshot from path. Read failures are wrapped in
// a *PersistenceError; structural problems in the file itself come back
// as *FormatError.
func LoadSnapshot(ctx context.Context, path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &FormatError{Reason: "not a JSON object"}
	}

	historyRaw, ok := fields["history"]
	if !ok {
		return nil, &FormatError{Reason: "missing history field"}
	}
	tok := bytes.TrimSpace(historyRaw)
	if len(tok) == 0 || tok[0] != '[' {
		return nil, &FormatError{Reason: "history is not an array of thoughts"}
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(historyRaw, &snap.History); err != nil {
		return nil, &FormatError{Reason: "history is not an array of thoughts"}
	}
	if branchesRaw, ok := fields["branches"]; ok {
		if err := json.Unmarshal(branchesRaw, &snap.Branches); err != nil {
			return nil, &FormatError{Reason: "branches is not a mapping of thought arrays"}
		}
	}
	if savedAtRaw, ok := fields["savedAt"]; ok {
		_ = json.Unmarshal(savedAtRaw, &snap.SavedAt)
	}
	if versionRaw, ok := fields["formatVersion"]; ok {
		_ = json.Unmarshal(versionRaw, &snap.FormatVersion)
	}

	capitan.Emit(ctx, SessionLoaded,
		FieldPath.Field(path),
		FieldHistoryLength.Field(len(snap.History)),
		FieldBranchCount.Field(len(snap.Branches)),
	)
	return snap, nil
}

// RestoreSession replaces the session's contents with the snapshot at
// path. The session is untouched when loading or validation fails.
func RestoreSession(ctx context.Context, s *Session, path string) error {
	snap, err := LoadSnapshot(ctx, path)
	if err != nil {
		return err
	}
	return s.ReplaceAll(ctx, snap.History, snap.Branches)
}
