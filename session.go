package ponder

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// AppendResult reports what a successful append did to the session.
type AppendResult struct {
	// Thought is the stored form, with ID and CreatedAt assigned and
	// TotalPlanned raised when the session outgrew the estimate.
	Thought Thought

	// BranchIDs lists every branch known to the session, in creation order.
	BranchIDs []string

	// HistoryLength is the linear history length after the append.
	HistoryLength int
}

// Session is an append-only log of thoughts with named branches.
//
// Every thought lives in the linear history, including revisions and
// branch thoughts. A thought tagged with a branch is additionally listed
// under that branch. Stored thoughts are never mutated; accessors return
// copies. Safe for concurrent use.
type Session struct {
	id string

	mu          sync.RWMutex
	history     []Thought
	branches    map[string][]int
	branchOrder []string
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{
		id:       uuid.New().String(),
		branches: make(map[string][]int),
	}
}

// ID returns the session's identity.
func (s *Session) ID() string {
	return s.id
}

// Append validates t and adds it to the history. On success the stored
// thought is returned along with the branch listing and new history
// length. The store is untouched when validation fails.
func (s *Session) Append(ctx context.Context, t Thought) (AppendResult, error) {
	if err := ValidateThought(t); err != nil {
		return AppendResult{}, err
	}

	stored := t.clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if stored.Index > stored.TotalPlanned {
		stored.TotalPlanned = stored.Index
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, stored)
	pos := len(s.history) - 1

	branched := false
	if stored.BranchFrom != nil && stored.BranchID != "" {
		if _, ok := s.branches[stored.BranchID]; !ok {
			s.branchOrder = append(s.branchOrder, stored.BranchID)
		}
		s.branches[stored.BranchID] = append(s.branches[stored.BranchID], pos)
		branched = true
	}

	capitan.Emit(ctx, ThoughtRecorded,
		FieldSessionID.Field(s.id),
		FieldThoughtID.Field(stored.ID),
		FieldIndex.Field(stored.Index),
		FieldTotalPlanned.Field(stored.TotalPlanned),
		FieldHistoryLength.Field(len(s.history)),
	)
	if branched {
		capitan.Emit(ctx, BranchExtended,
			FieldSessionID.Field(s.id),
			FieldBranchID.Field(stored.BranchID),
			FieldBranchCount.Field(len(s.branches)),
		)
	}

	return AppendResult{
		Thought:       stored.clone(),
		BranchIDs:     s.branchIDsLocked(),
		HistoryLength: len(s.history),
	}, nil
}

// History returns the linear history in append order, revisions and
// branch thoughts included.
func (s *Session) History() []Thought {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Thought, len(s.history))
	for i, t := range s.history {
		out[i] = t.clone()
	}
	return out
}

// Len returns the linear history length.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// LastThought returns the most recently appended thought, if any.
func (s *Session) LastThought() (Thought, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return Thought{}, false
	}
	return s.history[len(s.history)-1].clone(), true
}

// BranchIDs lists every branch in creation order. The slice is never
// nil, so an empty listing marshals as [] rather than null.
func (s *Session) BranchIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branchIDsLocked()
}

func (s *Session) branchIDsLocked() []string {
	out := make([]string, len(s.branchOrder))
	copy(out, s.branchOrder)
	return out
}

// Branch returns the thoughts recorded under id, in append order.
func (s *Session) Branch(id string) ([]Thought, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	positions, ok := s.branches[id]
	if !ok {
		return nil, false
	}
	out := make([]Thought, len(positions))
	for i, pos := range positions {
		out[i] = s.history[pos].clone()
	}
	return out, true
}

// ReplaceAll swaps the session's entire contents for the given history
// and branch listing, as when restoring a saved session. The swap is
// all-or-nothing: any malformed history entry fails the call with a
// *FormatError and leaves the store untouched.
//
// Branch entries are re-linked to history by ID when present, otherwise
// by index, body, and branch tag. Entries matching nothing in history
// are dropped with a BranchOrphanDropped signal.
func (s *Session) ReplaceAll(ctx context.Context, history []Thought, branches map[string][]Thought) error {
	newHistory := make([]Thought, len(history))
	for i, t := range history {
		if err := ValidateThought(t); err != nil {
			return &FormatError{Reason: fmt.Sprintf("history[%d]: %v", i, err)}
		}
		stored := t.clone()
		if stored.Index > stored.TotalPlanned {
			stored.TotalPlanned = stored.Index
		}
		newHistory[i] = stored
	}

	newBranches := make(map[string][]int, len(branches))
	for id, thoughts := range branches {
		used := make(map[int]bool, len(thoughts))
		positions := make([]int, 0, len(thoughts))
		for _, bt := range thoughts {
			pos := matchPosition(newHistory, bt, used)
			if pos < 0 {
				capitan.Emit(ctx, BranchOrphanDropped,
					FieldSessionID.Field(s.id),
					FieldBranchID.Field(id),
					FieldIndex.Field(bt.Index),
				)
				continue
			}
			used[pos] = true
			positions = append(positions, pos)
		}
		newBranches[id] = positions
	}

	order := make([]string, 0, len(newBranches))
	for id := range newBranches {
		order = append(order, id)
	}
	// Creation order is approximated by earliest linked position;
	// branches with no surviving entries sort last, alphabetically.
	sort.Slice(order, func(i, j int) bool {
		a, b := firstPosition(newBranches[order[i]]), firstPosition(newBranches[order[j]])
		if a != b {
			return a < b
		}
		return order[i] < order[j]
	})

	s.mu.Lock()
	s.history = newHistory
	s.branches = newBranches
	s.branchOrder = order
	s.mu.Unlock()
	return nil
}

// matchPosition finds the history position a branch entry refers to,
// skipping positions already claimed within the same branch.
func matchPosition(history []Thought, bt Thought, used map[int]bool) int {
	for i, ht := range history {
		if used[i] {
			continue
		}
		if bt.ID != "" {
			if ht.ID == bt.ID {
				return i
			}
			continue
		}
		if ht.Index == bt.Index && ht.Body == bt.Body && ht.BranchID == bt.BranchID {
			return i
		}
	}
	return -1
}

func firstPosition(positions []int) int {
	if len(positions) == 0 {
		return math.MaxInt
	}
	min := positions[0]
	for _, p := range positions[1:] {
		if p < min {
			min = p
		}
	}
	return min
}
