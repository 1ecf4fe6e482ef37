package ponder

import (
	"time"
)

// ThoughtKind distinguishes how a thought extends the session.
type ThoughtKind string

const (
	// KindPlain is an ordinary step in the linear sequence.
	KindPlain ThoughtKind = "thought"

	// KindRevision corrects an earlier step without mutating it.
	KindRevision ThoughtKind = "revision"

	// KindBranch continues a named side line from an earlier step.
	KindBranch ThoughtKind = "branch"
)

// Thought is one reasoning step in a session.
//
// A thought is immutable once stored: a revision is a new Thought whose
// RevisesIndex points at the step it corrects, and a branch thought is a
// new Thought tagged with the branch it extends. BranchFrom and BranchID
// travel together; a thought carrying them is mirrored into its branch's
// list but stays in the linear history as well.
//
// Body may be empty only before generation. The stored thought always has
// a non-empty Body; when the generator fails, the diagnostic text becomes
// the body.
type Thought struct {
	// Identity, assigned on append when absent.
	ID        string    `json:"id,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`

	// What the step is about.
	Query    string `json:"query"`
	Context  string `json:"context,omitempty"`
	Approach string `json:"approach,omitempty"`
	Body     string `json:"body"`

	// Position in the session. TotalPlanned is an estimate and is raised
	// to Index on append when the session outgrows it.
	Index        int `json:"index"`
	TotalPlanned int `json:"totalPlanned"`

	// Caller-provided context from earlier steps, not derived.
	PreviousBodies []string `json:"previousBodies,omitempty"`

	// Revision linkage. RevisesIndex is required iff IsRevision.
	IsRevision   bool `json:"isRevision,omitempty"`
	RevisesIndex *int `json:"revisesIndex,omitempty"`

	// Branch linkage. BranchID is required iff BranchFrom is set.
	BranchFrom *int   `json:"branchFromIndex,omitempty"`
	BranchID   string `json:"branchId,omitempty"`

	// Session pacing.
	NeedsMore          bool `json:"needsMore,omitempty"`
	ContinuationNeeded bool `json:"continuationNeeded"`

	// Optional commentary extracted from generated text or supplied
	// by the caller.
	MetaNote     string   `json:"metaNote,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Kind reports how the thought extends the session. A revision wins over
// a branch tag when both are present.
func (t Thought) Kind() ThoughtKind {
	switch {
	case t.IsRevision && t.RevisesIndex != nil:
		return KindRevision
	case t.BranchFrom != nil && t.BranchID != "":
		return KindBranch
	default:
		return KindPlain
	}
}

// clone returns a copy that shares no mutable state with the original.
func (t Thought) clone() Thought {
	out := t
	if t.RevisesIndex != nil {
		v := *t.RevisesIndex
		out.RevisesIndex = &v
	}
	if t.BranchFrom != nil {
		v := *t.BranchFrom
		out.BranchFrom = &v
	}
	if t.PreviousBodies != nil {
		out.PreviousBodies = append([]string(nil), t.PreviousBodies...)
	}
	if t.Alternatives != nil {
		out.Alternatives = append([]string(nil), t.Alternatives...)
	}
	return out
}
