package ponder

import (
	"fmt"
	"strings"
)

// BuildPrompt renders a turn request as the generator prompt.
//
// Sections appear in a fixed order: query, context, approach, previous
// bodies, then the instruction naming the step's position. Revision and
// branch requests get an extra clause tying the step to its target. The
// prompt always closes by asking for prose-only reasoning.
func BuildPrompt(req TurnRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Query: %s\n", req.Query)
	if req.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", req.Context)
	}
	if req.Approach != "" {
		fmt.Fprintf(&b, "Approach: %s\n", req.Approach)
	}
	if len(req.PreviousBodies) > 0 {
		b.WriteString("\nPrevious thoughts:\n")
		b.WriteString(strings.Join(req.PreviousBodies, "\n"))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nProvide thought %d of %d.", req.Index, req.TotalPlanned)
	if req.IsRevision && req.RevisesIndex != nil {
		fmt.Fprintf(&b, " This revises thought %d.", *req.RevisesIndex)
	}
	if req.BranchFromIndex != nil && req.BranchID != "" {
		fmt.Fprintf(&b, " This continues branch %q from thought %d.", req.BranchID, *req.BranchFromIndex)
	}
	b.WriteString("\nRespond with reasoning in prose only. Do not include code.")

	return b.String()
}
