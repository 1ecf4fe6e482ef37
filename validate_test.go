package ponder

import (
	"errors"
	"testing"
)

func TestValidateThought(t *testing.T) {
	valid := Thought{
		Query:        "why does the cache go stale",
		Body:         "because of TTL drift",
		Index:        1,
		TotalPlanned: 3,
	}

	tests := []struct {
		name      string
		mutate    func(*Thought)
		wantField string
	}{
		{
			name:   "valid thought passes",
			mutate: func(*Thought) {},
		},
		{
			name:      "empty query",
			mutate:    func(th *Thought) { th.Query = "" },
			wantField: "query",
		},
		{
			name:      "whitespace query",
			mutate:    func(th *Thought) { th.Query = "   " },
			wantField: "query",
		},
		{
			name:      "zero index",
			mutate:    func(th *Thought) { th.Index = 0 },
			wantField: "index",
		},
		{
			name:      "negative index",
			mutate:    func(th *Thought) { th.Index = -2 },
			wantField: "index",
		},
		{
			name:      "zero total planned",
			mutate:    func(th *Thought) { th.TotalPlanned = 0 },
			wantField: "totalPlanned",
		},
		{
			name:      "confidence above one",
			mutate:    func(th *Thought) { th.Confidence = 1.2 },
			wantField: "confidence",
		},
		{
			name:      "confidence below zero",
			mutate:    func(th *Thought) { th.Confidence = -0.1 },
			wantField: "confidence",
		},
		{
			name:      "revision flag without target",
			mutate:    func(th *Thought) { th.IsRevision = true },
			wantField: "revisesIndex",
		},
		{
			name:      "revision target without flag",
			mutate:    func(th *Thought) { th.RevisesIndex = intPtr(1) },
			wantField: "isRevision",
		},
		{
			name: "revision target below one",
			mutate: func(th *Thought) {
				th.IsRevision = true
				th.RevisesIndex = intPtr(0)
			},
			wantField: "revisesIndex",
		},
		{
			name:      "branch origin without id",
			mutate:    func(th *Thought) { th.BranchFrom = intPtr(1) },
			wantField: "branchId",
		},
		{
			name: "branch origin with blank id",
			mutate: func(th *Thought) {
				th.BranchFrom = intPtr(1)
				th.BranchID = "  "
			},
			wantField: "branchId",
		},
		{
			name:      "branch id without origin",
			mutate:    func(th *Thought) { th.BranchID = "alt" },
			wantField: "branchFromIndex",
		},
		{
			name: "branch origin below one",
			mutate: func(th *Thought) {
				th.BranchFrom = intPtr(0)
				th.BranchID = "alt"
			},
			wantField: "branchFromIndex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := valid
			tt.mutate(&th)
			err := ValidateThought(th)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateThought() = %v, want nil", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("ValidateThought() = %v, want *ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("error field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestDecodeTurnRequestRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantField string
	}{
		{
			name:      "missing query",
			raw:       `{"index":1,"totalPlanned":1,"continuationNeeded":false}`,
			wantField: "query",
		},
		{
			name:      "missing index",
			raw:       `{"query":"q","totalPlanned":1,"continuationNeeded":false}`,
			wantField: "index",
		},
		{
			name:      "missing totalPlanned",
			raw:       `{"query":"q","index":1,"continuationNeeded":false}`,
			wantField: "totalPlanned",
		},
		{
			name:      "missing continuationNeeded",
			raw:       `{"query":"q","index":1,"totalPlanned":1}`,
			wantField: "continuationNeeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTurnRequest([]byte(tt.raw))
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("DecodeTurnRequest() error = %v, want *ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("error field = %q, want %q", vErr.Field, tt.wantField)
			}
			if vErr.Reason != "required" {
				t.Errorf("error reason = %q, want %q", vErr.Reason, "required")
			}
		})
	}
}

func TestDecodeTurnRequestMalformed(t *testing.T) {
	_, err := DecodeTurnRequest([]byte(`not json at all`))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("DecodeTurnRequest() error = %v, want *ValidationError", err)
	}
	if vErr.Field != "request" {
		t.Errorf("error field = %q, want %q", vErr.Field, "request")
	}
}

func TestDecodeTurnRequestWrongType(t *testing.T) {
	raw := `{"query":"q","index":"first","totalPlanned":1,"continuationNeeded":false}`
	_, err := DecodeTurnRequest([]byte(raw))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("DecodeTurnRequest() error = %v, want *ValidationError", err)
	}
	if vErr.Field != "index" {
		t.Errorf("error field = %q, want %q", vErr.Field, "index")
	}
}

func TestDecodeTurnRequestSchemaViolation(t *testing.T) {
	raw := `{"query":"q","index":0,"totalPlanned":1,"continuationNeeded":false}`
	_, err := DecodeTurnRequest([]byte(raw))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("DecodeTurnRequest() error = %v, want *ValidationError", err)
	}
	if vErr.Field != "index" {
		t.Errorf("error field = %q, want %q", vErr.Field, "index")
	}
	if vErr.Reason != "must be at least 1" {
		t.Errorf("error reason = %q, want %q", vErr.Reason, "must be at least 1")
	}
}

func TestDecodeTurnRequestValid(t *testing.T) {
	raw := `{
		"query": "why does the cache go stale",
		"context": "ops report",
		"index": 2,
		"totalPlanned": 5,
		"previousBodies": ["first pass"],
		"isRevision": true,
		"revisesIndex": 1,
		"continuationNeeded": true,
		"confidence": 0.7
	}`

	req, err := DecodeTurnRequest([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeTurnRequest() error = %v", err)
	}
	if req.Query != "why does the cache go stale" {
		t.Errorf("Query = %q", req.Query)
	}
	if req.Index != 2 || req.TotalPlanned != 5 {
		t.Errorf("position = %d/%d, want 2/5", req.Index, req.TotalPlanned)
	}
	if !req.IsRevision || req.RevisesIndex == nil || *req.RevisesIndex != 1 {
		t.Errorf("revision markers not decoded: %+v", req)
	}
	if !req.ContinuationNeeded {
		t.Error("ContinuationNeeded = false, want true")
	}
	if req.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", req.Confidence)
	}
}
