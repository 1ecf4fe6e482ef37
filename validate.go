package ponder

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate checks struct tags on incoming requests. Field names in
// reported errors use the json tag so callers see wire names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requiredTurnFields must be present as keys in a turn request object,
// whatever their values decode to.
var requiredTurnFields = []string{"query", "index", "totalPlanned", "continuationNeeded"}

// ValidateThought checks the cross-field rules a thought must satisfy
// before it can enter a session. The first violation is returned as a
// *ValidationError naming the offending wire field.
func ValidateThought(t Thought) error {
	if strings.TrimSpace(t.Query) == "" {
		return &ValidationError{Field: "query", Reason: "must be a non-empty string"}
	}
	if t.Index < 1 {
		return &ValidationError{Field: "index", Reason: "must be a positive integer"}
	}
	if t.TotalPlanned < 1 {
		return &ValidationError{Field: "totalPlanned", Reason: "must be a positive integer"}
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return &ValidationError{Field: "confidence", Reason: "must be between 0 and 1"}
	}
	if t.IsRevision && t.RevisesIndex == nil {
		return &ValidationError{Field: "revisesIndex", Reason: "required when isRevision is set"}
	}
	if !t.IsRevision && t.RevisesIndex != nil {
		return &ValidationError{Field: "isRevision", Reason: "required when revisesIndex is set"}
	}
	if t.RevisesIndex != nil && *t.RevisesIndex < 1 {
		return &ValidationError{Field: "revisesIndex", Reason: "must be a positive integer"}
	}
	if t.BranchFrom != nil && strings.TrimSpace(t.BranchID) == "" {
		return &ValidationError{Field: "branchId", Reason: "required when branchFromIndex is set"}
	}
	if t.BranchFrom == nil && t.BranchID != "" {
		return &ValidationError{Field: "branchFromIndex", Reason: "required when branchId is set"}
	}
	if t.BranchFrom != nil && *t.BranchFrom < 1 {
		return &ValidationError{Field: "branchFromIndex", Reason: "must be a positive integer"}
	}
	return nil
}

// DecodeTurnRequest parses raw JSON into a TurnRequest, checking shape
// only: required keys, field types, and per-field schema constraints.
// Cross-field rules are enforced later by [ValidateThought].
func DecodeTurnRequest(raw []byte) (TurnRequest, error) {
	var req TurnRequest

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return req, &ValidationError{Field: "request", Reason: "not a JSON object"}
	}
	for _, field := range requiredTurnFields {
		if _, ok := fields[field]; !ok {
			return req, &ValidationError{Field: field, Reason: "required"}
		}
	}

	if err := json.Unmarshal(raw, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "request"
			}
			return req, &ValidationError{Field: field, Reason: "cannot be " + typeErr.Value}
		}
		return req, &ValidationError{Field: "request", Reason: "malformed JSON"}
	}

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return req, &ValidationError{Field: fe.Field(), Reason: validationReason(fe)}
		}
		return req, &ValidationError{Field: "request", Reason: "failed validation"}
	}

	return req, nil
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " constraint"
	}
}
