package ponder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
	"github.com/zoobzio/zyn"
)

// TurnRequest is one step request as received on the wire.
type TurnRequest struct {
	Query              string   `json:"query" validate:"required"`
	Context            string   `json:"context,omitempty"`
	Approach           string   `json:"approach,omitempty"`
	Body               string   `json:"body,omitempty"`
	Index              int      `json:"index" validate:"gte=1"`
	TotalPlanned       int      `json:"totalPlanned" validate:"gte=1"`
	PreviousBodies     []string `json:"previousBodies,omitempty"`
	IsRevision         bool     `json:"isRevision,omitempty"`
	RevisesIndex       *int     `json:"revisesIndex,omitempty" validate:"omitempty,gte=1"`
	BranchFromIndex    *int     `json:"branchFromIndex,omitempty" validate:"omitempty,gte=1"`
	BranchID           string   `json:"branchId,omitempty"`
	NeedsMore          bool     `json:"needsMore,omitempty"`
	ContinuationNeeded bool     `json:"continuationNeeded"`
	MetaNote           string   `json:"metaNote,omitempty"`
	Confidence         float64  `json:"confidence,omitempty" validate:"gte=0,lte=1"`
	Alternatives       []string `json:"alternatives,omitempty"`
}

// thought converts the request into the Thought it asks to record.
func (r TurnRequest) thought() Thought {
	return Thought{
		Query:              r.Query,
		Context:            r.Context,
		Approach:           r.Approach,
		Body:               r.Body,
		Index:              r.Index,
		TotalPlanned:       r.TotalPlanned,
		PreviousBodies:     r.PreviousBodies,
		IsRevision:         r.IsRevision,
		RevisesIndex:       r.RevisesIndex,
		BranchFrom:         r.BranchFromIndex,
		BranchID:           r.BranchID,
		NeedsMore:          r.NeedsMore,
		ContinuationNeeded: r.ContinuationNeeded,
		MetaNote:           r.MetaNote,
		Confidence:         r.Confidence,
		Alternatives:       r.Alternatives,
	}
}

// TurnResponse reports the stored thought and the session's shape after
// a successful turn.
type TurnResponse struct {
	Body               string   `json:"body"`
	Index              int      `json:"index"`
	TotalPlanned       int      `json:"totalPlanned"`
	ContinuationNeeded bool     `json:"continuationNeeded"`
	BranchIDs          []string `json:"branchIds"`
	HistoryLength      int      `json:"historyLength"`
	MetaNote           string   `json:"metaNote,omitempty"`
	Confidence         float64  `json:"confidence,omitempty"`
	Alternatives       []string `json:"alternatives,omitempty"`
}

// CommandRequest asks for a session operation instead of a turn.
type CommandRequest struct {
	Command string `json:"command"`
	Path    string `json:"path,omitempty"`
}

// CommandResponse reports a command's outcome. BranchIDs and
// LastThought have no omitempty tag: getState on an empty session must
// answer with an explicit [] and null.
type CommandResponse struct {
	Status        string   `json:"status"`
	Message       string   `json:"message,omitempty"`
	HistoryLength *int     `json:"historyLength,omitempty"`
	BranchIDs     []string `json:"branchIds"`
	LastThought   *Thought `json:"lastThought"`
}

// turnState is the value threaded through the turn pipeline.
type turnState struct {
	req      TurnRequest
	thought  Thought
	raw      string
	result   AppendResult
	response *TurnResponse
}

// Controller processes turn requests and session commands against one
// session. Turns run through a pipz pipeline: generate when the caller
// supplied no body, extract meta commentary, record, respond. Safe for
// concurrent use; turns are serialized.
type Controller struct {
	session     *Session
	generator   Generator
	genCfg      GenerationConfig
	convo       *zyn.Session
	diag        io.Writer
	sieve       *Sieve
	priorWindow int

	once     sync.Once
	pipeline pipz.Chainable[*turnState]
	mu       sync.Mutex
}

// NewController returns a controller over session with default
// generation settings, diagnostics to stderr, and no sieve.
func NewController(session *Session) *Controller {
	return &Controller{
		session: session,
		genCfg:  DefaultGeneration,
		convo:   zyn.NewSession(),
		diag:    os.Stderr,
	}
}

// WithGenerator sets the controller-level generator, the first stop in
// the resolution hierarchy.
func (c *Controller) WithGenerator(g Generator) *Controller {
	c.generator = g
	return c
}

// WithGenerationConfig replaces the generation settings.
func (c *Controller) WithGenerationConfig(cfg GenerationConfig) *Controller {
	c.genCfg = cfg
	return c
}

// WithDiagnostics redirects the rendered thought boxes.
func (c *Controller) WithDiagnostics(w io.Writer) *Controller {
	if w != nil {
		c.diag = w
	}
	return c
}

// WithSieve enables context filtering for sectioned documents.
func (c *Controller) WithSieve(s *Sieve) *Controller {
	c.sieve = s
	return c
}

// WithPriorWindow caps how many previous bodies reach the prompt, most
// recent kept. Zero means no cap.
func (c *Controller) WithPriorWindow(n int) *Controller {
	if n >= 0 {
		c.priorWindow = n
	}
	return c
}

// Session returns the underlying session.
func (c *Controller) Session() *Session {
	return c.session
}

// Transcript returns the generator conversation so far, prompts and
// responses in call order.
func (c *Controller) Transcript() []zyn.Message {
	return c.convo.Messages()
}

// Close releases the turn pipeline.
func (c *Controller) Close() error {
	if c.pipeline != nil {
		return c.pipeline.Close()
	}
	return nil
}

func (c *Controller) buildPipeline() {
	generate := pipz.Apply(pipz.Name("generate"), c.generate)
	extract := pipz.Transform(pipz.Name("extract-meta"), c.extractMeta)
	record := pipz.Apply(pipz.Name("record"), c.record)
	respond := pipz.Transform(pipz.Name("respond"), c.respond)

	c.pipeline = pipz.NewSequence(pipz.Name("turn"),
		pipz.NewFilter(pipz.Name("needs-generation"), needsGeneration,
			pipz.NewSequence(pipz.Name("generate-extract"), generate, extract),
		),
		record,
		respond,
	)
}

// needsGeneration gates the generator: a caller-supplied body passes
// through untouched.
func needsGeneration(_ context.Context, t *turnState) bool {
	return strings.TrimSpace(t.thought.Body) == ""
}

// generate consults the generator for the thought body. Generation is
// best-effort: resolution and call failures degrade the turn to a
// diagnostic body rather than failing it.
func (c *Controller) generate(ctx context.Context, t *turnState) (*turnState, error) {
	req := t.req
	if c.sieve != nil && strings.Contains(req.Context, sectionDelimiter) {
		req.Context = c.sieve.Filter(ctx, req.Context, req.Query, c.sieve.Keywords(req.Query))
	}
	if c.priorWindow > 0 && len(req.PreviousBodies) > c.priorWindow {
		req.PreviousBodies = req.PreviousBodies[len(req.PreviousBodies)-c.priorWindow:]
	}
	prompt := BuildPrompt(req)

	gen, err := ResolveGenerator(ctx, c.generator)
	if err != nil {
		t.raw = fmt.Sprintf("[generation error] %v", err)
		t.thought.Body = t.raw
		capitan.Error(ctx, GeneratorFailed,
			FieldSessionID.Field(c.session.ID()),
			FieldIndex.Field(t.req.Index),
			FieldError.Field(err),
		)
		return t, nil
	}

	start := time.Now()
	out, err := gen.Generate(ctx, prompt, c.genCfg)
	if err != nil {
		t.raw = fmt.Sprintf("[generation error] %v", err)
		t.thought.Body = t.raw
		capitan.Error(ctx, GeneratorFailed,
			FieldSessionID.Field(c.session.ID()),
			FieldGenerator.Field(gen.Name()),
			FieldIndex.Field(t.req.Index),
			FieldError.Field(err),
		)
		return t, nil
	}

	t.raw = out
	t.thought.Body = out
	c.convo.Append("user", prompt)
	c.convo.Append("assistant", out)

	capitan.Emit(ctx, GeneratorConsulted,
		FieldSessionID.Field(c.session.ID()),
		FieldGenerator.Field(gen.Name()),
		FieldIndex.Field(t.req.Index),
		FieldPromptSize.Field(len(prompt)),
		FieldBodySize.Field(len(out)),
		FieldDuration.Field(time.Since(start)),
	)
	return t, nil
}

// extractMeta strips marker lines from the generated text and lifts the
// parsed commentary onto the thought. A body that is nothing but
// markers keeps the raw text so the stored thought stays non-empty.
func (c *Controller) extractMeta(_ context.Context, t *turnState) *turnState {
	meta, body := ExtractMeta(t.raw)
	if body != "" {
		t.thought.Body = body
	}
	if meta.Note != "" {
		t.thought.MetaNote = meta.Note
	}
	if meta.Confidence > 0 {
		t.thought.Confidence = meta.Confidence
	}
	if len(meta.Alternatives) > 0 {
		t.thought.Alternatives = meta.Alternatives
	}
	return t
}

// record appends the thought to the session.
func (c *Controller) record(ctx context.Context, t *turnState) (*turnState, error) {
	result, err := c.session.Append(ctx, t.thought)
	if err != nil {
		return t, err
	}
	t.result = result
	return t, nil
}

// respond builds the turn response and renders the stored thought to
// the diagnostic writer.
func (c *Controller) respond(_ context.Context, t *turnState) *turnState {
	stored := t.result.Thought
	t.response = &TurnResponse{
		Body:               stored.Body,
		Index:              stored.Index,
		TotalPlanned:       stored.TotalPlanned,
		ContinuationNeeded: stored.ContinuationNeeded,
		BranchIDs:          t.result.BranchIDs,
		HistoryLength:      t.result.HistoryLength,
		MetaNote:           stored.MetaNote,
		Confidence:         stored.Confidence,
		Alternatives:       stored.Alternatives,
	}
	fmt.Fprintln(c.diag, RenderThought(stored))
	return t
}

// Turn processes one step request: validate, generate when the body is
// empty, record, respond. Validation failures reject the turn before
// any generator call.
func (c *Controller) Turn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	capitan.Emit(ctx, TurnStarted,
		FieldSessionID.Field(c.session.ID()),
		FieldIndex.Field(req.Index),
		FieldTotalPlanned.Field(req.TotalPlanned),
	)

	if err := ValidateThought(req.thought()); err != nil {
		capitan.Error(ctx, TurnRejected,
			FieldSessionID.Field(c.session.ID()),
			FieldIndex.Field(req.Index),
			FieldError.Field(err),
		)
		return nil, err
	}

	c.once.Do(c.buildPipeline)

	state := &turnState{req: req, thought: req.thought()}
	state, err := c.pipeline.Process(ctx, state)
	if err != nil {
		capitan.Error(ctx, TurnRejected,
			FieldSessionID.Field(c.session.ID()),
			FieldIndex.Field(req.Index),
			FieldError.Field(err),
		)
		return nil, err
	}

	capitan.Emit(ctx, TurnCompleted,
		FieldSessionID.Field(c.session.ID()),
		FieldIndex.Field(req.Index),
		FieldHistoryLength.Field(state.result.HistoryLength),
		FieldDuration.Field(time.Since(start)),
	)
	return state.response, nil
}

// Command executes a session operation: save, load, or getState.
// Failures come back in the response envelope, not as an error.
func (c *Controller) Command(ctx context.Context, req CommandRequest) *CommandResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch req.Command {
	case "save":
		if strings.TrimSpace(req.Path) == "" {
			return commandFailure(&ValidationError{Field: "path", Reason: "required for save"})
		}
		if err := SaveSession(ctx, c.session, req.Path); err != nil {
			return commandFailure(err)
		}
		n := c.session.Len()
		return &CommandResponse{
			Status:        "success",
			Message:       fmt.Sprintf("session saved to %s", req.Path),
			HistoryLength: &n,
			BranchIDs:     c.session.BranchIDs(),
		}

	case "load":
		if strings.TrimSpace(req.Path) == "" {
			return commandFailure(&ValidationError{Field: "path", Reason: "required for load"})
		}
		if err := RestoreSession(ctx, c.session, req.Path); err != nil {
			return commandFailure(err)
		}
		n := c.session.Len()
		resp := &CommandResponse{
			Status:        "success",
			Message:       fmt.Sprintf("session loaded from %s", req.Path),
			HistoryLength: &n,
			BranchIDs:     c.session.BranchIDs(),
		}
		if last, ok := c.session.LastThought(); ok {
			resp.LastThought = &last
		}
		return resp

	case "getState":
		n := c.session.Len()
		resp := &CommandResponse{
			Status:        "success",
			HistoryLength: &n,
			BranchIDs:     c.session.BranchIDs(),
		}
		if last, ok := c.session.LastThought(); ok {
			resp.LastThought = &last
		}
		return resp

	default:
		return commandFailure(&UnknownCommandError{Command: req.Command})
	}
}

func commandFailure(err error) *CommandResponse {
	return &CommandResponse{Status: "error", Message: err.Error()}
}

// errorEnvelope is the wire form of a failed request.
type errorEnvelope struct {
	Status    string `json:"status"`
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
}

func errorEnvelopeFor(err error) json.RawMessage {
	return mustMarshal(errorEnvelope{
		Status:    "error",
		ErrorKind: errorKind(err),
		Message:   err.Error(),
	})
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"status":"error","errorKind":"internal","message":"response encoding failed"}`)
	}
	return data
}

// Process handles one raw request from the wire: an object carrying a
// command key routes to [Controller.Command], anything else decodes as
// a turn. The reply is always a JSON document; failures become error
// envelopes naming the error kind.
func (c *Controller) Process(ctx context.Context, raw []byte) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return errorEnvelopeFor(&ValidationError{Field: "request", Reason: "not a JSON object"})
	}

	if _, ok := fields["command"]; ok {
		var req CommandRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return errorEnvelopeFor(&ValidationError{Field: "command", Reason: "must be a string"})
		}
		return mustMarshal(c.Command(ctx, req))
	}

	req, err := DecodeTurnRequest(raw)
	if err != nil {
		return errorEnvelopeFor(err)
	}
	resp, err := c.Turn(ctx, req)
	if err != nil {
		return errorEnvelopeFor(err)
	}
	return mustMarshal(resp)
}
