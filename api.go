// Package ponder provides sequential-thinking sessions for Go: an
// append-only log of reasoning steps with revisions, named branches,
// LLM-backed content generation, and durable persistence.
//
// # Core Types
//
// The package is built around four core concepts:
//
//   - [Thought] - One immutable reasoning step: a plain step, a
//     revision of an earlier step, or a continuation of a named branch
//   - [Session] - The append-only history plus its branch listings
//   - [Controller] - Turn processing over one session: validate,
//     generate, record, respond
//   - [Generator] - LLM access for producing thought bodies
//
// # Processing Turns
//
// Create a session and a controller, then feed it turn requests:
//
//	session := ponder.NewSession()
//	ctrl := ponder.NewController(session).WithGenerator(gen)
//	resp, err := ctrl.Turn(ctx, ponder.TurnRequest{
//		Query:              "why is the cache stale?",
//		Index:              1,
//		TotalPlanned:       3,
//		ContinuationNeeded: true,
//	})
//
// A request carrying its own body is recorded as-is; an empty body is
// filled by the generator. Generation is best-effort: a failing
// generator degrades the turn to a diagnostic body instead of failing
// it, so the session keeps advancing.
//
// [Controller.Process] wraps the same flow for raw JSON requests and
// always answers with a JSON document, making it suitable for a
// line-oriented stdio loop.
//
// # Commands
//
// Session operations travel as commands beside turns:
//
//   - save - snapshot the session to a file
//   - load - replace the session from a snapshot
//   - getState - report history length, branches, and last thought
//
// # Generator Resolution
//
// Generator access uses a resolution hierarchy:
//
//  1. Controller-level (.WithGenerator(g))
//  2. Context value (ponder.WithGenerator(ctx, g))
//  3. Global default (ponder.SetGenerator(g))
//
// [ZynGenerator] adapts any zyn provider to the [Generator] interface.
//
// # Context Filtering
//
// Oversized turn context can be filtered before it reaches the
// generator. A [Sieve] splits "File: "-sectioned documents, scores each
// section against the query and its extracted keywords, and keeps only
// the best. See [ExtractKeywords], [SplitSections], and
// [FilterDocument].
//
// # Persistence
//
// Sessions round-trip through JSON snapshots on disk with [SaveSession]
// and [RestoreSession]. The [SoyArchive] implementation stores whole
// sessions in PostgreSQL via soy:
//
//	archive, err := ponder.NewSoyArchive(db)
//	id, err := archive.SaveSession(ctx, "cache investigation", session)
//
// # Observability
//
// Ponder emits capitan signals throughout execution. See signals.go for
// the complete list of events including TurnStarted, ThoughtRecorded,
// BranchExtended, GeneratorConsulted, and SessionSaved.
package ponder
