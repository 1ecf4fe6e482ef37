package ponder

import "github.com/zoobzio/capitan"

// Signal definitions for ponder session events.
// Signals follow the pattern: ponder.<entity>.<event>.
var (
	// Turn lifecycle signals.
	TurnStarted = capitan.NewSignal(
		"ponder.turn.started",
		"Turn request accepted for processing",
	)
	TurnCompleted = capitan.NewSignal(
		"ponder.turn.completed",
		"Turn processed and thought recorded",
	)
	TurnRejected = capitan.NewSignal(
		"ponder.turn.rejected",
		"Turn request rejected",
	)

	// History signals.
	ThoughtRecorded = capitan.NewSignal(
		"ponder.thought.recorded",
		"Thought appended to session history",
	)
	BranchExtended = capitan.NewSignal(
		"ponder.branch.extended",
		"Branch gained a thought",
	)
	BranchOrphanDropped = capitan.NewSignal(
		"ponder.branch.orphan_dropped",
		"Restored branch entry matched nothing in history",
	)

	// Generator signals.
	GeneratorConsulted = capitan.NewSignal(
		"ponder.generator.consulted",
		"Generator produced thought content",
	)
	GeneratorFailed = capitan.NewSignal(
		"ponder.generator.failed",
		"Generator call failed, turn degraded to diagnostic body",
	)

	// Persistence signals.
	SessionSaved = capitan.NewSignal(
		"ponder.session.saved",
		"Session snapshot written to disk",
	)
	SessionLoaded = capitan.NewSignal(
		"ponder.session.loaded",
		"Session snapshot read from disk",
	)
	ArchiveSaved = capitan.NewSignal(
		"ponder.archive.saved",
		"Session archived to database",
	)
	ArchiveLoaded = capitan.NewSignal(
		"ponder.archive.loaded",
		"Session loaded from database archive",
	)

	// Sieve signals.
	SectionsRanked = capitan.NewSignal(
		"ponder.sieve.ranked",
		"Document sections ranked for relevance",
	)
)

// Field keys for ponder event data.
var (
	// Session metadata.
	FieldSessionID     = capitan.NewStringKey("session_id")
	FieldThoughtID     = capitan.NewStringKey("thought_id")
	FieldIndex         = capitan.NewIntKey("index")
	FieldTotalPlanned  = capitan.NewIntKey("total_planned")
	FieldHistoryLength = capitan.NewIntKey("history_length")

	// Branch metadata.
	FieldBranchID    = capitan.NewStringKey("branch_id")
	FieldBranchCount = capitan.NewIntKey("branch_count")

	// Persistence metadata.
	FieldPath      = capitan.NewStringKey("path")
	FieldArchiveID = capitan.NewStringKey("archive_id")

	// Generator metadata.
	FieldGenerator  = capitan.NewStringKey("generator")
	FieldPromptSize = capitan.NewIntKey("prompt_size") // character count
	FieldBodySize   = capitan.NewIntKey("body_size")   // character count

	// Sieve metrics.
	FieldSectionCount  = capitan.NewIntKey("section_count")
	FieldSelectedCount = capitan.NewIntKey("selected_count")
	FieldTopSection    = capitan.NewStringKey("top_section")
	FieldTopScore      = capitan.NewFloat32Key("top_score")

	// Timing.
	FieldDuration = capitan.NewDurationKey("duration")

	// Error information.
	FieldError = capitan.NewErrorKey("error")
)
