package mcp

import "github.com/mark3labs/mcp-go/mcp"

const levelHelp = "Quarantine level: suspected, likely or proven"

var analyzeToolDef = mcp.NewTool("text_analyze",
	mcp.WithDescription("Classify every character of a string and score how human it looks, from 0.0 (machine-like) to 1.0. Returns counts, longest runs, per-check points and the failed check codes."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("text", mcp.Required(), mcp.Description("The string to analyse, e.g. a first name or an email local part")),
)

var analyzeBatchToolDef = mcp.NewTool("text_analyze_batch",
	mcp.WithDescription("Analyse many strings in parallel. Results are returned in input order."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("texts", mcp.Required(), mcp.Description("Strings to analyse (max 500)"), mcp.Items(map[string]any{"type": "string"})),
)

var screenToolDef = mcp.NewTool("quarantine_screen",
	mcp.WithDescription("Score an identity (email local part plus optional fields) and quarantine it when the lowest score falls under the configured thresholds. An active quarantine is escalated, never downgraded."),
	mcp.WithString("email", mcp.Required(), mcp.Description("Email address of the identity")),
	mcp.WithObject("fields", mcp.Description("Extra free-text fields keyed by name, e.g. {\"first_name\": \"...\"}"), mcp.AdditionalProperties(map[string]any{"type": "string"})),
	mcp.WithBoolean("dry_run", mcp.Description("Decide without writing anything")),
)

var createToolDef = mcp.NewTool("quarantine_create",
	mcp.WithDescription("Manually quarantine an identity at a given level."),
	mcp.WithString("email", mcp.Required(), mcp.Description("Email address of the identity")),
	mcp.WithString("level", mcp.Required(), mcp.Description(levelHelp), mcp.Enum("suspected", "likely", "proven")),
	mcp.WithArray("reason_codes", mcp.Description("Machine-readable reasons"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithString("note", mcp.Description("Markdown note for reviewers")),
	mcp.WithString("mode", mcp.Description("error (default) fails if already quarantined; replace overwrites the active record"), mcp.Enum("error", "replace")),
)

var fetchToolDef = mcp.NewTool("quarantine_fetch",
	mcp.WithDescription("Fetch one quarantine record by id or by email (exactly one)."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Description("Record ULID")),
	mcp.WithString("email", mcp.Description("Email address; the active record wins")),
	mcp.WithBoolean("include_lifted", mcp.Description("Also return lifted records")),
)

var checkToolDef = mcp.NewTool("quarantine_check",
	mcp.WithDescription("Report whether an identity is currently quarantined, optionally at one of the given levels."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("email", mcp.Required(), mcp.Description("Email address of the identity")),
	mcp.WithArray("levels", mcp.Description("Levels to match; empty matches any level"), mcp.Items(map[string]any{"type": "string", "enum": []string{"suspected", "likely", "proven"}})),
)

var liftToolDef = mcp.NewTool("quarantine_lift",
	mcp.WithDescription("Lift a quarantine by id or email. The record is kept for audit."),
	mcp.WithString("id", mcp.Description("Record ULID")),
	mcp.WithString("email", mcp.Description("Email address")),
	mcp.WithString("note", mcp.Description("Replaces the record note")),
)

var listToolDef = mcp.NewTool("quarantine_list",
	mcp.WithDescription("List quarantine summaries, most recently updated first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("email", mcp.Description("Only this identity")),
	mcp.WithString("level", mcp.Description(levelHelp), mcp.Enum("suspected", "likely", "proven")),
	mcp.WithBoolean("include_lifted", mcp.Description("Include lifted records")),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Page offset")),
)

var statsToolDef = mcp.NewTool("quarantine_stats",
	mcp.WithDescription("Count active quarantines per level."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var exportToolDef = mcp.NewTool("quarantine_export",
	mcp.WithDescription("Write quarantine records to a JSONL file for audit."),
	mcp.WithString("path", mcp.Description("Destination .jsonl file (default ~/.spamguard/exports/quarantine-<timestamp>.jsonl)")),
	mcp.WithBoolean("include_lifted", mcp.Description("Include lifted records")),
)
