package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/spamguard/internal/config"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/metrics"
	"github.com/hpungsan/spamguard/internal/ops"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	metrics *metrics.Collector
}

// NewHandlers creates a new Handlers instance. m may be nil.
func NewHandlers(db *sql.DB, cfg *config.Config, m *metrics.Collector) *Handlers {
	return &Handlers{db: db, cfg: cfg, metrics: m}
}

// AnalyzeRequest represents the arguments for text_analyze.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// AnalyzeBatchRequest represents the arguments for text_analyze_batch.
type AnalyzeBatchRequest struct {
	Texts []string `json:"texts"`
}

// ScreenRequest represents the arguments for quarantine_screen.
type ScreenRequest struct {
	Email  string            `json:"email"`
	Fields map[string]string `json:"fields,omitempty"`
	DryRun bool              `json:"dry_run,omitempty"`
}

// CreateRequest represents the arguments for quarantine_create.
type CreateRequest struct {
	Email       string   `json:"email"`
	Level       string   `json:"level"`
	ReasonCodes []string `json:"reason_codes,omitempty"`
	Note        *string  `json:"note,omitempty"`
	Mode        string   `json:"mode,omitempty"`
}

// FetchRequest represents the arguments for quarantine_fetch.
type FetchRequest struct {
	ID            string `json:"id,omitempty"`
	Email         string `json:"email,omitempty"`
	IncludeLifted bool   `json:"include_lifted,omitempty"`
}

// CheckRequest represents the arguments for quarantine_check.
type CheckRequest struct {
	Email  string   `json:"email"`
	Levels []string `json:"levels,omitempty"`
}

// LiftRequest represents the arguments for quarantine_lift.
type LiftRequest struct {
	ID    string  `json:"id,omitempty"`
	Email string  `json:"email,omitempty"`
	Note  *string `json:"note,omitempty"`
}

// ListRequest represents the arguments for quarantine_list.
type ListRequest struct {
	Email         string `json:"email,omitempty"`
	Level         string `json:"level,omitempty"`
	IncludeLifted bool   `json:"include_lifted,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

// ExportRequest represents the arguments for quarantine_export.
type ExportRequest struct {
	Path          string `json:"path,omitempty"`
	IncludeLifted bool   `json:"include_lifted,omitempty"`
}

// HandleAnalyze handles the text_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Analyze(h.metrics, ops.AnalyzeInput{Text: input.Text})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleAnalyzeBatch handles the text_analyze_batch tool call.
func (h *Handlers) HandleAnalyzeBatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeBatchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.AnalyzeBatch(ctx, h.cfg, h.metrics, ops.AnalyzeBatchInput{Texts: input.Texts})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleScreen handles the quarantine_screen tool call.
func (h *Handlers) HandleScreen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ScreenRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Screen(ctx, h.db, h.cfg, h.metrics, ops.ScreenInput{
		Email:  input.Email,
		Fields: input.Fields,
		DryRun: input.DryRun,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCreate handles the quarantine_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	level, err := parseLevel(input.Level)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Quarantine(ctx, h.db, h.metrics, ops.QuarantineInput{
		Email:       input.Email,
		Level:       level,
		ReasonCodes: input.ReasonCodes,
		Note:        input.Note,
		Mode:        ops.QuarantineMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFetch handles the quarantine_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:            input.ID,
		Email:         input.Email,
		IncludeLifted: input.IncludeLifted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCheck handles the quarantine_check tool call.
func (h *Handlers) HandleCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CheckRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	levels := make([]quarantine.Level, 0, len(input.Levels))
	for _, s := range input.Levels {
		level, err := parseLevel(s)
		if err != nil {
			return errorResult(err), nil
		}
		levels = append(levels, level)
	}

	result, err := ops.Check(ctx, h.db, ops.CheckInput{Email: input.Email, Levels: levels})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleLift handles the quarantine_lift tool call.
func (h *Handlers) HandleLift(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LiftRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Lift(ctx, h.db, h.metrics, ops.LiftInput{
		ID:    input.ID,
		Email: input.Email,
		Note:  input.Note,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the quarantine_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var level quarantine.Level
	if input.Level != "" {
		if level, err = parseLevel(input.Level); err != nil {
			return errorResult(err), nil
		}
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Email:         input.Email,
		Level:         level,
		IncludeLifted: input.IncludeLifted,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleStats handles the quarantine_stats tool call.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Stats(ctx, h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the quarantine_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:          input.Path,
		IncludeLifted: input.IncludeLifted,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

func parseLevel(s string) (quarantine.Level, error) {
	level, err := quarantine.ParseLevel(s)
	if err != nil {
		return 0, errors.NewInvalidRequest(err.Error())
	}
	return level, nil
}

// errorResult creates an MCP error result with a structured JSON payload.
// Context added by wrapping (e.g. "texts[2]: ") is kept in the message.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var gErr *errors.GuardError
	if stderrors.As(err, &gErr) {
		message := gErr.Message
		if full := err.Error(); full != gErr.Error() {
			message = strings.TrimSuffix(full, gErr.Error()) + message
		}
		if gErr.Code == errors.ErrInternal {
			message = "an internal error occurred"
		}
		errorObj := map[string]any{
			"code":    gErr.Code,
			"message": message,
			"status":  gErr.Status,
		}
		// Internal messages and details may carry file paths or SQL errors
		if gErr.Code != errors.ErrInternal && gErr.Details != nil {
			errorObj["details"] = gErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result with a JSON payload.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
