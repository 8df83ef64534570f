package ops

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/spamguard/internal/config"
	"github.com/hpungsan/spamguard/internal/db"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/metrics"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// EmailField is the field name under which the email local part is scored.
const EmailField = "email"

// Screening outcomes.
const (
	OutcomeClean       = metrics.OutcomeClean
	OutcomeQuarantined = metrics.OutcomeQuarantined
	OutcomeEscalated   = metrics.OutcomeEscalated
	OutcomeUnchanged   = metrics.OutcomeUnchanged
	OutcomeDryRun      = metrics.OutcomeDryRun
)

// ScreenInput contains parameters for the Screen operation.
type ScreenInput struct {
	Email  string            // required
	Fields map[string]string // optional free-text fields, e.g. first_name
	DryRun bool
}

// FieldScore is the analysis outcome for one screened field.
type FieldScore struct {
	Field        string   `json:"field"`
	Score        float64  `json:"score"`
	FailedChecks []string `json:"failed_checks"`
}

// ScreenOutput contains the decision of the Screen operation.
type ScreenOutput struct {
	Email       string            `json:"email"`
	Score       float64           `json:"score"`
	Fields      []FieldScore      `json:"fields"`
	Quarantined bool              `json:"quarantined"`
	Level       *quarantine.Level `json:"level,omitempty"`
	ReasonCodes []string          `json:"reason_codes"`
	Outcome     string            `json:"outcome"`
	Item        *quarantine.Item  `json:"item,omitempty"`
}

// Screen scores an identity and quarantines it when the lowest field score
// falls under a policy ceiling. An active quarantine is escalated to a
// stricter level but never downgraded. DryRun decides without writing.
func Screen(ctx context.Context, database *sql.DB, cfg *config.Config, m *metrics.Collector, input ScreenInput) (*ScreenOutput, error) {
	if err := quarantine.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(input.Email)
	emailNorm := quarantine.NormalizeEmail(email)

	names, err := fieldNames(input.Fields)
	if err != nil {
		return nil, err
	}

	policy := PolicyFromConfig(cfg)

	// The local part is always scored first, then fields by name
	texts := map[string]string{EmailField: quarantine.LocalPart(email)}
	order := []string{EmailField}
	for _, name := range names {
		value := strings.TrimSpace(input.Fields[name])
		if value == "" {
			continue
		}
		if err := validateText(name, value); err != nil {
			return nil, err
		}
		texts[name] = value
		order = append(order, name)
	}

	out := &ScreenOutput{
		Email:       email,
		Score:       1,
		Fields:      make([]FieldScore, 0, len(order)),
		ReasonCodes: []string{},
	}
	for _, name := range order {
		a := analyze(m, texts[name])
		out.Fields = append(out.Fields, FieldScore{Field: name, Score: a.Score, FailedChecks: a.FailedChecks})
		out.Score = min(out.Score, a.Score)

		if _, flagged := policy.Decide(a.Score); flagged {
			out.ReasonCodes = append(out.ReasonCodes, "low_score:"+name)
			for _, code := range a.FailedChecks {
				out.ReasonCodes = append(out.ReasonCodes, name+":"+code)
			}
		}
	}

	level, flagged := policy.Decide(out.Score)
	switch {
	case !flagged:
		out.Outcome = OutcomeClean
	case input.DryRun:
		out.Quarantined = true
		out.Level = &level
		out.Outcome = OutcomeDryRun
	default:
		out.Quarantined = true
		out.Level = &level
		item, outcome, err := applyScreening(ctx, database, email, emailNorm, level, out.ReasonCodes)
		if err != nil {
			return nil, err
		}
		out.Item = item
		out.Outcome = outcome
		if outcome != OutcomeUnchanged {
			m.RecordQuarantine(level.String())
		}
	}

	m.RecordScreening(out.Outcome)
	slog.InfoContext(ctx, "screening decision",
		"email", emailNorm,
		"score", out.Score,
		"outcome", out.Outcome,
		"reasons", len(out.ReasonCodes),
	)

	return out, nil
}

// applyScreening creates a quarantine for emailNorm or escalates the active one.
func applyScreening(ctx context.Context, database *sql.DB, email, emailNorm string, level quarantine.Level, reasons []string) (*quarantine.Item, string, error) {
	existing, err := db.GetActiveByEmail(ctx, database, emailNorm)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, "", err
	}

	if existing == nil {
		id, err := generateULID()
		if err != nil {
			return nil, "", errors.NewInternal(err)
		}
		now := time.Now().Unix()
		item := &quarantine.Item{
			ID:          id,
			Email:       email,
			EmailNorm:   emailNorm,
			Level:       level,
			ReasonCodes: append([]string{}, reasons...),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = db.Insert(ctx, database, item)
		if err == nil {
			return item, OutcomeQuarantined, nil
		}
		if err != db.ErrUniqueConstraint {
			return nil, "", err
		}

		// Lost a race with a concurrent screening; escalate its record instead
		existing, err = db.GetActiveByEmail(ctx, database, emailNorm)
		if err != nil {
			return nil, "", err
		}
	}

	if level <= existing.Level {
		return existing, OutcomeUnchanged, nil
	}

	existing.Level = level
	existing.ReasonCodes = append(existing.ReasonCodes, reasons...)
	if err := db.UpdateByID(ctx, database, existing); err != nil {
		return nil, "", err
	}
	return existing, OutcomeEscalated, nil
}

// fieldNames returns the field names sorted, rejecting blank and reserved names.
func fieldNames(fields map[string]string) ([]string, error) {
	if len(fields) > MaxScreenFields {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many fields: %d (max %d)", len(fields), MaxScreenFields))
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, errors.NewInvalidRequest("field names must not be empty")
		}
		if trimmed != name {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("field name %q must not have surrounding whitespace", name))
		}
		if name == EmailField {
			return nil, errors.NewInvalidRequest("field name \"email\" is reserved for the email local part")
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
