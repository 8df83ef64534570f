package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/spamguard/internal/db"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/metrics"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// QuarantineMode controls behavior when the identity is already quarantined.
type QuarantineMode string

const (
	QuarantineModeError   QuarantineMode = "error"   // default: fail with ALREADY_QUARANTINED
	QuarantineModeReplace QuarantineMode = "replace" // overwrite the active record
)

// QuarantineInput contains parameters for the Quarantine operation.
type QuarantineInput struct {
	Email       string           // required
	Level       quarantine.Level // required
	ReasonCodes []string
	Note        *string // markdown
	Mode        QuarantineMode // default: QuarantineModeError
}

// QuarantineOutput contains the result of the Quarantine operation.
type QuarantineOutput struct {
	ID      string           `json:"id"`
	Created bool             `json:"created"`
	Item    *quarantine.Item `json:"item"`
}

// Quarantine manually places an identity in quarantine. In replace mode an
// active record is overwritten, including a move to a lower level.
func Quarantine(ctx context.Context, database *sql.DB, m *metrics.Collector, input QuarantineInput) (*QuarantineOutput, error) {
	if err := quarantine.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	if !input.Level.Valid() {
		return nil, errors.NewInvalidRequest("level must be one of: suspected, likely, proven")
	}
	if input.Mode == "" {
		input.Mode = QuarantineModeError
	}
	if input.Mode != QuarantineModeError && input.Mode != QuarantineModeReplace {
		return nil, errors.NewInvalidRequest("mode must be one of: error, replace")
	}

	reasons := make([]string, 0, len(input.ReasonCodes))
	for _, code := range input.ReasonCodes {
		if code = strings.TrimSpace(code); code != "" {
			reasons = append(reasons, code)
		}
	}

	email := strings.TrimSpace(input.Email)
	emailNorm := quarantine.NormalizeEmail(email)
	note := cleanOptionalString(input.Note)

	if input.Mode == QuarantineModeReplace {
		existing, err := db.GetActiveByEmail(ctx, database, emailNorm)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			existing.Level = input.Level
			existing.ReasonCodes = reasons
			existing.Note = note
			if err := db.UpdateByID(ctx, database, existing); err != nil {
				return nil, err
			}
			m.RecordQuarantine(input.Level.String())
			return &QuarantineOutput{ID: existing.ID, Item: existing}, nil
		}
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()
	item := &quarantine.Item{
		ID:          id,
		Email:       email,
		EmailNorm:   emailNorm,
		Level:       input.Level,
		ReasonCodes: reasons,
		Note:        note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := db.Insert(ctx, database, item); err != nil {
		if err == db.ErrUniqueConstraint {
			existingID := ""
			if existing, getErr := db.GetActiveByEmail(ctx, database, emailNorm); getErr == nil {
				existingID = existing.ID
			}
			return nil, errors.NewAlreadyQuarantined(email, existingID)
		}
		return nil, err
	}

	m.RecordQuarantine(input.Level.String())
	return &QuarantineOutput{ID: id, Created: true, Item: item}, nil
}
