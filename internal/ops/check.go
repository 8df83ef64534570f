package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/spamguard/internal/db"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// CheckInput contains parameters for the Check operation.
type CheckInput struct {
	Email  string             // required
	Levels []quarantine.Level // optional; empty matches any level
}

// CheckOutput reports whether an identity is currently quarantined.
type CheckOutput struct {
	Email       string            `json:"email"`
	Quarantined bool              `json:"quarantined"`
	Level       *quarantine.Level `json:"level,omitempty"`
	ID          string            `json:"id,omitempty"`
}

// Check answers "is this identity quarantined (at one of these levels)?".
// An identity with no active record is simply not quarantined.
func Check(ctx context.Context, database *sql.DB, input CheckInput) (*CheckOutput, error) {
	if err := quarantine.ValidateEmail(input.Email); err != nil {
		return nil, err
	}
	for _, l := range input.Levels {
		if !l.Valid() {
			return nil, errors.NewInvalidRequest("level must be one of: suspected, likely, proven")
		}
	}

	out := &CheckOutput{Email: strings.TrimSpace(input.Email)}

	item, err := db.GetActiveByEmail(ctx, database, quarantine.NormalizeEmail(input.Email))
	if errors.Is(err, errors.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	if item.IsQuarantined(input.Levels...) {
		out.Quarantined = true
		out.Level = &item.Level
		out.ID = item.ID
	}
	return out, nil
}
