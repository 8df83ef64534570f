package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/spamguard/internal/db"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID            string
	Email         string
	IncludeLifted bool
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	quarantine.Item // embedded (copy, not pointer)
}

// Fetch retrieves a quarantine record by ID or email. By email, the active
// record wins; with IncludeLifted the latest lifted record is the fallback.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Email)
	if err != nil {
		return nil, err
	}

	var item *quarantine.Item
	if addr.ByID {
		item, err = db.GetByID(ctx, database, addr.ID, input.IncludeLifted)
	} else {
		item, err = db.GetLatestByEmail(ctx, database, addr.EmailNorm, input.IncludeLifted)
	}
	if err != nil {
		return nil, err
	}

	return &FetchOutput{Item: *item}, nil
}
