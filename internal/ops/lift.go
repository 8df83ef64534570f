package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/hpungsan/spamguard/internal/db"
	"github.com/hpungsan/spamguard/internal/metrics"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// LiftInput contains parameters for the Lift operation.
type LiftInput struct {
	ID    string
	Email string
	Note  *string // replaces the stored note when set
}

// LiftOutput contains the lifted record.
type LiftOutput struct {
	quarantine.Item
}

// Lift ends a quarantine. The record is kept with lifted_at set; lifting it
// again returns ALREADY_LIFTED.
func Lift(ctx context.Context, database *sql.DB, m *metrics.Collector, input LiftInput) (*LiftOutput, error) {
	addr, err := ValidateAddress(input.ID, input.Email)
	if err != nil {
		return nil, err
	}

	var item *quarantine.Item
	if addr.ByID {
		item, err = db.GetByID(ctx, database, addr.ID, true)
	} else {
		item, err = db.GetLatestByEmail(ctx, database, addr.EmailNorm, true)
	}
	if err != nil {
		return nil, err
	}

	if err := item.Lift(time.Now()); err != nil {
		return nil, err
	}

	note := cleanOptionalString(input.Note)
	if err := db.Lift(ctx, database, item.ID, *item.LiftedAt, note); err != nil {
		return nil, err
	}
	item.UpdatedAt = *item.LiftedAt
	if note != nil {
		item.Note = note
	}

	m.RecordLift()
	slog.InfoContext(ctx, "quarantine lifted", "id", item.ID, "email", item.EmailNorm, "level", item.Level.String())

	return &LiftOutput{Item: *item}, nil
}
