package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/spamguard/internal/db"
)

// StatsOutput summarizes active quarantines.
type StatsOutput struct {
	Active  int            `json:"active"`
	ByLevel map[string]int `json:"by_level"`
}

// Stats counts active quarantines per level.
func Stats(ctx context.Context, database *sql.DB) (*StatsOutput, error) {
	counts, err := db.CountActiveByLevel(ctx, database)
	if err != nil {
		return nil, err
	}

	out := &StatsOutput{ByLevel: make(map[string]int, len(counts))}
	for level, n := range counts {
		out.ByLevel[level.String()] = n
		out.Active += n
	}
	return out, nil
}
