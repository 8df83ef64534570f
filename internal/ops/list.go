package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/spamguard/internal/db"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/quarantine"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Email         string           // optional exact-identity filter
	Level         quarantine.Level // optional; 0 means any level
	IncludeLifted bool
	Limit         int // default: 20, max: 100
	Offset        int // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []quarantine.Summary `json:"items"`
	Pagination Pagination           `json:"pagination"`
	Sort       string               `json:"sort"`
}

// List retrieves quarantine summaries with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	filter := db.ListFilter{Level: input.Level, IncludeLifted: input.IncludeLifted}

	if input.Level != 0 && !input.Level.Valid() {
		return nil, errors.NewInvalidRequest("level must be one of: suspected, likely, proven")
	}
	if input.Email != "" {
		if err := quarantine.ValidateEmail(input.Email); err != nil {
			return nil, err
		}
		filter.EmailNorm = quarantine.NormalizeEmail(input.Email)
	}

	limit, offset := clampPage(input.Limit, input.Offset)

	summaries, total, err := db.ListItems(ctx, database, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []quarantine.Summary{}
	}

	return &ListOutput{
		Items: summaries,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(summaries) < total,
			Total:   total,
		},
		Sort: "updated_at_desc",
	}, nil
}
