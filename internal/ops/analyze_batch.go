package ops

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/spamguard/internal/config"
	"github.com/hpungsan/spamguard/internal/errors"
	"github.com/hpungsan/spamguard/internal/metrics"
)

// AnalyzeBatchInput contains parameters for the AnalyzeBatch operation.
type AnalyzeBatchInput struct {
	Texts []string
}

// AnalyzeBatchOutput holds one result per input text, in input order.
type AnalyzeBatchOutput struct {
	Items []*AnalyzeOutput `json:"items"`
	Count int              `json:"count"`
}

// AnalyzeBatch analyses many strings concurrently. At most
// cfg.AnalyzeConcurrency analyses run at once.
func AnalyzeBatch(ctx context.Context, cfg *config.Config, m *metrics.Collector, input AnalyzeBatchInput) (*AnalyzeBatchOutput, error) {
	if len(input.Texts) == 0 {
		return nil, errors.NewInvalidRequest("texts is required")
	}
	if len(input.Texts) > MaxBatchItems {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many texts: %d (max %d)", len(input.Texts), MaxBatchItems))
	}
	for i, text := range input.Texts {
		if err := validateText(fmt.Sprintf("texts[%d]", i), text); err != nil {
			return nil, err
		}
	}

	limit := config.DefaultConfig().AnalyzeConcurrency
	if cfg != nil && cfg.AnalyzeConcurrency > 0 {
		limit = cfg.AnalyzeConcurrency
	}

	items := make([]*AnalyzeOutput, len(input.Texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, text := range input.Texts {
		g.Go(func() error {
			if gctx.Err() != nil {
				return errors.NewCancelled("analyze_batch")
			}
			// each goroutine owns its slot
			items[i] = analyze(m, text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("analyze_batch")
	}

	return &AnalyzeBatchOutput{Items: items, Count: len(items)}, nil
}
