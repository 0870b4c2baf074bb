package normalize

import (
	"context"
	"fmt"
	"iter"

	"github.com/zorse-project/zorse/pkg/record"
)

// Pipeline drains one source: it pulls candidate rows, normalizes each one
// and hands admitted records to emit in row order.
type Pipeline[T any] struct {
	Label      string
	Rows       func(ctx context.Context) iter.Seq2[T, error]
	Normalizer Normalizer[T]
}

func (p *Pipeline[T]) Name() string { return p.Label }

// Run processes every row. Source and normalizer errors abort the run; the
// tally up to that point is returned alongside the error.
func (p *Pipeline[T]) Run(ctx context.Context, emit func(record.Record)) (Tally, error) {
	var tally Tally
	for raw, err := range p.Rows(ctx) {
		if err != nil {
			return tally, fmt.Errorf("%s: %w", p.Label, err)
		}
		if err := ctx.Err(); err != nil {
			return tally, err
		}

		res, err := p.Normalizer.Normalize(ctx, raw)
		if err != nil {
			return tally, fmt.Errorf("%s: %w", p.Label, err)
		}
		tally.add(res)
		if res.Outcome == Admitted {
			emit(res.Record)
		}
	}
	return tally, nil
}
