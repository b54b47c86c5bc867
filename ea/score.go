package ea

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// ScoreFunction computes the score of a genome. Implementations must be safe
// for concurrent use; workers score their offspring in parallel.
type ScoreFunction interface {
	CalculateScore(g Genome) (float64, error)
}

// ScoreFunc adapts an ordinary function to ScoreFunction.
type ScoreFunc func(g Genome) (float64, error)

func (f ScoreFunc) CalculateScore(g Genome) (float64, error) {
	return f(g)
}

// ParallelScore scores every genome with at most threads goroutines (0 uses
// runtime.NumCPU). The first error cancels the remaining work and is returned.
func ParallelScore(ctx context.Context, genomes []Genome, fn ScoreFunction, threads int) error {
	if fn == nil {
		return fmt.Errorf("%w: score function is required", ErrConfiguration)
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(threads).
		WithCancelOnError().
		WithFirstError()
	for i, g := range genomes {
		p.Go(func(poolCtx context.Context) error {
			if poolCtx.Err() != nil {
				return nil
			}
			score, err := fn.CalculateScore(g)
			if err != nil {
				return fmt.Errorf("score genome %d: %w", i, err)
			}
			g.SetScore(score)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
