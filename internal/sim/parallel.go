package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/leap/internal/dynamo"
)

// Factory builds an independent simulator for one seed.
type Factory func(seed uint64) (*Simulator, error)

// Ensemble runs the same configuration over consecutive seeds.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart uint64
	workers   int
}

// NewEnsemble runs numRuns episodes with seeds seedStart, seedStart+1, ...
// Seed 0 means unseeded, so a zero seedStart starts at 1.
func NewEnsemble(f Factory, numRuns int, seedStart uint64) *Ensemble {
	if seedStart == 0 {
		seedStart = 1
	}
	return &Ensemble{factory: f, numRuns: numRuns, seedStart: seedStart, workers: runtime.GOMAXPROCS(0)}
}

// SetWorkers bounds the number of concurrent runs.
func (e *Ensemble) SetWorkers(n int) {
	if n > 0 {
		e.workers = n
	}
}

// Run executes every episode and returns the results in seed order. The
// first failing episode cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("ensemble needs at least one run, got %d: %w", e.numRuns, dynamo.ErrParameterBounds)
	}
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + uint64(i)

			sim, err := e.factory(cfgCopy.Seed)
			if err != nil {
				return err
			}
			results[i], err = sim.Run(ctx, cfgCopy)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
