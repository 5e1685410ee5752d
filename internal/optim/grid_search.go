package optim

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
)

var ErrNoTrials = errors.New("grid search ran no trials")

// Trial runs one candidate and returns its metrics.
type Trial func(ctx context.Context, params map[string]float64) (map[string]float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d params but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("param %s has no values", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Maximize makes the search keep the largest metric value instead of the
// smallest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Result is the best point found.
type Result struct {
	Params map[string]float64
	Value  float64
	Trials int
}

// Search evaluates every grid point and keeps the best value of metricName.
// A failing trial aborts the search.
func (g *GridSearch) Search(ctx context.Context, trial Trial, metricName string) (*Result, error) {
	best := &Result{Value: math.Inf(1)}
	if g.maximize {
		best.Value = math.Inf(-1)
	}
	if err := g.searchRecursive(ctx, 0, map[string]float64{}, trial, metricName, best); err != nil {
		return nil, err
	}
	if best.Params == nil {
		return nil, ErrNoTrials
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	trial Trial,
	metricName string,
	best *Result,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		metrics, err := trial(ctx, maps.Clone(current))
		if err != nil {
			return fmt.Errorf("trial %v: %w", current, err)
		}
		best.Trials++

		val, ok := metrics[metricName]
		if !ok {
			return fmt.Errorf("metric %q not reported", metricName)
		}
		if math.IsNaN(val) {
			return nil
		}
		if best.Params == nil || g.better(val, best.Value) {
			best.Value = val
			best.Params = maps.Clone(current)
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := maps.Clone(current)
		next[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, next, trial, metricName, best); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) better(v, than float64) bool {
	if g.maximize {
		return v > than
	}
	return v < than
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
