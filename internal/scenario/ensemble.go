package scenario

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/overstory/standsim/internal/dynamics"
)

// Ensemble runs the same Problem under consecutive seeds. Runs are
// independent and side-effect-free, so each gets its own goroutine and
// no coordination beyond the final join.
type Ensemble struct {
	base      *Problem
	method    Method
	numRuns   int
	seedStart int64
}

func NewEnsemble(p *Problem, method Method, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: p, method: method, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context) ([]*dynamics.Solution, error) {
	sols := make([]*dynamics.Solution, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			m := e.method
			m.Seed = e.seedStart + int64(idx)

			// each run rebuilds its own Problem so nothing is shared
			p, err := e.base.Derive(nil, nil)
			if err != nil {
				errs[idx] = err
				return
			}
			sols[idx], errs[idx] = NewSolver(m).Run(ctx, p)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return sols, nil
}

// MeanStd aggregates the terminal value of one named state across
// completed ensemble runs.
func MeanStd(sols []*dynamics.Solution, name string) (mean, std float64, err error) {
	if len(sols) == 0 {
		return 0, 0, fmt.Errorf("scenario: empty ensemble")
	}
	vals := make([]float64, 0, len(sols))
	for _, sol := range sols {
		v, err := sol.Terminal(name)
		if err != nil {
			return 0, 0, err
		}
		vals = append(vals, v)
	}

	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(vals)))
	return mean, std, nil
}
