// Package sweep runs a problem across a range of values for one
// parameter and reports a terminal state value per point.
package sweep

import (
	"context"

	"github.com/overstory/standsim/internal/scenario"
)

type Point struct {
	Param  float64 // swept value, in the declared unit
	Output float64 // terminal value of the output state, SI
}

// Sweep describes one parameter axis. Unit must match the unit the
// model declares for the parameter.
type Sweep struct {
	Param  string
	Unit   string
	Values []float64
}

// Run derives one problem per value, solves each, and collects the
// terminal value of the named output state. Trajectories are
// independent, so a stochastic method with a fixed seed gives each
// point the same noise realization and isolates the parameter effect.
func (s *Sweep) Run(ctx context.Context, base *scenario.Problem, method scenario.Method, output string) ([]Point, error) {
	points := make([]Point, 0, len(s.Values))

	for _, v := range s.Values {
		p, err := base.Derive(nil, map[string]scenario.Value{
			s.Param: {V: v, Unit: s.Unit},
		})
		if err != nil {
			return nil, err
		}

		sol, err := scenario.NewSolver(method).Run(ctx, p)
		if err != nil {
			return nil, err
		}
		out, err := sol.Terminal(output)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Param: v, Output: out})
	}

	return points, nil
}
