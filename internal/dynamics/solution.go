package dynamics

import (
	"fmt"
	"sort"
)

// Status classifies how a solve ended.
type Status int

const (
	StatusOK Status = iota
	StatusNonFinite
	StatusStepTooSmall
	StatusMaxSteps
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNonFinite:
		return "non-finite"
	case StatusStepTooSmall:
		return "step-too-small"
	case StatusMaxSteps:
		return "max-steps"
	default:
		return "unknown"
	}
}

// Solution holds the sampled trajectory of one run. When Derivs is
// populated (adaptive runs store the drift at every accepted point),
// Sample uses cubic Hermite dense output; otherwise it falls back to
// linear interpolation, which is all a fixed-step stochastic trajectory
// defines between its steps. Read-only after the solve completes.
//
// A failed solve keeps everything up to the last valid state and sets
// Status and Fault.
type Solution struct {
	Names   []string
	Times   []float64
	States  []State
	Derivs  []State
	Status  Status
	Fault   error
	Metrics map[string]float64
}

func (s *Solution) Len() int {
	return len(s.Times)
}

// Trajectory returns the stored samples in time order.
func (s *Solution) Trajectory() ([]float64, []State) {
	return s.Times, s.States
}

// At returns the interpolated state vector at time t.
func (s *Solution) At(t float64) (State, error) {
	n := len(s.Times)
	if n == 0 {
		return nil, fmt.Errorf("dynamics: empty solution")
	}
	if t < s.Times[0] || t > s.Times[n-1] {
		return nil, fmt.Errorf("dynamics: t=%g outside solved span [%g, %g]", t, s.Times[0], s.Times[n-1])
	}
	i := sort.SearchFloat64s(s.Times, t)
	if i < n && s.Times[i] == t {
		return s.States[i].Clone(), nil
	}
	// t lies strictly inside (Times[i-1], Times[i])
	lo, hi := i-1, i
	h := s.Times[hi] - s.Times[lo]
	u := (t - s.Times[lo]) / h

	x := make(State, len(s.States[lo]))
	if len(s.Derivs) == len(s.States) {
		// cubic Hermite from stored endpoint derivatives
		u2 := u * u
		u3 := u2 * u
		h00 := 2*u3 - 3*u2 + 1
		h10 := u3 - 2*u2 + u
		h01 := -2*u3 + 3*u2
		h11 := u3 - u2
		for k := range x {
			x[k] = h00*s.States[lo][k] + h10*h*s.Derivs[lo][k] +
				h01*s.States[hi][k] + h11*h*s.Derivs[hi][k]
		}
		return x, nil
	}
	for k := range x {
		x[k] = s.States[lo][k] + u*(s.States[hi][k]-s.States[lo][k])
	}
	return x, nil
}

// Sample returns the interpolated state at t keyed by state name.
func (s *Solution) Sample(t float64) (map[string]float64, error) {
	x, err := s.At(t)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(s.Names))
	for i, name := range s.Names {
		out[name] = x[i]
	}
	return out, nil
}

// Series extracts the stored samples of one named state.
func (s *Solution) Series(name string) ([]float64, error) {
	idx := -1
	for i, n := range s.Names {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("dynamics: no state named %q", name)
	}
	out := make([]float64, len(s.States))
	for i, x := range s.States {
		out[i] = x[idx]
	}
	return out, nil
}

// Terminal returns the final stored value of one named state.
func (s *Solution) Terminal(name string) (float64, error) {
	series, err := s.Series(name)
	if err != nil {
		return 0, err
	}
	if len(series) == 0 {
		return 0, fmt.Errorf("dynamics: empty solution")
	}
	return series[len(series)-1], nil
}
