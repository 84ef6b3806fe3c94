package scenario

import (
	"context"
	"fmt"
	"math"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/integrators"
)

type MethodKind int

const (
	// MethodAdaptive is the deterministic adaptive-step solver.
	MethodAdaptive MethodKind = iota
	// MethodStochastic is the fixed-step Euler-Maruyama solver; H and
	// Seed must be set.
	MethodStochastic
)

// Method selects the integration scheme for a solve.
type Method struct {
	Kind MethodKind
	H    float64 // fixed step, s (stochastic only)
	Seed int64   // noise seed (stochastic only)
}

// Solver runs one Problem to a Solution. Configuration problems are
// returned as errors; numerical faults during stepping are reported on
// the Solution with the last valid state, since retrying with the same
// method rarely helps and is the caller's call.
type Solver struct {
	method    Method
	cfg       dynamics.Config
	metrics   []dynamics.Metric
	observers []dynamics.Observer
}

func NewSolver(m Method) *Solver {
	return &Solver{method: m, cfg: dynamics.DefaultConfig()}
}

func (s *Solver) SetConfig(cfg dynamics.Config) { s.cfg = cfg }

func (s *Solver) AddMetric(m dynamics.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Solver) AddObserver(o dynamics.Observer) { s.observers = append(s.observers, o) }

func (s *Solver) Run(ctx context.Context, p *Problem) (*dynamics.Solution, error) {
	if p == nil {
		return nil, fmt.Errorf("scenario: nil problem")
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	switch s.method.Kind {
	case MethodAdaptive:
		return s.runAdaptive(ctx, p)
	case MethodStochastic:
		return s.runStochastic(ctx, p)
	default:
		return nil, fmt.Errorf("scenario: unknown method kind %d", s.method.Kind)
	}
}

func (s *Solver) runAdaptive(ctx context.Context, p *Problem) (*dynamics.Solution, error) {
	sys := p.System()
	t0, t1 := p.Span()
	span := t1 - t0

	dt := s.cfg.InitStep
	if dt <= 0 {
		dt = span / 1000
	}
	maxStep := s.cfg.MaxStep
	if maxStep <= 0 {
		maxStep = span / 20
	}
	minStep := s.cfg.MinStep

	rk := integrators.NewRK45()
	sol := &dynamics.Solution{
		Names:   sys.Schema().StateNames(),
		Metrics: make(map[string]float64),
	}

	x := p.Initial()
	t := t0
	s.record(sol, t, x, sys.Drift(x, t))

	steps := 0
	for t < t1 {
		select {
		case <-ctx.Done():
			s.finish(sol)
			return sol, ctx.Err()
		default:
		}

		if steps++; steps > s.cfg.MaxSteps {
			s.fail(sol, steps, t, dynamics.ErrMaxSteps, dynamics.StatusMaxSteps)
			return sol, nil
		}

		h := math.Min(dt, t1-t)
		next, deriv, ratio := rk.Attempt(sys, x, t, h, s.cfg.Tolerance)

		if !next.IsValid() {
			s.fail(sol, steps, t, dynamics.ErrNonFinite, dynamics.StatusNonFinite)
			return sol, nil
		}
		if ratio > 1 {
			if h <= minStep {
				s.fail(sol, steps, t, dynamics.ErrStepTooSmall, dynamics.StatusStepTooSmall)
				return sol, nil
			}
			dt = math.Max(rk.NextStep(h, ratio), minStep)
			continue
		}

		x = next
		t += h
		s.record(sol, t, x, deriv)
		dt = math.Min(math.Max(rk.NextStep(h, ratio), minStep), maxStep)
	}

	s.finish(sol)
	return sol, nil
}

func (s *Solver) runStochastic(ctx context.Context, p *Problem) (*dynamics.Solution, error) {
	sys, ok := p.System().(dynamics.Stochastic)
	if !ok {
		return nil, fmt.Errorf("scenario: model %s has no diffusion; use the adaptive method", p.ModelID())
	}
	h := s.method.H
	if h <= 0 {
		return nil, fmt.Errorf("scenario: step size must be positive, got %g", h)
	}

	t0, t1 := p.Span()
	em := integrators.NewMaruyama(s.method.Seed)
	sol := &dynamics.Solution{
		Names:   sys.Schema().StateNames(),
		Metrics: make(map[string]float64),
	}

	x := p.Initial()
	t := t0
	s.record(sol, t, x, nil)

	steps := 0
	// fixed steps, plus one clipped remainder step when the span is not
	// an exact multiple of h
	for t < t1 {
		select {
		case <-ctx.Done():
			s.finish(sol)
			return sol, ctx.Err()
		default:
		}

		if steps++; steps > s.cfg.MaxSteps {
			s.fail(sol, steps, t, dynamics.ErrMaxSteps, dynamics.StatusMaxSteps)
			return sol, nil
		}

		hs := h
		if t+h > t1 {
			hs = t1 - t
		}
		next := em.StepSDE(sys, x, t, hs)
		if !next.IsValid() {
			s.fail(sol, steps, t, dynamics.ErrNonFinite, dynamics.StatusNonFinite)
			return sol, nil
		}

		x = next
		t += hs
		s.record(sol, t, x, nil)
	}

	s.finish(sol)
	return sol, nil
}

func (s *Solver) record(sol *dynamics.Solution, t float64, x dynamics.State, deriv dynamics.State) {
	sol.Times = append(sol.Times, t)
	sol.States = append(sol.States, x.Clone())
	if deriv != nil {
		sol.Derivs = append(sol.Derivs, deriv.Clone())
	}
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, o := range s.observers {
		o.OnStep(x, t)
	}
}

func (s *Solver) fail(sol *dynamics.Solution, step int, t float64, cause error, status dynamics.Status) {
	sol.Status = status
	sol.Fault = &dynamics.SolveError{Step: step, Time: t, Wrapped: cause}
	s.finish(sol)
}

func (s *Solver) finish(sol *dynamics.Solution) {
	for _, m := range s.metrics {
		sol.Metrics[m.Name()] = m.Value()
	}
}
