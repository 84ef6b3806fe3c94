package dynamics

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i]
		if i < len(other) {
			result[i] += other[i]
		}
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i]
		if i < len(other) {
			result[i] -= other[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// Field describes one state variable or parameter of a model: its symbol
// name, the unit tag overrides for it must carry, and its SI default.
type Field struct {
	Name    string
	Unit    string
	Default float64
}

// Schema is a model's explicit state/parameter declaration. The Derived
// list names the algebraic quantities in their fixed evaluation order.
type Schema struct {
	States  []Field
	Params  []Field
	Derived []string
}

func (sc Schema) StateIndex(name string) int {
	for i, f := range sc.States {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (sc Schema) StateField(name string) (Field, bool) {
	i := sc.StateIndex(name)
	if i < 0 {
		return Field{}, false
	}
	return sc.States[i], true
}

func (sc Schema) ParamField(name string) (Field, bool) {
	for _, f := range sc.Params {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// DefaultState builds the initial state vector from the schema defaults.
func (sc Schema) DefaultState() State {
	x := make(State, len(sc.States))
	for i, f := range sc.States {
		x[i] = f.Default
	}
	return x
}

func (sc Schema) StateNames() []string {
	names := make([]string, len(sc.States))
	for i, f := range sc.States {
		names[i] = f.Name
	}
	return names
}

// System is the equation-model contract: a declared schema, a drift
// (derivative) function over SI state, and the ordered algebraic chain
// exposed as named derived quantities.
type System interface {
	Schema() Schema
	Drift(x State, t float64) State
	Derived(x State, t float64) map[string]float64
}

// Stochastic systems additionally carry a per-state diffusion amplitude.
// A zero entry means that state has no Brownian term.
type Stochastic interface {
	System
	Diffusion(x State, t float64) State
}

// Configurable models expose their parameters by symbol name, bound to
// the instance rather than any process-wide registry. Values are SI.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator attempts a step and reports the candidate state,
// the drift evaluated at the candidate, and the local error relative to
// the tolerance (ratio > 1 means the step should be rejected).
type AdaptiveIntegrator interface {
	Integrator
	Attempt(sys System, x State, t, dt, tol float64) (next State, deriv State, errRatio float64)
	NextStep(dt, errRatio float64) float64
}

// StochasticIntegrator advances a stochastic system one fixed step,
// consuming its own seeded noise source.
type StochasticIntegrator interface {
	StepSDE(sys Stochastic, x State, t, h float64) State
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

// Config controls the stepping loop. Zero InitStep and MaxStep mean
// span-proportional defaults chosen by the solver.
type Config struct {
	InitStep  float64
	MinStep   float64
	MaxStep   float64
	Tolerance float64
	MaxSteps  int
}

func DefaultConfig() Config {
	return Config{
		InitStep:  0,
		MinStep:   1e-3,
		MaxStep:   0,
		Tolerance: 1e-8,
		MaxSteps:  2_000_000,
	}
}
