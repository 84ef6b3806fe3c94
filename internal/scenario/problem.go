package scenario

import (
	"fmt"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/units"
)

// Value is an override together with its unit tag. The tag must match
// the unit declared for the symbol in the model schema.
type Value struct {
	V    float64
	Unit string
}

// Problem is one runnable configuration: a model instance with resolved
// parameters, a concrete initial state, and a time span in SI seconds.
// Immutable once built; Derive produces an independent copy.
type Problem struct {
	reg     *Registry
	modelID string
	t0, t1  float64
	initial map[string]Value
	params  map[string]Value

	sys dynamics.System
	x0  dynamics.State
}

// Build constructs a Problem from model defaults plus overrides.
// Unknown symbols, missing or mismatched unit tags, and t1 <= t0 are
// configuration errors rejected here, never coerced.
func (r *Registry) Build(modelID string, t0, t1 float64, initial, params map[string]Value) (*Problem, error) {
	if t1 <= t0 {
		return nil, fmt.Errorf("%w: [%g, %g]", dynamics.ErrBadTimeSpan, t0, t1)
	}

	sys, err := r.New(modelID)
	if err != nil {
		return nil, err
	}
	schema := sys.Schema()
	cfg, ok := sys.(dynamics.Configurable)
	if !ok {
		return nil, fmt.Errorf("model %s does not accept overrides", modelID)
	}

	for name, v := range params {
		f, ok := schema.ParamField(name)
		if !ok {
			return nil, fmt.Errorf("%w: parameter %q in model %s", dynamics.ErrUnknownSymbol, name, modelID)
		}
		si, err := resolve(name, v, f)
		if err != nil {
			return nil, err
		}
		if err := cfg.SetParam(name, si); err != nil {
			return nil, err
		}
	}

	// schema defaults reflect the parameterized instance
	schema = sys.Schema()
	x0 := schema.DefaultState()
	for name, v := range initial {
		i := schema.StateIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: initial condition %q in model %s", dynamics.ErrUnknownSymbol, name, modelID)
		}
		si, err := resolve(name, v, schema.States[i])
		if err != nil {
			return nil, err
		}
		x0[i] = si
	}

	return &Problem{
		reg:     r,
		modelID: modelID,
		t0:      t0,
		t1:      t1,
		initial: cloneValues(initial),
		params:  cloneValues(params),
		sys:     sys,
		x0:      x0,
	}, nil
}

func resolve(name string, v Value, f dynamics.Field) (float64, error) {
	if v.Unit == "" {
		return 0, fmt.Errorf("%w: override %q", dynamics.ErrMissingUnit, name)
	}
	if v.Unit != f.Unit {
		return 0, fmt.Errorf("%w: %q given in %q, declared %q", dynamics.ErrUnitMismatch, name, v.Unit, f.Unit)
	}
	return units.ToSI(v.V, v.Unit)
}

// Derive builds an independent Problem with the named entries replaced.
// The receiver is never mutated; the derived problem shares nothing
// mutable with it.
func (p *Problem) Derive(initial, params map[string]Value) (*Problem, error) {
	mergedInit := cloneValues(p.initial)
	for k, v := range initial {
		mergedInit[k] = v
	}
	mergedParams := cloneValues(p.params)
	for k, v := range params {
		mergedParams[k] = v
	}
	return p.reg.Build(p.modelID, p.t0, p.t1, mergedInit, mergedParams)
}

func (p *Problem) ModelID() string { return p.modelID }

func (p *Problem) Span() (t0, t1 float64) { return p.t0, p.t1 }

func (p *Problem) System() dynamics.System { return p.sys }

// Initial returns a copy of the resolved SI initial state.
func (p *Problem) Initial() dynamics.State { return p.x0.Clone() }

func cloneValues(m map[string]Value) map[string]Value {
	c := make(map[string]Value, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
