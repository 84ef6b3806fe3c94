package scenario

import (
	"fmt"
	"sort"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/forest"
)

// Registry maps model IDs to factories. Every Build call gets a fresh
// instance, so problems never share model state.
type Registry struct {
	models map[string]func() dynamics.System
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]func() dynamics.System)}

	r.models["cohort"] = func() dynamics.System { return forest.NewCohort() }
	r.models["tree"] = func() dynamics.System { return forest.NewTree() }
	r.models["crownbase"] = func() dynamics.System { return forest.NewCrownBase() }

	return r
}

func (r *Registry) New(id string) (dynamics.System, error) {
	fn, ok := r.models[id]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", id)
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
