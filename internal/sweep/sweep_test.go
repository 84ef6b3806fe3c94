package sweep

import (
	"context"
	"testing"

	"github.com/overstory/standsim/internal/scenario"
	"github.com/overstory/standsim/internal/units"
)

func treeProblem(t *testing.T) *scenario.Problem {
	t.Helper()
	// noise off so the parameter effect is all that differs per point
	p, err := scenario.NewRegistry().Build("tree", 0, 30*units.Year, nil,
		map[string]scenario.Value{"sigma_growth": {V: 0, Unit: "1"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func fixedMethod() scenario.Method {
	return scenario.Method{Kind: scenario.MethodStochastic, H: 0.1 * units.Year, Seed: 42}
}

func TestSweep_SiteIndexRaisesDiameter(t *testing.T) {
	s := &Sweep{Param: "SI", Unit: "ft", Values: []float64{60, 80, 100}}
	points, err := s.Run(context.Background(), treeProblem(t), fixedMethod(), "Dsq")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Output <= points[i-1].Output {
			t.Errorf("terminal Dsq not increasing with SI: %v -> %v",
				points[i-1].Output, points[i].Output)
		}
	}
}

func TestSweep_CompetitionLowersDiameter(t *testing.T) {
	s := &Sweep{Param: "CCF", Unit: "1", Values: []float64{60, 100, 150}}
	points, err := s.Run(context.Background(), treeProblem(t), fixedMethod(), "Dsq")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Output >= points[i-1].Output {
			t.Errorf("terminal Dsq not decreasing with CCF: %v -> %v",
				points[i-1].Output, points[i].Output)
		}
	}
}

func TestSweep_CompetingBiomassLowersCohort(t *testing.T) {
	base, err := scenario.NewRegistry().Build("cohort", 0, 100*units.Year, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// past B_MAX_site - B_MAX = 276.5 Mg/ha the competition term is what
	// limits the cohort, so more neighbors means less terminal biomass
	s := &Sweep{Param: "B_other", Unit: "Mg/ha", Values: []float64{300, 400, 450}}
	points, err := s.Run(context.Background(), base, scenario.Method{Kind: scenario.MethodAdaptive}, "B")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Output >= points[i-1].Output {
			t.Errorf("terminal B not decreasing with B_other: %v -> %v",
				points[i-1].Output, points[i].Output)
		}
	}
}

func TestSweep_BadParam(t *testing.T) {
	s := &Sweep{Param: "nope", Unit: "1", Values: []float64{1}}
	if _, err := s.Run(context.Background(), treeProblem(t), fixedMethod(), "Dsq"); err == nil {
		t.Error("sweep over an unknown parameter should fail")
	}
	s = &Sweep{Param: "SI", Unit: "m", Values: []float64{20}}
	if _, err := s.Run(context.Background(), treeProblem(t), fixedMethod(), "Dsq"); err == nil {
		t.Error("sweep with a mismatched unit should fail")
	}
}
