package scenario

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/metrics"
	"github.com/overstory/standsim/internal/units"
)

func buildCohort(t *testing.T, years float64) *Problem {
	t.Helper()
	p, err := NewRegistry().Build("cohort", 0, years*units.Year, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func buildTree(t *testing.T, years float64, params map[string]Value) *Problem {
	t.Helper()
	p, err := NewRegistry().Build("tree", 0, years*units.Year, nil, params)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return p
}

func TestSolver_AdaptiveCohort(t *testing.T) {
	p := buildCohort(t, 200)
	sol, err := NewSolver(Method{Kind: MethodAdaptive}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sol.Status != dynamics.StatusOK {
		t.Fatalf("Status = %v, Fault = %v", sol.Status, sol.Fault)
	}

	if sol.Times[0] != 0 {
		t.Errorf("first sample at t=%v, want 0", sol.Times[0])
	}
	last := sol.Times[sol.Len()-1]
	if math.Abs(last-200*units.Year) > 1e-6*units.Year {
		t.Errorf("last sample at t=%v, want 200 yr", last)
	}
	for i := 1; i < sol.Len(); i++ {
		if sol.Times[i] <= sol.Times[i-1] {
			t.Fatalf("times not strictly increasing at %d", i)
		}
	}

	// biomass stays positive the whole run and below the site capacity
	bs, err := sol.Series("B")
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	for i, b := range bs {
		if b <= 0 || b > 500*units.MgPerHa {
			t.Fatalf("B[%d] = %v kg/m^2 out of range", i, b)
		}
	}
	// dead wood accumulates from zero
	dw, _ := sol.Series("D_wood")
	if dw[len(dw)-1] <= 0 {
		t.Error("D_wood should accumulate over 200 years")
	}
}

func TestSolver_SampleBetweenAcceptedPoints(t *testing.T) {
	p := buildCohort(t, 100)
	sol, err := NewSolver(Method{Kind: MethodAdaptive}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// pick a query strictly inside the first long interval
	mid := (sol.Times[1] + sol.Times[2]) / 2
	vals, err := sol.Sample(mid)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	lo, hi := sol.States[1][0], sol.States[2][0]
	if min, max := math.Min(lo, hi), math.Max(lo, hi); vals["B"] < min-1e-6 || vals["B"] > max+1e-6 {
		t.Errorf("interpolated B = %v outside [%v, %v]", vals["B"], min, max)
	}

	if _, err := sol.Sample(101 * units.Year); err == nil {
		t.Error("Sample past the span should fail")
	}
}

func TestSolver_StochasticTree(t *testing.T) {
	p := buildTree(t, 50, nil)
	m := Method{Kind: MethodStochastic, H: 0.1 * units.Year, Seed: 42}

	sol, err := NewSolver(m).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sol.Status != dynamics.StatusOK {
		t.Fatalf("Status = %v, Fault = %v", sol.Status, sol.Fault)
	}
	// 500 fixed steps plus the initial sample, with at most one clipped
	// remainder step from float accumulation
	if sol.Len() < 501 || sol.Len() > 502 {
		t.Errorf("Len = %d, want 501 or 502 samples", sol.Len())
	}
	if last := sol.Times[sol.Len()-1]; math.Abs(last-50*units.Year) > 1e-3 {
		t.Errorf("last sample at t=%v, want 50 yr", last)
	}

	again, err := NewSolver(m).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := range sol.States {
		for k := range sol.States[i] {
			if sol.States[i][k] != again.States[i][k] {
				t.Fatalf("same seed diverged at sample %d", i)
			}
		}
	}

	other, _ := NewSolver(Method{Kind: MethodStochastic, H: 0.1 * units.Year, Seed: 7}).Run(context.Background(), p)
	if terminalOf(t, sol, "Dsq") == terminalOf(t, other, "Dsq") {
		t.Error("different seeds produced identical trajectories")
	}
}

func terminalOf(t *testing.T, sol *dynamics.Solution, name string) float64 {
	t.Helper()
	v, err := sol.Terminal(name)
	if err != nil {
		t.Fatalf("Terminal(%s): %v", name, err)
	}
	return v
}

func TestSolver_StochasticRequiresDiffusion(t *testing.T) {
	p := buildCohort(t, 10)
	_, err := NewSolver(Method{Kind: MethodStochastic, H: 0.1 * units.Year, Seed: 1}).Run(context.Background(), p)
	if err == nil {
		t.Error("stochastic method on a drift-only model should fail")
	}
}

func TestSolver_StochasticRequiresStep(t *testing.T) {
	p := buildTree(t, 10, nil)
	_, err := NewSolver(Method{Kind: MethodStochastic, Seed: 1}).Run(context.Background(), p)
	if err == nil {
		t.Error("stochastic method without a step size should fail")
	}
}

func TestSolver_NumericalFaultOnSolution(t *testing.T) {
	// CCF = 0 makes log(CCF) diverge inside the increment model
	p := buildTree(t, 10, map[string]Value{"CCF": {V: 0, Unit: "1"}})
	sol, err := NewSolver(Method{Kind: MethodStochastic, H: 0.1 * units.Year, Seed: 1}).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("numerical fault should not be a Go error, got %v", err)
	}
	if sol.Status != dynamics.StatusNonFinite {
		t.Fatalf("Status = %v, want non-finite", sol.Status)
	}
	if !errors.Is(sol.Fault, dynamics.ErrNonFinite) {
		t.Errorf("Fault = %v, want wrapped ErrNonFinite", sol.Fault)
	}
	// everything recorded stays valid
	for i, x := range sol.States {
		if !x.IsValid() {
			t.Fatalf("recorded state %d is not finite", i)
		}
	}
}

func TestSolver_MaxStepsFault(t *testing.T) {
	p := buildTree(t, 100, nil)
	s := NewSolver(Method{Kind: MethodStochastic, H: 0.01 * units.Year, Seed: 1})
	cfg := dynamics.DefaultConfig()
	cfg.MaxSteps = 50
	s.SetConfig(cfg)

	sol, err := s.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sol.Status != dynamics.StatusMaxSteps {
		t.Errorf("Status = %v, want max-steps", sol.Status)
	}
}

func TestSolver_MetricsCollected(t *testing.T) {
	p := buildCohort(t, 100)
	s := NewSolver(Method{Kind: MethodAdaptive})
	s.AddMetric(metrics.NewTerminal("B_final", 0))
	s.AddMetric(metrics.NewPeak("B_peak", 0))
	s.AddMetric(metrics.NewPositivity(0))

	sol, err := s.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := sol.Metrics["B_final"]; got != terminalOf(t, sol, "B") {
		t.Errorf("B_final metric = %v, want terminal sample", got)
	}
	if sol.Metrics["B_peak"] < sol.Metrics["B_final"] {
		t.Error("peak below terminal value")
	}
	if sol.Metrics["positivity"] != 1.0 {
		t.Errorf("positivity = %v, want 1", sol.Metrics["positivity"])
	}
}

func TestSolver_ContextCancellation(t *testing.T) {
	p := buildCohort(t, 200)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sol, err := NewSolver(Method{Kind: MethodAdaptive}).Run(ctx, p)
	if err == nil {
		t.Fatal("cancelled run should return the context error")
	}
	if sol == nil || sol.Len() == 0 {
		t.Error("cancelled run should keep the partial trajectory")
	}
}
