package metrics

import (
	"math"
	"testing"

	"github.com/overstory/standsim/internal/dynamics"
)

func observeAll(m dynamics.Metric, values []float64) {
	for i, v := range values {
		m.Observe(dynamics.State{v}, float64(i))
	}
}

func TestTerminal(t *testing.T) {
	m := NewTerminal("final", 0)
	if !math.IsNaN(m.Value()) {
		t.Error("unobserved Terminal should be NaN")
	}

	observeAll(m, []float64{1, 5, 3})
	if m.Value() != 3 {
		t.Errorf("Value = %v, want 3", m.Value())
	}
	if m.Name() != "final" {
		t.Errorf("Name = %q", m.Name())
	}

	m.Reset()
	if !math.IsNaN(m.Value()) {
		t.Error("Reset should clear the observation")
	}
}

func TestPeak(t *testing.T) {
	m := NewPeak("peak", 0)
	observeAll(m, []float64{1, 5, 3})
	if m.Value() != 5 {
		t.Errorf("Value = %v, want 5", m.Value())
	}

	m.Reset()
	observeAll(m, []float64{-3, -1, -2})
	if m.Value() != -1 {
		t.Errorf("Value = %v, want -1 for all-negative series", m.Value())
	}
}

func TestPeak_IndexOutOfRange(t *testing.T) {
	m := NewPeak("peak", 5)
	m.Observe(dynamics.State{1, 2}, 0)
	if !math.IsNaN(m.Value()) {
		t.Error("out-of-range component should stay unobserved")
	}
}

func TestPositivity(t *testing.T) {
	m := NewPositivity(0)
	if m.Value() != 1.0 {
		t.Error("no samples should report 1")
	}

	m.Observe(dynamics.State{1, 2}, 0)
	m.Observe(dynamics.State{1, -1}, 1)
	m.Observe(dynamics.State{3, 4}, 2)
	m.Observe(dynamics.State{0.5, 0.5}, 3)

	if got := m.Value(); got != 0.75 {
		t.Errorf("Value = %v, want 0.75", got)
	}

	m.Reset()
	m.Observe(dynamics.State{1}, 0)
	if m.Value() != 1.0 {
		t.Errorf("Value after reset = %v, want 1", m.Value())
	}
}
