// Package metrics provides per-run summary observations collected
// while a solve is stepping.
package metrics

import (
	"math"

	"github.com/overstory/standsim/internal/dynamics"
)

// Terminal records the last observed value of one state component.
type Terminal struct {
	name  string
	index int
	last  float64
	seen  bool
}

func NewTerminal(name string, index int) *Terminal {
	return &Terminal{name: name, index: index}
}

func (m *Terminal) Name() string { return m.name }

func (m *Terminal) Observe(x dynamics.State, t float64) {
	if m.index < len(x) {
		m.last = x[m.index]
		m.seen = true
	}
}

func (m *Terminal) Value() float64 {
	if !m.seen {
		return math.NaN()
	}
	return m.last
}

func (m *Terminal) Reset() {
	m.last = 0
	m.seen = false
}

// Peak records the maximum observed value of one state component.
type Peak struct {
	name  string
	index int
	max   float64
	seen  bool
}

func NewPeak(name string, index int) *Peak {
	return &Peak{name: name, index: index}
}

func (m *Peak) Name() string { return m.name }

func (m *Peak) Observe(x dynamics.State, t float64) {
	if m.index >= len(x) {
		return
	}
	if !m.seen || x[m.index] > m.max {
		m.max = x[m.index]
		m.seen = true
	}
}

func (m *Peak) Value() float64 {
	if !m.seen {
		return math.NaN()
	}
	return m.max
}

func (m *Peak) Reset() {
	m.max = 0
	m.seen = false
}

// Positivity reports the fraction of observations in which every state
// component stayed above the floor. The biomass and stem-count
// invariants make 1.0 the expected value for a healthy run.
type Positivity struct {
	name       string
	floor      float64
	violations int
	samples    int
}

func NewPositivity(floor float64) *Positivity {
	return &Positivity{name: "positivity", floor: floor}
}

func (m *Positivity) Name() string { return m.name }

func (m *Positivity) Observe(x dynamics.State, t float64) {
	m.samples++
	for _, v := range x {
		if v < m.floor {
			m.violations++
			break
		}
	}
}

func (m *Positivity) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(m.violations)/float64(m.samples)
}

func (m *Positivity) Reset() {
	m.violations = 0
	m.samples = 0
}
