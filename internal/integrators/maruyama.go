package integrators

import (
	"math"
	"math/rand"

	"github.com/overstory/standsim/internal/dynamics"
)

// Maruyama is a fixed-step Euler-Maruyama scheme for the stochastic
// models. All randomness comes from the explicit seed: re-running with
// the same seed and step size reproduces the trajectory bit for bit.
type Maruyama struct {
	rng *rand.Rand
}

func NewMaruyama(seed int64) *Maruyama {
	return &Maruyama{rng: rand.New(rand.NewSource(seed))}
}

// StepSDE advances state += drift*h + diffusion*sqrt(h)*Z, drawing one
// standard-normal increment per state component. Components with zero
// diffusion stay deterministic; the draws still happen in a fixed order
// so trajectories are reproducible regardless of which entries carry a
// Brownian term.
func (m *Maruyama) StepSDE(sys dynamics.Stochastic, x dynamics.State, t, h float64) dynamics.State {
	f := sys.Drift(x, t)
	g := sys.Diffusion(x, t)
	sq := math.Sqrt(h)

	next := make(dynamics.State, len(x))
	for i := range x {
		z := m.rng.NormFloat64()
		next[i] = x[i] + f[i]*h + g[i]*sq*z
	}
	return next
}

// Step treats the system as deterministic when it carries no diffusion,
// satisfying the plain Integrator interface.
func (m *Maruyama) Step(sys dynamics.System, x dynamics.State, t, dt float64) dynamics.State {
	if st, ok := sys.(dynamics.Stochastic); ok {
		return m.StepSDE(st, x, t, dt)
	}
	f := sys.Drift(x, t)
	next := make(dynamics.State, len(x))
	for i := range x {
		next[i] = x[i] + f[i]*dt
	}
	return next
}
