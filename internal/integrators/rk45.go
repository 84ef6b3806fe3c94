package integrators

import (
	"math"

	"github.com/overstory/standsim/internal/dynamics"
)

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1}

	dpA = [7][6]float64{
		{},
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	}

	// 5th-order weights minus the embedded 4th-order weights, for the
	// local error estimate.
	dpE = [7]float64{
		35.0/384.0 - 5179.0/57600.0,
		0,
		500.0/1113.0 - 7571.0/16695.0,
		125.0/192.0 - 393.0/640.0,
		-2187.0/6784.0 + 92097.0/339200.0,
		11.0/84.0 - 187.0/2100.0,
		-1.0 / 40.0,
	}
)

// RK45 is an adaptive Dormand-Prince solver for the deterministic
// models. The seventh stage equals the drift at the accepted point
// (FSAL), which the solver stores for Hermite dense output.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// Attempt computes one candidate step. errRatio > 1 means the local
// error exceeds tol and the step should be retried with a smaller dt.
func (r *RK45) Attempt(sys dynamics.System, x dynamics.State, t, dt, tol float64) (dynamics.State, dynamics.State, float64) {
	n := len(x)
	var k [7]dynamics.State

	k[0] = sys.Drift(x, t)
	stage := make(dynamics.State, n)
	for s := 1; s < 7; s++ {
		for i := 0; i < n; i++ {
			acc := x[i]
			for j := 0; j < s; j++ {
				if dpA[s][j] != 0 {
					acc += dt * dpA[s][j] * k[j][i]
				}
			}
			stage[i] = acc
		}
		k[s] = sys.Drift(stage, t+dpC[s]*dt)
	}

	// The stage-7 point is the 5th-order solution itself, so the final
	// loop iteration produced both the candidate state and its drift.
	next := make(dynamics.State, n)
	copy(next, stage)
	deriv := k[6]

	errMax := 0.0
	for i := 0; i < n; i++ {
		est := 0.0
		for s := 0; s < 7; s++ {
			if dpE[s] != 0 {
				est += dpE[s] * k[s][i]
			}
		}
		est *= dt
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-30
		errMax = math.Max(errMax, math.Abs(est)/scale)
	}

	return next, deriv, errMax / tol
}

// NextStep proposes the following step size from the last error ratio.
func (r *RK45) NextStep(dt, errRatio float64) float64 {
	if errRatio > 1 {
		return dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	}
	if errRatio > 0 {
		return dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	}
	return dt * r.maxScale
}

// Step advances one fixed step, ignoring the error estimate.
func (r *RK45) Step(sys dynamics.System, x dynamics.State, t, dt float64) dynamics.State {
	next, _, _ := r.Attempt(sys, x, t, dt, 1e-6)
	return next
}
