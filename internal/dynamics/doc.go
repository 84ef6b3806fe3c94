// Package dynamics provides the core primitives for simulating forest
// growth models as dynamical systems.
//
// The package defines the contract every growth model satisfies:
//
//   - [State]: SI state vector
//   - [Schema]: explicit ordered declaration of states, parameters, and
//     derived algebraic quantities, each with a unit tag
//   - [System]: dX/dt = f(X, t) plus the ordered algebraic chain
//   - [Stochastic]: adds a per-state diffusion amplitude for SDE models
//   - [Solution]: sampled trajectory with a continuous query interface
//
// Errors fall into two classes: configuration errors (unknown symbol,
// unit mismatch, invalid time span) are detected when a problem is
// built and fail fast; numerical faults (non-finite state, step
// underflow) are reported on the Solution with the last valid state.
//
// Systems and solutions carry no shared mutable state, so independent
// runs may execute concurrently without coordination.
package dynamics
