// Package scenario builds runnable problems from model defaults plus
// unit-checked overrides, and solves them.
//
// A [Problem] is immutable: deriving a variant produces a new,
// independent value, which makes parameter sweeps and stochastic
// ensembles cheap to spin up from one base configuration without
// re-declaring anything.
package scenario
