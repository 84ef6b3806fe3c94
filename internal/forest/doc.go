// Package forest provides the published stand-dynamics models.
//
// Each model implements the [dynamics.System] contract, declaring its
// state, parameters, and derived algebraic quantities with unit tags:
//
//   - [Cohort]: single-cohort biomass ODE (growth, logistic mortality,
//     age mortality, dead-wood decomposition)
//   - [Tree]: individual-tree SDE (stochastic diameter increment,
//     height growth, crown recession, stem mortality)
//   - [CrownBase]: static height-to-crown-base regression
//
// The algebraic chains are evaluated in a fixed order because the
// floors and caps are not commutative: potential biomass is floored at
// current biomass before the site cap applies, crown ratio is floored
// before its logarithm is taken. Those clamps are part of the models,
// not error handling.
package forest
