package forest

import (
	"fmt"
	"math"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/units"
)

// Cohort is the single-cohort aboveground biomass model: living biomass
// B and dead woody biomass D_wood, driven by a peaked growth function
// and logistic plus age-dependent mortality. All fields are SI.
type Cohort struct {
	ANPPMax  float64 // max aboveground productivity, kg/m^2/s
	MaxAge   float64 // species longevity, s
	R        float64 // mortality shape
	Y0       float64 // mortality intercept fraction
	D        float64 // age-mortality exponent
	K        float64 // dead wood decomposition rate, 1/s
	BMaxSite float64 // site biomass capacity, kg/m^2
	BOther   float64 // biomass held by competing cohorts, kg/m^2
	AgeInit  float64 // cohort age at t=0, s

	B0     float64 // initial living biomass, kg/m^2
	DWood0 float64 // initial dead wood, kg/m^2
}

// NewCohort returns the reference parameterization (7.45 Mg/ha/yr
// productivity, 400-year longevity, 500 Mg/ha site cap).
func NewCohort() *Cohort {
	return &Cohort{
		ANPPMax:  7.45 * units.MgPerHaPerYear,
		MaxAge:   400 * units.Year,
		R:        0.08,
		Y0:       0.01,
		D:        10.0,
		K:        0.03 * units.PerYear,
		BMaxSite: 500 * units.MgPerHa,
		BOther:   0,
		AgeInit:  10 * units.Year,
		B0:       5 * units.MgPerHa,
		DWood0:   0,
	}
}

func (c *Cohort) Schema() dynamics.Schema {
	return dynamics.Schema{
		States: []dynamics.Field{
			{Name: "B", Unit: "Mg/ha", Default: c.B0},
			{Name: "D_wood", Unit: "Mg/ha", Default: c.DWood0},
		},
		Params: []dynamics.Field{
			{Name: "ANPP_MAX", Unit: "Mg/ha/yr", Default: c.ANPPMax},
			{Name: "max_age", Unit: "yr", Default: c.MaxAge},
			{Name: "r", Unit: "1", Default: c.R},
			{Name: "y0", Unit: "1", Default: c.Y0},
			{Name: "d", Unit: "1", Default: c.D},
			{Name: "k", Unit: "1/yr", Default: c.K},
			{Name: "B_MAX_site", Unit: "Mg/ha", Default: c.BMaxSite},
			{Name: "B_other", Unit: "Mg/ha", Default: c.BOther},
			{Name: "age_init", Unit: "yr", Default: c.AgeInit},
		},
		Derived: []string{
			"cohort_age", "B_MAX", "B_POT", "B_AP", "B_PM",
			"ANPP_ACT", "M_BIO", "M_AGE", "M_total",
		},
	}
}

// cohortTerms is the algebraic chain, evaluated in declared order. The
// clamps are model policy, not error handling: B_POT is floored at the
// cohort's own biomass before anything else can shrink it.
type cohortTerms struct {
	age, bMax, bPot, bAP, bPM float64
	anppAct, mBio, mAge, mTot float64
}

func (c *Cohort) eval(x dynamics.State, t float64) cohortTerms {
	b := x[0]

	var v cohortTerms
	v.age = c.AgeInit + t
	v.bMax = c.ANPPMax * 30 * units.Year
	v.bPot = math.Max(b, math.Min(v.bMax, c.BMaxSite-c.BOther))
	v.bAP = b / v.bPot
	v.bPM = v.bPot / v.bMax
	v.anppAct = c.ANPPMax * math.E * v.bAP * math.Exp(-v.bAP) * v.bPM
	// exponent is r/y0, not r
	v.mBio = c.ANPPMax * (c.Y0 / (c.Y0 + (1-c.Y0)*math.Exp(-(c.R/c.Y0)*v.bAP))) * v.bPM
	// normalized so the annual fraction hits 1 exactly at max_age
	v.mAge = (b / units.Year) * math.Exp((v.age/c.MaxAge)*c.D) / math.Exp(c.D)
	v.mTot = v.mBio + v.mAge
	return v
}

func (c *Cohort) Derived(x dynamics.State, t float64) map[string]float64 {
	v := c.eval(x, t)
	return map[string]float64{
		"cohort_age": v.age,
		"B_MAX":      v.bMax,
		"B_POT":      v.bPot,
		"B_AP":       v.bAP,
		"B_PM":       v.bPM,
		"ANPP_ACT":   v.anppAct,
		"M_BIO":      v.mBio,
		"M_AGE":      v.mAge,
		"M_total":    v.mTot,
	}
}

func (c *Cohort) Drift(x dynamics.State, t float64) dynamics.State {
	v := c.eval(x, t)
	return dynamics.State{
		v.anppAct - v.mTot,
		v.mTot - c.K*x[1],
	}
}

func (c *Cohort) GetParams() map[string]float64 {
	return map[string]float64{
		"ANPP_MAX":   c.ANPPMax,
		"max_age":    c.MaxAge,
		"r":          c.R,
		"y0":         c.Y0,
		"d":          c.D,
		"k":          c.K,
		"B_MAX_site": c.BMaxSite,
		"B_other":    c.BOther,
		"age_init":   c.AgeInit,
	}
}

func (c *Cohort) SetParam(name string, value float64) error {
	switch name {
	case "ANPP_MAX":
		c.ANPPMax = value
	case "max_age":
		c.MaxAge = value
	case "r":
		c.R = value
	case "y0":
		c.Y0 = value
	case "d":
		c.D = value
	case "k":
		c.K = value
	case "B_MAX_site":
		c.BMaxSite = value
	case "B_other":
		c.BOther = value
	case "age_init":
		c.AgeInit = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
