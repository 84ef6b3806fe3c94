package forest

import (
	"fmt"
	"math"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/units"
)

// CrownBase is the static height-to-crown-base regression: no state,
// one predicted output. HAB is a categorical habitat adjustment in feet
// supplied by the caller. All fields are SI.
type CrownBase struct {
	HT    float64 // total height, m
	DBH   float64 // diameter, m
	CCF   float64
	EL    float64 // elevation, m
	RMSQD float64 // root mean square stand diameter, m
	HAB   float64 // habitat adjustment, dimensionless (feet in the regression)
}

func NewCrownBase() *CrownBase {
	return &CrownBase{
		HT:    60 * units.Foot,
		DBH:   6 * units.Inch,
		CCF:   100,
		EL:    43 * units.HundredFeet,
		RMSQD: 7 * units.Inch,
		HAB:   0,
	}
}

// Estimate returns the predicted height to crown base in meters.
func (cb *CrownBase) Estimate() float64 {
	ft := -29.26 +
		0.61*(cb.HT/units.Foot) +
		9.178*math.Log(cb.CCF) -
		0.222*(cb.EL/units.HundredFeet) -
		5.80*(cb.DBH/cb.RMSQD) +
		cb.HAB
	return ft * units.Foot
}

func (cb *CrownBase) Schema() dynamics.Schema {
	return dynamics.Schema{
		Params: []dynamics.Field{
			{Name: "HT_input", Unit: "ft", Default: cb.HT},
			{Name: "DBH_input", Unit: "in", Default: cb.DBH},
			{Name: "CCF", Unit: "1", Default: cb.CCF},
			{Name: "EL", Unit: "100ft", Default: cb.EL},
			{Name: "RMSQD", Unit: "in", Default: cb.RMSQD},
			{Name: "HAB", Unit: "1", Default: cb.HAB},
		},
		Derived: []string{"HCB_pred"},
	}
}

func (cb *CrownBase) Derived(x dynamics.State, t float64) map[string]float64 {
	return map[string]float64{"HCB_pred": cb.Estimate()}
}

// Drift is empty: the estimator has no differential state.
func (cb *CrownBase) Drift(x dynamics.State, t float64) dynamics.State {
	return dynamics.State{}
}

func (cb *CrownBase) GetParams() map[string]float64 {
	return map[string]float64{
		"HT_input":  cb.HT,
		"DBH_input": cb.DBH,
		"CCF":       cb.CCF,
		"EL":        cb.EL,
		"RMSQD":     cb.RMSQD,
		"HAB":       cb.HAB,
	}
}

func (cb *CrownBase) SetParam(name string, value float64) error {
	switch name {
	case "HT_input":
		cb.HT = value
	case "DBH_input":
		cb.DBH = value
	case "CCF":
		cb.CCF = value
	case "EL":
		cb.EL = value
	case "RMSQD":
		cb.RMSQD = value
	case "HAB":
		cb.HAB = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
