package forest

import (
	"fmt"
	"math"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/units"
)

// Tree is the individual-tree growth model: squared diameter (the only
// stochastic state), total height, height to crown base, and stems per
// unit area. Basal-area increment is linear in diameter-squared space,
// which is why Dsq rather than DBH is the state. All fields are SI.
type Tree struct {
	SiteIndex float64 // site index, m
	Elevation float64 // elevation, m
	CCF       float64 // crown competition factor
	PCT       float64 // percentile in the diameter distribution, 0-100
	RMSQD     float64 // root mean square stand diameter, m
	BKR       float64 // bark ratio multiplier
	MeanDBH   float64 // mean stand diameter, m

	// log-linear diameter growth coefficients
	B0, BSI, BEL, BCCF, BCR, BDBH, BPCT float64

	// height growth coefficients (calibrated surrogate; the published
	// source for the original regression is unavailable)
	C1, C2, C3, C4 float64

	// background mortality quadratic, minimum near 10.6 in mean DBH
	MortA0, MortA1, MortA2 float64

	// Sigma is the annual standard deviation of log basal-area
	// increment. The diffusion term rescales it by sqrt(seconds per
	// year) so 0.3 means 0.3 per year regardless of the SI time unit.
	Sigma float64

	CRMin float64 // crown ratio floor, keeps log(CR) finite
	DGMin float64 // diameter increment floor, in/yr

	Dsq0 float64 // initial squared diameter, m^2
	HT0  float64 // initial height, m
	HCB0 float64 // initial height to crown base, m
	N0   float64 // initial stems per m^2
}

// NewTree returns the reference parameterization: a 6-inch, 60-foot
// tree at the 50th percentile of a CCF 100 stand.
func NewTree() *Tree {
	return &Tree{
		SiteIndex: 80 * units.Foot,
		Elevation: 43 * units.HundredFeet,
		CCF:       100,
		PCT:       50,
		RMSQD:     7 * units.Inch,
		BKR:       1,
		MeanDBH:   7 * units.Inch,

		B0:   -1.66955,
		BSI:  0.4143,
		BEL:  -0.004388,
		BCCF: -0.3781,
		BCR:  0.4879,
		BDBH: 0.9948,
		BPCT: 0.006141,

		C1: 0,
		C2: 0.5,
		C3: -0.1,
		C4: 0.2,

		MortA0: 0.00925,
		MortA1: -8.48e-4,
		MortA2: 4.0e-5,

		Sigma: 0.3,
		CRMin: 0.05,
		DGMin: 0.001,

		Dsq0: 36 * units.SquareInch,
		HT0:  60 * units.Foot,
		HCB0: 40 * units.Foot,
		N0:   500 * units.PerAcre,
	}
}

func (tr *Tree) Schema() dynamics.Schema {
	return dynamics.Schema{
		States: []dynamics.Field{
			{Name: "Dsq", Unit: "in^2", Default: tr.Dsq0},
			{Name: "HT", Unit: "ft", Default: tr.HT0},
			{Name: "HCB", Unit: "ft", Default: tr.HCB0},
			{Name: "N_trees", Unit: "/acre", Default: tr.N0},
		},
		Params: []dynamics.Field{
			{Name: "SI", Unit: "ft", Default: tr.SiteIndex},
			{Name: "EL", Unit: "100ft", Default: tr.Elevation},
			{Name: "CCF", Unit: "1", Default: tr.CCF},
			{Name: "PCT", Unit: "1", Default: tr.PCT},
			{Name: "RMSQD", Unit: "in", Default: tr.RMSQD},
			{Name: "BKR", Unit: "1", Default: tr.BKR},
			{Name: "mean_DBH", Unit: "in", Default: tr.MeanDBH},
			{Name: "b0", Unit: "1", Default: tr.B0},
			{Name: "b_SI", Unit: "1", Default: tr.BSI},
			{Name: "b_EL", Unit: "1", Default: tr.BEL},
			{Name: "b_CCF", Unit: "1", Default: tr.BCCF},
			{Name: "b_CR", Unit: "1", Default: tr.BCR},
			{Name: "b_DBH", Unit: "1", Default: tr.BDBH},
			{Name: "b_PCT", Unit: "1", Default: tr.BPCT},
			{Name: "c1_ht", Unit: "1", Default: tr.C1},
			{Name: "c2_ht", Unit: "1", Default: tr.C2},
			{Name: "c3_ht", Unit: "1", Default: tr.C3},
			{Name: "c4_ht", Unit: "1", Default: tr.C4},
			{Name: "mort_a0", Unit: "1", Default: tr.MortA0},
			{Name: "mort_a1", Unit: "1", Default: tr.MortA1},
			{Name: "mort_a2", Unit: "1", Default: tr.MortA2},
			{Name: "sigma_growth", Unit: "1", Default: tr.Sigma},
			{Name: "CR_min", Unit: "1", Default: tr.CRMin},
			{Name: "DG_min", Unit: "1", Default: tr.DGMin},
		},
		Derived: []string{
			"DBH", "CR", "mean_DBH_in", "DDS_rate", "DG",
			"HTGF_rate", "crown_recession_rate", "mortality_rate",
		},
	}
}

type treeTerms struct {
	dbh, cr, meanIn float64
	dds, dg         float64
	htgf, recession float64
	mortality       float64
}

func (tr *Tree) eval(x dynamics.State, t float64) treeTerms {
	dsq, ht, hcb := x[0], x[1], x[2]

	var v treeTerms
	v.dbh = math.Sqrt(dsq)
	v.cr = math.Max(tr.CRMin, (ht-hcb)/ht)
	v.meanIn = tr.MeanDBH / units.Inch

	// log-linear basal-area increment on non-dimensional predictors
	v.dds = tr.BKR * units.SquareInchPerYear * math.Exp(
		tr.B0+
			tr.BSI*math.Log(tr.SiteIndex/units.Foot)+
			tr.BEL*(tr.Elevation/units.HundredFeet)+
			tr.BCCF*math.Log(tr.CCF)+
			tr.BCR*math.Log(v.cr)+
			tr.BDBH*math.Log(v.dbh/units.Inch)+
			tr.BPCT*tr.PCT)

	// exact annual diameter increment from the basal-area increment,
	// in inches per year, floored positive
	dbhIn := v.dbh / units.Inch
	v.dg = math.Max(tr.DGMin,
		math.Sqrt(dbhIn*dbhIn+v.dds*units.Year/units.SquareInch)-dbhIn)

	v.htgf = units.FootPerYear * math.Exp(
		tr.C1+
			tr.C2*math.Log(v.dg+0.05)+
			tr.C3*math.Log(dbhIn)+
			tr.C4*math.Log(ht/units.Foot))

	// dense stands recede faster; CCF exactly at the threshold takes
	// the high branch
	if tr.CCF >= 125 {
		v.recession = v.htgf * 0.61
	} else {
		v.recession = v.htgf * 0.2
	}

	base := tr.MortA0 + tr.MortA1*v.meanIn + tr.MortA2*v.meanIn*v.meanIn
	pctFactor := 0.25 + 1.5*(1-tr.PCT/100)
	v.mortality = math.Max(0, (1/units.Year)*base*pctFactor)

	return v
}

func (tr *Tree) Derived(x dynamics.State, t float64) map[string]float64 {
	v := tr.eval(x, t)
	return map[string]float64{
		"DBH":                  v.dbh,
		"CR":                   v.cr,
		"mean_DBH_in":          v.meanIn,
		"DDS_rate":             v.dds,
		"DG":                   v.dg,
		"HTGF_rate":            v.htgf,
		"crown_recession_rate": v.recession,
		"mortality_rate":       v.mortality,
	}
}

func (tr *Tree) Drift(x dynamics.State, t float64) dynamics.State {
	v := tr.eval(x, t)
	return dynamics.State{
		v.dds,
		v.htgf,
		v.recession,
		-v.mortality * x[3],
	}
}

// Diffusion carries a multiplicative noise term on Dsq only; height,
// crown base, and stem count follow the drift deterministically.
func (tr *Tree) Diffusion(x dynamics.State, t float64) dynamics.State {
	v := tr.eval(x, t)
	return dynamics.State{
		tr.Sigma * math.Sqrt(units.Year) * math.Abs(v.dds),
		0,
		0,
		0,
	}
}

func (tr *Tree) GetParams() map[string]float64 {
	return map[string]float64{
		"SI":           tr.SiteIndex,
		"EL":           tr.Elevation,
		"CCF":          tr.CCF,
		"PCT":          tr.PCT,
		"RMSQD":        tr.RMSQD,
		"BKR":          tr.BKR,
		"mean_DBH":     tr.MeanDBH,
		"b0":           tr.B0,
		"b_SI":         tr.BSI,
		"b_EL":         tr.BEL,
		"b_CCF":        tr.BCCF,
		"b_CR":         tr.BCR,
		"b_DBH":        tr.BDBH,
		"b_PCT":        tr.BPCT,
		"c1_ht":        tr.C1,
		"c2_ht":        tr.C2,
		"c3_ht":        tr.C3,
		"c4_ht":        tr.C4,
		"mort_a0":      tr.MortA0,
		"mort_a1":      tr.MortA1,
		"mort_a2":      tr.MortA2,
		"sigma_growth": tr.Sigma,
		"CR_min":       tr.CRMin,
		"DG_min":       tr.DGMin,
	}
}

func (tr *Tree) SetParam(name string, value float64) error {
	switch name {
	case "SI":
		tr.SiteIndex = value
	case "EL":
		tr.Elevation = value
	case "CCF":
		tr.CCF = value
	case "PCT":
		tr.PCT = value
	case "RMSQD":
		tr.RMSQD = value
	case "BKR":
		tr.BKR = value
	case "mean_DBH":
		tr.MeanDBH = value
	case "b0":
		tr.B0 = value
	case "b_SI":
		tr.BSI = value
	case "b_EL":
		tr.BEL = value
	case "b_CCF":
		tr.BCCF = value
	case "b_CR":
		tr.BCR = value
	case "b_DBH":
		tr.BDBH = value
	case "b_PCT":
		tr.BPCT = value
	case "c1_ht":
		tr.C1 = value
	case "c2_ht":
		tr.C2 = value
	case "c3_ht":
		tr.C3 = value
	case "c4_ht":
		tr.C4 = value
	case "mort_a0":
		tr.MortA0 = value
	case "mort_a1":
		tr.MortA1 = value
	case "mort_a2":
		tr.MortA2 = value
	case "sigma_growth":
		tr.Sigma = value
	case "CR_min":
		tr.CRMin = value
	case "DG_min":
		tr.DGMin = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
