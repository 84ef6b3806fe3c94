// Package units converts between the customary forestry units used in the
// literature (inches, feet, acres, years, Mg/ha) and the SI-consistent
// internal unit system (meters, seconds, kg/m^2). All model arithmetic is
// done in SI; conversions happen only at input/output boundaries.
package units

import "fmt"

// SI factors for the base quantities.
const (
	Inch        = 0.0254
	Foot        = 0.3048
	HundredFeet = 30.48
	Acre        = 4046.8564224
	Hectare     = 1e4
	Year        = 3.15576e7 // Julian year in seconds

	SquareInch        = Inch * Inch
	MgPerHa           = 1000.0 / Hectare // Mg/ha in kg/m^2
	MgPerHaPerYear    = MgPerHa / Year
	PerYear           = 1.0 / Year
	PerAcre           = 1.0 / Acre
	SquareInchPerYear = SquareInch / Year
	FootPerYear       = Foot / Year
)

// table maps unit tags to their SI-equivalent scalar. Fixed at init,
// never mutated.
var table = map[string]float64{
	"1":        1,
	"m":        1,
	"in":       Inch,
	"ft":       Foot,
	"100ft":    HundredFeet,
	"m^2":      1,
	"in^2":     SquareInch,
	"acre":     Acre,
	"ha":       Hectare,
	"s":        1,
	"yr":       Year,
	"kg/m^2":   1,
	"Mg/ha":    MgPerHa,
	"kg/m^2/s": 1,
	"Mg/ha/yr": MgPerHaPerYear,
	"1/s":      1,
	"1/yr":     PerYear,
	"/m^2":     1,
	"/acre":    PerAcre,
	"in^2/yr":  SquareInchPerYear,
	"ft/yr":    FootPerYear,
	"m/s":      1,
}

// Known reports whether the unit tag exists in the conversion table.
func Known(unit string) bool {
	_, ok := table[unit]
	return ok
}

// ToSI converts a value expressed in the named unit to SI.
func ToSI(v float64, unit string) (float64, error) {
	f, ok := table[unit]
	if !ok {
		return 0, fmt.Errorf("units: unknown unit %q", unit)
	}
	return v * f, nil
}

// FromSI converts an SI value to the named unit.
func FromSI(v float64, unit string) (float64, error) {
	f, ok := table[unit]
	if !ok {
		return 0, fmt.Errorf("units: unknown unit %q", unit)
	}
	return v / f, nil
}
