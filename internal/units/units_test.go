package units

import (
	"math"
	"testing"
)

func TestToSI(t *testing.T) {
	tests := []struct {
		value    float64
		unit     string
		expected float64
	}{
		{1.0, "in", 0.0254},
		{1.0, "ft", 0.3048},
		{43.0, "100ft", 1310.64},
		{1.0, "yr", 3.15576e7},
		{1.0, "Mg/ha", 0.1},
		{7.45, "Mg/ha/yr", 0.745 / 3.15576e7},
		{500.0, "/acre", 500.0 / 4046.8564224},
		{2.5, "1", 2.5},
	}

	for _, tt := range tests {
		got, err := ToSI(tt.value, tt.unit)
		if err != nil {
			t.Fatalf("ToSI(%v, %q) failed: %v", tt.value, tt.unit, err)
		}
		if math.Abs(got-tt.expected)/math.Abs(tt.expected) > 1e-12 {
			t.Errorf("ToSI(%v, %q) = %v, want %v", tt.value, tt.unit, got, tt.expected)
		}
	}
}

func TestFromSIRoundTrip(t *testing.T) {
	for _, unit := range []string{"in", "ft", "acre", "yr", "Mg/ha", "Mg/ha/yr", "1/yr", "/acre", "in^2/yr"} {
		si, err := ToSI(3.7, unit)
		if err != nil {
			t.Fatalf("ToSI failed for %q: %v", unit, err)
		}
		back, err := FromSI(si, unit)
		if err != nil {
			t.Fatalf("FromSI failed for %q: %v", unit, err)
		}
		if math.Abs(back-3.7) > 1e-12 {
			t.Errorf("round trip through %q: got %v, want 3.7", unit, back)
		}
	}
}

func TestUnknownUnit(t *testing.T) {
	if _, err := ToSI(1.0, "furlong"); err == nil {
		t.Error("expected error for unknown unit")
	}
	if _, err := FromSI(1.0, ""); err == nil {
		t.Error("expected error for empty unit")
	}
	if Known("furlong") {
		t.Error("Known returned true for unknown unit")
	}
	if !Known("Mg/ha") {
		t.Error("Known returned false for Mg/ha")
	}
}
