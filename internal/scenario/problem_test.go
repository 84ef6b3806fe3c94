package scenario

import (
	"errors"
	"testing"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/forest"
	"github.com/overstory/standsim/internal/units"
)

func TestRegistry_ListKnownModels(t *testing.T) {
	reg := NewRegistry()
	got := reg.List()
	want := []string{"cohort", "crownbase", "tree"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := reg.New("nope"); err == nil {
		t.Error("New with unknown model should fail")
	}
}

func TestBuild_Defaults(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.Build("cohort", 0, 100*units.Year, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	x0 := p.Initial()
	if x0[0] != 5*units.MgPerHa {
		t.Errorf("default B = %v, want 5 Mg/ha in SI", x0[0])
	}
	if x0[1] != 0 {
		t.Errorf("default D_wood = %v, want 0", x0[1])
	}
	t0, t1 := p.Span()
	if t0 != 0 || t1 != 100*units.Year {
		t.Errorf("Span() = [%v, %v]", t0, t1)
	}
}

func TestBuild_OverridesConvertToSI(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.Build("cohort", 0, units.Year,
		map[string]Value{"B": {V: 20, Unit: "Mg/ha"}},
		map[string]Value{"B_other": {V: 100, Unit: "Mg/ha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := p.Initial()[0]; got != 20*units.MgPerHa {
		t.Errorf("B override = %v, want 20 Mg/ha in SI", got)
	}
	c := p.System().(*forest.Cohort)
	if c.BOther != 100*units.MgPerHa {
		t.Errorf("B_other = %v, want 100 Mg/ha in SI", c.BOther)
	}
}

func TestBuild_ConfigurationErrors(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		t0, t1  float64
		initial map[string]Value
		params  map[string]Value
		want    error
	}{
		{
			name: "empty span",
			t0:   units.Year, t1: units.Year,
			want: dynamics.ErrBadTimeSpan,
		},
		{
			name: "reversed span",
			t0:   units.Year, t1: 0,
			want: dynamics.ErrBadTimeSpan,
		},
		{
			name: "unknown parameter",
			t1:   units.Year,
			params: map[string]Value{
				"growth_rate": {V: 1, Unit: "1"},
			},
			want: dynamics.ErrUnknownSymbol,
		},
		{
			name: "unknown initial condition",
			t1:   units.Year,
			initial: map[string]Value{
				"biomass": {V: 1, Unit: "Mg/ha"},
			},
			want: dynamics.ErrUnknownSymbol,
		},
		{
			name: "missing unit tag",
			t1:   units.Year,
			params: map[string]Value{
				"B_other": {V: 100},
			},
			want: dynamics.ErrMissingUnit,
		},
		{
			name: "mismatched unit tag",
			t1:   units.Year,
			params: map[string]Value{
				"ANPP_MAX": {V: 7.45, Unit: "Mg/ha"},
			},
			want: dynamics.ErrUnitMismatch,
		},
		{
			name: "initial condition with param unit",
			t1:   units.Year,
			initial: map[string]Value{
				"B": {V: 5, Unit: "yr"},
			},
			want: dynamics.ErrUnitMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Build("cohort", tt.t0, tt.t1, tt.initial, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("Build error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuild_UnknownModel(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Build("spruce", 0, units.Year, nil, nil); err == nil {
		t.Error("Build with unknown model should fail")
	}
}

func TestDerive_Independence(t *testing.T) {
	reg := NewRegistry()
	base, err := reg.Build("cohort", 0, 100*units.Year, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	derived, err := base.Derive(
		map[string]Value{"B": {V: 50, Unit: "Mg/ha"}},
		map[string]Value{"B_other": {V: 200, Unit: "Mg/ha"}})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	// the base problem keeps its defaults
	if got := base.Initial()[0]; got != 5*units.MgPerHa {
		t.Errorf("base B changed to %v after Derive", got)
	}
	if got := base.System().(*forest.Cohort).BOther; got != 0 {
		t.Errorf("base B_other changed to %v after Derive", got)
	}

	if got := derived.Initial()[0]; got != 50*units.MgPerHa {
		t.Errorf("derived B = %v", got)
	}
	if got := derived.System().(*forest.Cohort).BOther; got != 200*units.MgPerHa {
		t.Errorf("derived B_other = %v", got)
	}
}

func TestDerive_RejectsBadOverride(t *testing.T) {
	reg := NewRegistry()
	base, err := reg.Build("cohort", 0, units.Year, nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	_, err = base.Derive(nil, map[string]Value{"B_other": {V: 1, Unit: "kg"}})
	if !errors.Is(err, dynamics.ErrUnitMismatch) {
		t.Errorf("Derive error = %v, want unit mismatch", err)
	}
}

func TestDerive_KeepsEarlierOverrides(t *testing.T) {
	reg := NewRegistry()
	base, err := reg.Build("cohort", 0, units.Year, nil,
		map[string]Value{"B_other": {V: 100, Unit: "Mg/ha"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	derived, err := base.Derive(nil, map[string]Value{"y0": {V: 0.02, Unit: "1"}})
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}

	c := derived.System().(*forest.Cohort)
	if c.BOther != 100*units.MgPerHa {
		t.Errorf("derived lost earlier B_other override: %v", c.BOther)
	}
	if c.Y0 != 0.02 {
		t.Errorf("derived y0 = %v", c.Y0)
	}
}
