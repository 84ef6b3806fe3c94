package config

var Presets = map[string]map[string]*Config{
	"cohort": {
		"baseline": {
			Model: "cohort", Method: "adaptive", Years: 200,
		},
		"crowded": {
			Model: "cohort", Method: "adaptive", Years: 200,
			Params: map[string]Override{
				"B_other": {Value: 300, Unit: "Mg/ha"},
			},
		},
		// senescence window: past ~300 years the age term outruns growth
		// and the stand declines for the rest of the horizon
		"old-growth": {
			Model: "cohort", Method: "adaptive", Years: 30,
			Params: map[string]Override{
				"age_init": {Value: 300, Unit: "yr"},
			},
			Initial: map[string]Override{
				"B": {Value: 200, Unit: "Mg/ha"},
			},
		},
	},
	"tree": {
		"baseline": {
			Model: "tree", Method: "stochastic", Years: 50, StepYears: 0.1, Seed: 42,
		},
		"dense": {
			Model: "tree", Method: "stochastic", Years: 50, StepYears: 0.1, Seed: 42,
			Params: map[string]Override{
				"CCF": {Value: 150, Unit: "1"},
				"PCT": {Value: 20, Unit: "1"},
			},
		},
		"open": {
			Model: "tree", Method: "stochastic", Years: 50, StepYears: 0.1, Seed: 42,
			Params: map[string]Override{
				"CCF": {Value: 60, Unit: "1"},
				"PCT": {Value: 90, Unit: "1"},
			},
		},
		"deterministic": {
			Model: "tree", Method: "stochastic", Years: 50, StepYears: 0.1, Seed: 42,
			Params: map[string]Override{
				"sigma_growth": {Value: 0, Unit: "1"},
			},
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
