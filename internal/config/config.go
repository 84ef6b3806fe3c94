package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/overstory/standsim/internal/scenario"
)

const (
	DefaultYears     = 200.0
	DefaultStepYears = 0.1
	DefaultSeed      = 42
	DefaultRuns      = 20
)

// Override is one value/unit pair from a config file. The unit must
// match the unit the model declares for the symbol.
type Override struct {
	Value float64 `yaml:"value"`
	Unit  string  `yaml:"unit"`
}

type Config struct {
	Model     string              `yaml:"model"`
	Method    string              `yaml:"method"` // adaptive | stochastic
	Years     float64             `yaml:"years"`
	StepYears float64             `yaml:"step_years"`
	Seed      int64               `yaml:"seed"`
	Runs      int                 `yaml:"runs"`
	Initial   map[string]Override `yaml:"initial"`
	Params    map[string]Override `yaml:"params"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:     "cohort",
		Method:    "adaptive",
		Years:     DefaultYears,
		StepYears: DefaultStepYears,
		Seed:      DefaultSeed,
		Runs:      DefaultRuns,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Overrides converts the file-level override maps into builder values.
func (c *Config) Overrides() (initial, params map[string]scenario.Value) {
	initial = make(map[string]scenario.Value, len(c.Initial))
	for k, o := range c.Initial {
		initial[k] = scenario.Value{V: o.Value, Unit: o.Unit}
	}
	params = make(map[string]scenario.Value, len(c.Params))
	for k, o := range c.Params {
		params[k] = scenario.Value{V: o.Value, Unit: o.Unit}
	}
	return initial, params
}
