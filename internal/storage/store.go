// Package storage persists completed runs: one directory per run with
// metadata.json and states.csv. Times in the CSV are in years and the
// state columns carry their model names, so exports are readable
// without the tool.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/overstory/standsim/internal/dynamics"
	"github.com/overstory/standsim/internal/units"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Timestamp time.Time          `json:"timestamp"`
	Method    string             `json:"method"`
	Years     float64            `json:"years"`
	StepYears float64            `json:"step_years,omitempty"`
	Seed      int64              `json:"seed,omitempty"`
	Status    string             `json:"status"`
	States    []string           `json:"states"`
	Metrics   map[string]float64 `json:"metrics"`
}

func (s *Store) Save(model, method string, years, stepYears float64, seed int64, sol *dynamics.Solution) (string, error) {
	runID := fmt.Sprintf("%s_%d", model, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     model,
		Timestamp: time.Now(),
		Method:    method,
		Years:     years,
		StepYears: stepYears,
		Seed:      seed,
		Status:    sol.Status.String(),
		States:    sol.Names,
		Metrics:   sol.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := append([]string{"t_years"}, sol.Names...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, x := range sol.States {
		row := make([]string, 0, len(x)+1)
		row = append(row, strconv.FormatFloat(sol.Times[i]/units.Year, 'g', 12, 64))
		for _, v := range x {
			row = append(row, strconv.FormatFloat(v, 'g', 12, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates reads back the stored trajectory: column names, times in
// years, and one row per sample.
func (s *Store) LoadStates(runID string) ([]string, []float64, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil, fmt.Errorf("storage: empty states file for %s", runID)
	}

	names := records[0][1:]
	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for _, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			return nil, nil, nil, fmt.Errorf("storage: ragged row in states file for %s", runID)
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, nil, nil, err
		}
		times = append(times, t)

		state := make([]float64, len(rec)-1)
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, nil, err
			}
			state[j] = v
		}
		states = append(states, state)
	}

	return names, times, states, nil
}
