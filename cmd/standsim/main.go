package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/overstory/standsim/internal/config"
	"github.com/overstory/standsim/internal/metrics"
	"github.com/overstory/standsim/internal/scenario"
	"github.com/overstory/standsim/internal/storage"
	"github.com/overstory/standsim/internal/sweep"
	"github.com/overstory/standsim/internal/tui"
	"github.com/overstory/standsim/internal/units"
)

var (
	dataDir    string
	years      float64
	stepYears  float64
	seed       int64
	method     string
	runs       int
	setFlags   []string
	initFlags  []string
	preset     string
	configFile string
	// sweep axes
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int
	sweepUnit   string
	sweepOutput string
	// hcb predictors
	hcbHT    float64
	hcbDBH   float64
	hcbCCF   float64
	hcbEL    float64
	hcbRMSQD float64
	hcbHAB   float64
	// live view
	liveField string
	frameRate int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "standsim",
		Short: "forest stand dynamics simulation lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".standsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a projection",
		Args:  cobra.ExactArgs(1),
		RunE:  runProjection,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [model]",
		Short: "run a stochastic ensemble over consecutive seeds",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	addRunFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", config.DefaultRuns, "number of realizations")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model] [param]",
		Short: "sweep one parameter and report a terminal state",
		Args:  cobra.ExactArgs(2),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0, "first swept value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1, "last swept value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of sweep points")
	sweepCmd.Flags().StringVar(&sweepUnit, "unit", "1", "unit tag of the swept parameter")
	sweepCmd.Flags().StringVar(&sweepOutput, "output", "", "state reported per point (default: first state)")

	hcbCmd := &cobra.Command{
		Use:   "hcb",
		Short: "predict height to crown base",
		RunE:  predictHCB,
	}
	hcbCmd.Flags().Float64Var(&hcbHT, "ht", 60, "total height (ft)")
	hcbCmd.Flags().Float64Var(&hcbDBH, "dbh", 6, "diameter at breast height (in)")
	hcbCmd.Flags().Float64Var(&hcbCCF, "ccf", 100, "crown competition factor")
	hcbCmd.Flags().Float64Var(&hcbEL, "el", 43, "elevation (hundreds of ft)")
	hcbCmd.Flags().Float64Var(&hcbRMSQD, "rmsqd", 7, "root mean square stand diameter (in)")
	hcbCmd.Flags().Float64Var(&hcbHAB, "hab", 0, "habitat adjustment")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a stored run's trajectory to stdout as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "watch a projection integrate",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().StringVar(&liveField, "field", "", "state to chart (default: first state)")
	liveCmd.Flags().IntVar(&frameRate, "fps", 20, "frame rate")

	rootCmd.AddCommand(runCmd, ensembleCmd, sweepCmd, hcbCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&years, "years", config.DefaultYears, "projection horizon in years")
	cmd.Flags().Float64Var(&stepYears, "step", config.DefaultStepYears, "fixed step in years (stochastic method)")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "noise seed (stochastic method)")
	cmd.Flags().StringVar(&method, "method", "", "adaptive or stochastic (default depends on model)")
	cmd.Flags().StringArrayVar(&setFlags, "set", nil, "parameter override, name=value@unit")
	cmd.Flags().StringArrayVar(&initFlags, "init", nil, "initial-condition override, name=value@unit")
}

// parseOverrides turns repeated name=value@unit flags into builder values.
func parseOverrides(flags []string) (map[string]scenario.Value, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := make(map[string]scenario.Value, len(flags))
	for _, f := range flags {
		name, rest, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("override %q is not name=value@unit", f)
		}
		valStr, unit, ok := strings.Cut(rest, "@")
		if !ok {
			return nil, fmt.Errorf("override %q has no @unit tag", f)
		}
		v, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", f, err)
		}
		out[name] = scenario.Value{V: v, Unit: unit}
	}
	return out, nil
}

func defaultMethod(model string) string {
	if model == "tree" {
		return "stochastic"
	}
	return "adaptive"
}

func buildMethod(model string) (scenario.Method, error) {
	kind := method
	if kind == "" {
		kind = defaultMethod(model)
	}
	switch kind {
	case "adaptive":
		return scenario.Method{Kind: scenario.MethodAdaptive}, nil
	case "stochastic":
		return scenario.Method{Kind: scenario.MethodStochastic, H: stepYears * units.Year, Seed: seed}, nil
	default:
		return scenario.Method{}, fmt.Errorf("unknown method: %s", kind)
	}
}

func buildProblem(cmd *cobra.Command, model string) (*scenario.Problem, error) {
	initial, err := parseOverrides(initFlags)
	if err != nil {
		return nil, err
	}
	params, err := parseOverrides(setFlags)
	if err != nil {
		return nil, err
	}

	if preset != "" {
		cfg := config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		applyConfig(cmd, cfg, &initial, &params)
	}
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		applyConfig(cmd, cfg, &initial, &params)
	}

	reg := scenario.NewRegistry()
	return reg.Build(model, 0, years*units.Year, initial, params)
}

// applyConfig merges file/preset values under any explicitly set flags.
func applyConfig(cmd *cobra.Command, cfg *config.Config, initial, params *map[string]scenario.Value) {
	if cfg.Years > 0 && !cmd.Flags().Changed("years") {
		years = cfg.Years
	}
	if cfg.StepYears > 0 && !cmd.Flags().Changed("step") {
		stepYears = cfg.StepYears
	}
	if cfg.Seed != 0 && !cmd.Flags().Changed("seed") {
		seed = cfg.Seed
	}
	if cfg.Method != "" && !cmd.Flags().Changed("method") {
		method = cfg.Method
	}
	fileInit, fileParams := cfg.Overrides()
	for k, v := range fileInit {
		if _, set := (*initial)[k]; !set {
			if *initial == nil {
				*initial = make(map[string]scenario.Value)
			}
			(*initial)[k] = v
		}
	}
	for k, v := range fileParams {
		if _, set := (*params)[k]; !set {
			if *params == nil {
				*params = make(map[string]scenario.Value)
			}
			(*params)[k] = v
		}
	}
}

func runProjection(cmd *cobra.Command, args []string) error {
	model := args[0]

	p, err := buildProblem(cmd, model)
	if err != nil {
		return err
	}
	m, err := buildMethod(model)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	solver := scenario.NewSolver(m)
	names := p.System().Schema().StateNames()
	if len(names) > 0 {
		solver.AddMetric(metrics.NewTerminal(names[0]+"_final", 0))
		solver.AddMetric(metrics.NewPeak(names[0]+"_peak", 0))
	}
	solver.AddMetric(metrics.NewPositivity(0))

	fmt.Printf("running %s projection over %.0f years...\n", model, years)
	start := time.Now()

	sol, err := solver.Run(context.Background(), p)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	methodName := "adaptive"
	if m.Kind == scenario.MethodStochastic {
		methodName = "stochastic"
	}
	runID, err := st.Save(model, methodName, years, stepYears, m.Seed, sol)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("status: %s\n", sol.Status)
	if sol.Fault != nil {
		fmt.Printf("fault: %v\n", sol.Fault)
	}
	fmt.Printf("samples: %d\n", sol.Len())
	fmt.Println("\nmetrics:")
	for name, val := range sol.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	model := args[0]

	p, err := buildProblem(cmd, model)
	if err != nil {
		return err
	}
	m, err := buildMethod(model)
	if err != nil {
		return err
	}
	if m.Kind != scenario.MethodStochastic {
		return fmt.Errorf("ensemble needs the stochastic method")
	}

	fmt.Printf("running %d realizations of %s (seeds %d..%d)...\n", runs, model, seed, seed+int64(runs)-1)
	start := time.Now()

	sols, err := scenario.NewEnsemble(p, m, runs, seed).Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))

	schema := p.System().Schema()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tUNIT\tTERMINAL MEAN\tTERMINAL STD")
	for _, f := range schema.States {
		mean, std, err := scenario.MeanStd(sols, f.Name)
		if err != nil {
			return err
		}
		dispMean, _ := units.FromSI(mean, f.Unit)
		dispStd, _ := units.FromSI(std, f.Unit)
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\n", f.Name, f.Unit, dispMean, dispStd)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	model, param := args[0], args[1]

	p, err := buildProblem(cmd, model)
	if err != nil {
		return err
	}
	m, err := buildMethod(model)
	if err != nil {
		return err
	}

	if sweepPoints < 2 {
		return fmt.Errorf("sweep needs at least 2 points")
	}
	values := make([]float64, sweepPoints)
	for i := range values {
		values[i] = sweepFrom + (sweepTo-sweepFrom)*float64(i)/float64(sweepPoints-1)
	}

	output := sweepOutput
	if output == "" {
		output = p.System().Schema().States[0].Name
	}

	s := &sweep.Sweep{Param: param, Unit: sweepUnit, Values: values}
	points, err := s.Run(context.Background(), p, m, output)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s (terminal, SI)\n", param, output)
	series := make([]float64, len(points))
	for i, pt := range points {
		fmt.Fprintf(w, "%.4g\t%.6g\n", pt.Param, pt.Output)
		series[i] = pt.Output
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(fmt.Sprintf("terminal %s vs %s", output, param)),
	))
	return nil
}

func predictHCB(cmd *cobra.Command, args []string) error {
	reg := scenario.NewRegistry()
	p, err := reg.Build("crownbase", 0, units.Year, nil, map[string]scenario.Value{
		"HT_input":  {V: hcbHT, Unit: "ft"},
		"DBH_input": {V: hcbDBH, Unit: "in"},
		"CCF":       {V: hcbCCF, Unit: "1"},
		"EL":        {V: hcbEL, Unit: "100ft"},
		"RMSQD":     {V: hcbRMSQD, Unit: "in"},
		"HAB":       {V: hcbHAB, Unit: "1"},
	})
	if err != nil {
		return err
	}

	pred := p.System().Derived(nil, 0)["HCB_pred"]
	ft, err := units.FromSI(pred, "ft")
	if err != nil {
		return err
	}
	fmt.Printf("HCB_pred: %.2f ft (%.2f m)\n", ft, pred)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	stored, err := st.List()
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tYEARS\tMETHOD\tSTATUS")
	for _, run := range stored {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%s\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Years,
			run.Method,
			run.Status,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	names, _, states, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(states))

	for col, name := range names {
		data := make([]float64, len(states))
		for i := range states {
			data[i] = states[i][col]
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs time", name)),
		))
		fmt.Println()
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	names, times, states, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	out := struct {
		Meta   *storage.RunMetadata `json:"meta"`
		Names  []string             `json:"names"`
		Times  []float64            `json:"times_years"`
		States [][]float64          `json:"states"`
	}{meta, names, times, states}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	names, times, states, err := storage.New(dataDir).LoadStates(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("t_years,%s\n", strings.Join(names, ","))
	for i, t := range times {
		row := make([]string, 0, len(states[i])+1)
		row = append(row, strconv.FormatFloat(t, 'g', 12, 64))
		for _, v := range states[i] {
			row = append(row, strconv.FormatFloat(v, 'g', 12, 64))
		}
		fmt.Println(strings.Join(row, ","))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	model := args[0]

	p, err := buildProblem(cmd, model)
	if err != nil {
		return err
	}
	m, err := buildMethod(model)
	if err != nil {
		return err
	}

	field := liveField
	if field == "" {
		field = p.System().Schema().States[0].Name
	}
	return tui.Run(p, m, field, stepYears*units.Year, frameRate)
}
