package app

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/vmplacement/hosim/cmd/hosim/app/options"
	"github.com/vmplacement/hosim/pkg/api/v1alpha1"
	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/analysis"
	"github.com/vmplacement/hosim/pkg/hippo/baselines"
	"github.com/vmplacement/hosim/pkg/hippo/experiment"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/util"
)

// CompareOptions configure the compare command.
type CompareOptions struct {
	Seeds   int
	Workers int
	Analyze bool
	// SensitivityParam and SensitivityValues re-rank the analyzed placements
	// for each value of one weight.
	SensitivityParam  string
	SensitivityValues []float64
}

func newCompareCommand(o *options.Options) *cobra.Command {
	c := &CompareOptions{Seeds: 3}
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare HO, NSGA-II and the baseline heuristics over several seeds",
		Long: `Runs every algorithm on every scenario for each seed and prints the mean,
spread and extremes of the best fitness. Without --items and --bins the small,
medium and large scenarios are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return Compare(ctx, cmd.OutOrStdout(), o, c)
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&c.Seeds, "seeds", c.Seeds, "Number of seeds per algorithm and scenario, counting up from --seed.")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Maximum concurrent trials. Zero uses GOMAXPROCS.")
	fs.BoolVar(&c.Analyze, "analyze", c.Analyze, "Print an objective breakdown of the first seed's placements.")
	fs.StringVar(&c.SensitivityParam, "sensitivity", c.SensitivityParam, "With --analyze, weight to vary when re-ranking the placements, e.g. slaWeight.")
	fs.Float64SliceVar(&c.SensitivityValues, "sensitivity-values", c.SensitivityValues, "Values of the --sensitivity weight.")
	fs.StringVar(&o.ChartFile, "chart", o.ChartFile, "Write the first seed's HO and NSGA-II convergence to this HTML file.")
	return cmd
}

// Compare runs the experiment suite and prints its summary table.
func Compare(ctx context.Context, out io.Writer, o *options.Options, c *CompareOptions) error {
	if c.Seeds < 1 {
		return framework.InvalidArgumentf("--seeds must be at least 1, got %d", c.Seeds)
	}
	cfg, err := o.Configuration()
	if err != nil {
		return err
	}
	params := cfg.ToParameters()

	scenarios := experiment.DefaultScenarios()
	if cfg.Items > 0 && cfg.Bins > 0 {
		scenarios = []experiment.Scenario{{Name: fmt.Sprintf("%dx%d", cfg.Items, cfg.Bins), Items: cfg.Items, Bins: cfg.Bins}}
	}
	seeds := make([]int64, c.Seeds)
	for i := range seeds {
		seeds[i] = params.Seed + int64(i)
	}

	entries, err := compareEntries(cfg)
	if err != nil {
		return err
	}
	suite, err := experiment.NewSuite(experiment.Config{
		Scenarios:     scenarios,
		Seeds:         seeds,
		Base:          params,
		MaxGoroutines: c.Workers,
	}, entries...)
	if err != nil {
		return err
	}

	defer startTracing(ctx, o)()
	report, err := suite.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.WriteTable(out); err != nil {
		return err
	}
	for _, sc := range scenarios {
		if best, ok := report.Best(sc.Name); ok {
			fmt.Fprintf(out, "Best on %s: %s (mean %.4f)\n", sc.Name, best.Algorithm, best.MeanFitness)
		}
	}

	first := firstSeedTrials(report, scenarios[0].Name, seeds[0])
	if c.Analyze {
		fmt.Fprintf(out, "\nObjective breakdown on %s, seed %d:\n", scenarios[0].Name, seeds[0])
		if err := analyzeTrials(out, first, scenarios[0].Bins, params, c); err != nil {
			return err
		}
	}
	if o.ChartFile != "" {
		var results []*framework.RunResult
		for _, t := range first {
			if t.Algorithm == algorithms.HippoName || t.Algorithm == algorithms.NSGAIIName {
				results = append(results, t.Result)
			}
		}
		if err := util.PlotConvergence(o.ChartFile, results...); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		klog.FromContext(ctx).Info("Wrote convergence chart", "path", o.ChartFile)
	}
	return nil
}

// compareEntries returns the standard entries with NSGA-II using the
// configured crossover and rates.
func compareEntries(cfg *v1alpha1.HippoConfiguration) ([]experiment.Entry, error) {
	nsga, err := cfg.NSGA2Config()
	if err != nil {
		return nil, err
	}
	entries := experiment.StandardEntries()
	for i := range entries {
		if entries[i].Name != algorithms.NSGAIIName {
			continue
		}
		entries[i].New = func(p framework.Parameters) algorithms.Algorithm {
			config := nsga
			config.Seed = p.Seed
			return algorithms.NewNSGAII(config)
		}
	}
	return entries, nil
}

func firstSeedTrials(report *experiment.Report, scenario string, seed int64) []experiment.Trial {
	var trials []experiment.Trial
	for _, t := range report.Trials {
		if t.Scenario == scenario && t.Seed == seed && t.Err == nil && t.Result != nil && t.Result.Best != nil {
			trials = append(trials, t)
		}
	}
	return trials
}

// analyzeTrials ranks the best placements of trials. Movements are counted
// against the round-robin placement.
func analyzeTrials(out io.Writer, trials []experiment.Trial, binCount int, params framework.Parameters, c *CompareOptions) error {
	var reference []int
	placements := make([]analysis.Placement, 0, len(trials))
	for _, t := range trials {
		placements = append(placements, analysis.Placement{Name: t.Algorithm, Assignment: t.Result.Best.Assignment})
		if t.Algorithm == baselines.RoundRobinName {
			reference = t.Result.Best.Assignment
		}
	}
	analyzer, err := analysis.NewAnalyzer(binCount, params, reference)
	if err != nil {
		return err
	}
	results, err := analyzer.AnalyzeAll(placements)
	if err != nil {
		return err
	}
	if err := analysis.WriteReport(out, results); err != nil {
		return err
	}

	if c.SensitivityParam == "" {
		return nil
	}
	tunable, err := framework.ParseTunable(c.SensitivityParam)
	if err != nil {
		return err
	}
	sweep, err := analyzer.SensitivitySweep(placements, tunable, c.SensitivityValues)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSensitivity to %s:\n", tunable)
	for _, s := range sweep {
		winner := s.Winner()
		fmt.Fprintf(out, "  %v: %s (weighted %.4f)\n", s.Value, winner.Name, winner.WeightedTotal)
	}
	return nil
}
