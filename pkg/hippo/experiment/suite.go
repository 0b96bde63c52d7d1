// Package experiment runs optimizers and baselines over several problem
// sizes and seeds and summarizes how they compare.
package experiment

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"k8s.io/klog/v2"

	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/baselines"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// Scenario is one problem size.
type Scenario struct {
	Name  string
	Items int
	Bins  int
}

// DefaultScenarios returns a small, a medium and a large problem.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "small", Items: 20, Bins: 5},
		{Name: "medium", Items: 50, Bins: 10},
		{Name: "large", Items: 100, Bins: 20},
	}
}

// Factory builds an algorithm for one trial. Each trial gets its own
// instance configured with the trial's seed.
type Factory func(params framework.Parameters) algorithms.Algorithm

// Entry is a named algorithm under comparison.
type Entry struct {
	Name string
	New  Factory
}

// StandardEntries returns HO, NSGA-II and every baseline.
func StandardEntries(opts ...algorithms.Option) []Entry {
	entries := []Entry{
		{Name: algorithms.HippoName, New: func(p framework.Parameters) algorithms.Algorithm {
			return algorithms.NewHippo(p, opts...)
		}},
		{Name: algorithms.NSGAIIName, New: func(p framework.Parameters) algorithms.Algorithm {
			return algorithms.NewNSGAII(algorithms.NSGA2ConfigFromParameters(p), opts...)
		}},
	}
	for _, name := range []string{baselines.FirstFitName, baselines.BestFitName, baselines.LeastLoadedName, baselines.RoundRobinName, baselines.RandomName, baselines.GreedyWeightName} {
		entries = append(entries, Entry{Name: name, New: baselineFactory(name)})
	}
	return entries
}

func baselineFactory(name string) Factory {
	return func(p framework.Parameters) algorithms.Algorithm {
		for _, b := range baselines.All(p, nil) {
			if b.Name() == name {
				return b
			}
		}
		return nil
	}
}

// Config configures a Suite.
type Config struct {
	Scenarios []Scenario
	Seeds     []int64
	Base      framework.Parameters
	// MaxGoroutines bounds concurrent trials. Zero uses GOMAXPROCS.
	MaxGoroutines int
}

// Trial is one algorithm run on one scenario with one seed.
type Trial struct {
	ID        string
	Algorithm string
	Scenario  string
	Seed      int64
	Result    *framework.RunResult
	Err       error
}

// Summary aggregates the trials of one algorithm on one scenario. Failed
// trials count in Failures only.
type Summary struct {
	Algorithm      string
	Scenario       string
	Runs           int
	Failures       int
	Converged      int
	MeanFitness    float64
	StdDevFitness  float64
	MinFitness     float64
	MaxFitness     float64
	MeanIterations float64
	MeanDuration   time.Duration
}

// Report is the outcome of a suite run.
type Report struct {
	Trials    []Trial
	Summaries []Summary
}

// Suite runs every entry on every scenario for every seed.
type Suite struct {
	config  Config
	entries []Entry
}

// NewSuite validates the configuration and creates a suite.
func NewSuite(config Config, entries ...Entry) (*Suite, error) {
	if len(config.Scenarios) == 0 {
		return nil, framework.InvalidArgumentf("no scenarios")
	}
	if len(config.Seeds) == 0 {
		return nil, framework.InvalidArgumentf("no seeds")
	}
	if len(entries) == 0 {
		return nil, framework.InvalidArgumentf("no algorithms")
	}
	for _, sc := range config.Scenarios {
		if err := framework.ValidateProblem(sc.Items, sc.Bins); err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}
	if err := config.Base.Validate(); err != nil {
		return nil, err
	}
	if config.MaxGoroutines <= 0 {
		config.MaxGoroutines = runtime.GOMAXPROCS(0)
	}
	return &Suite{config: config, entries: entries}, nil
}

// Run executes all trials on a bounded pool of goroutines. Every trial owns
// its generator, so results do not depend on scheduling or pool size. A
// failing trial is recorded in its Trial and does not stop the others.
func (s *Suite) Run(ctx context.Context) (*Report, error) {
	logger := klog.FromContext(ctx)

	var trials []Trial
	for _, sc := range s.config.Scenarios {
		for _, e := range s.entries {
			for _, seed := range s.config.Seeds {
				trials = append(trials, Trial{
					ID:        uuid.New().String(),
					Algorithm: e.Name,
					Scenario:  sc.Name,
					Seed:      seed,
				})
			}
		}
	}
	logger.Info("Starting experiment", "trials", len(trials), "maxGoroutines", s.config.MaxGoroutines)

	p := pool.New().WithMaxGoroutines(s.config.MaxGoroutines)
	i := 0
	for _, sc := range s.config.Scenarios {
		for _, e := range s.entries {
			for _, seed := range s.config.Seeds {
				trial := &trials[i]
				i++
				sc, e, seed := sc, e, seed
				p.Go(func() {
					params := s.config.Base
					params.Seed = seed
					alg := e.New(params)
					if alg == nil {
						trial.Err = framework.InvalidArgumentf("algorithm %q is not available", e.Name)
						return
					}
					trial.Result, trial.Err = alg.Run(ctx, sc.Items, sc.Bins)
					if trial.Err != nil {
						logger.Error(trial.Err, "Trial failed", "trial", trial.ID, "algorithm", e.Name, "scenario", sc.Name, "seed", seed)
					}
				})
			}
		}
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Report{Trials: trials, Summaries: s.summarize(trials)}, nil
}

func (s *Suite) summarize(trials []Trial) []Summary {
	var summaries []Summary
	for _, sc := range s.config.Scenarios {
		for _, e := range s.entries {
			summary := Summary{Algorithm: e.Name, Scenario: sc.Name}
			var fitness, iterations []float64
			var total time.Duration
			for _, t := range trials {
				if t.Algorithm != e.Name || t.Scenario != sc.Name {
					continue
				}
				if t.Err != nil || t.Result == nil {
					summary.Failures++
					continue
				}
				summary.Runs++
				if t.Result.Metadata.Converged {
					summary.Converged++
				}
				fitness = append(fitness, t.Result.BestFitness())
				iterations = append(iterations, float64(t.Result.Metadata.Iterations))
				total += t.Result.Metadata.Duration
			}
			if summary.Runs > 0 {
				summary.MeanFitness, summary.StdDevFitness = stat.MeanStdDev(fitness, nil)
				if summary.Runs == 1 {
					summary.StdDevFitness = 0
				}
				summary.MinFitness = floats.Min(fitness)
				summary.MaxFitness = floats.Max(fitness)
				summary.MeanIterations = stat.Mean(iterations, nil)
				summary.MeanDuration = total / time.Duration(summary.Runs)
			} else {
				summary.MeanFitness = math.NaN()
			}
			summaries = append(summaries, summary)
		}
	}
	return summaries
}

// Best returns the summary with the lowest mean fitness on a scenario.
func (r *Report) Best(scenario string) (Summary, bool) {
	var best Summary
	found := false
	for _, s := range r.Summaries {
		if s.Scenario != scenario || s.Runs == 0 {
			continue
		}
		if !found || s.MeanFitness < best.MeanFitness {
			best = s
			found = true
		}
	}
	return best, found
}

// WriteTable prints the summaries as an aligned table.
func (r *Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tALGORITHM\tRUNS\tMEAN\tSTDDEV\tMIN\tMAX\tITERATIONS\tCONVERGED\tDURATION")
	for _, s := range r.Summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.1f\t%d/%d\t%v\n",
			s.Scenario, s.Algorithm, s.Runs, s.MeanFitness, s.StdDevFitness, s.MinFitness, s.MaxFitness,
			s.MeanIterations, s.Converged, s.Runs, s.MeanDuration.Round(time.Microsecond))
	}
	return tw.Flush()
}
