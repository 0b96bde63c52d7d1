package metrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/metrics"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.ObserveIteration("HO", 0.5, 0.25)
	r.ObserveIteration("HO", 0.4, 0.2)
	r.ObserveRun(&framework.RunResult{Metadata: framework.RunMetadata{
		Algorithm:   "HO",
		Evaluations: 40,
		Duration:    20 * time.Millisecond,
		StopReason:  framework.Converged,
	}})

	expected := `
# HELP hosim_function_evaluations_total Number of candidate evaluations performed.
# TYPE hosim_function_evaluations_total counter
hosim_function_evaluations_total{algorithm="HO"} 40
# HELP hosim_iterations_total Number of optimization iterations executed.
# TYPE hosim_iterations_total counter
hosim_iterations_total{algorithm="HO"} 2
# HELP hosim_runs_total Number of completed optimization runs by algorithm and stop reason.
# TYPE hosim_runs_total counter
hosim_runs_total{algorithm="HO",stop_reason="Converged"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"hosim_function_evaluations_total", "hosim_iterations_total", "hosim_runs_total"); err != nil {
		t.Error(err)
	}

	gauges := `
# HELP hosim_best_fitness Best fitness at the last observed iteration.
# TYPE hosim_best_fitness gauge
hosim_best_fitness{algorithm="HO"} 0.4
# HELP hosim_population_diversity Mean pairwise Hamming distance at the last observed iteration.
# TYPE hosim_population_diversity gauge
hosim_population_diversity{algorithm="HO"} 0.2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(gauges),
		"hosim_best_fitness", "hosim_population_diversity"); err != nil {
		t.Error(err)
	}
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := metrics.NewPrometheusRecorder(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := metrics.NewPrometheusRecorder(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}
