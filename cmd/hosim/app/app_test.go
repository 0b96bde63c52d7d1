package app_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"k8s.io/klog/v2/ktesting"

	"github.com/vmplacement/hosim/cmd/hosim/app"
	"github.com/vmplacement/hosim/cmd/hosim/app/options"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

func newOptions(t *testing.T, items, bins int) *options.Options {
	t.Helper()
	o, err := options.NewOptions()
	if err != nil {
		t.Fatal(err)
	}
	o.Items = items
	o.Bins = bins
	o.Population = 6
	o.Iterations = 8
	return o
}

func TestRunWritesArtifacts(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	dir := t.TempDir()

	o := newOptions(t, 12, 3)
	o.ChartFile = filepath.Join(dir, "convergence.html")
	o.MetricsFile = filepath.Join(dir, "metrics.prom")
	o.PlanFile = filepath.Join(dir, "plan.yaml")

	var out bytes.Buffer
	if err := app.Run(ctx, &out, o); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, want := range []string{"Algorithm:", "HO", "Best fitness:", "Plan:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}

	metrics, err := os.ReadFile(o.MetricsFile)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	if !strings.Contains(string(metrics), "hosim_runs_total") {
		t.Errorf("metrics file missing run counter:\n%s", metrics)
	}
	plan, err := os.ReadFile(o.PlanFile)
	if err != nil {
		t.Fatalf("reading plan: %v", err)
	}
	if !strings.Contains(string(plan), "hosim-plan-") {
		t.Errorf("plan file missing plan name:\n%s", plan)
	}
	if _, err := os.Stat(o.ChartFile); err != nil {
		t.Errorf("chart not written: %v", err)
	}
}

func TestRunRequiresProblemSize(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	o := newOptions(t, 0, 0)
	if err := app.Run(ctx, &bytes.Buffer{}, o); err == nil {
		t.Error("expected an error without --items and --bins")
	}
}

func TestSweep(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	o := newOptions(t, 10, 3)

	var out bytes.Buffer
	if err := app.Sweep(ctx, &out, o, "explorationRate", []float64{0.2, 0.8}); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	// header plus one row per value
	if lines := strings.Count(strings.TrimSpace(out.String()), "\n") + 1; lines != 3 {
		t.Errorf("expected 3 lines, got %d:\n%s", lines, out.String())
	}

	if err := app.Sweep(ctx, &out, o, "nope", []float64{1}); !framework.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument for an unknown parameter, got %v", err)
	}
	if err := app.Sweep(ctx, &out, o, "explorationRate", []float64{2}); !framework.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument for an out-of-range value, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	o := newOptions(t, 10, 3)
	o.ChartFile = filepath.Join(t.TempDir(), "compare.html")

	var out bytes.Buffer
	err := app.Compare(ctx, &out, o, &app.CompareOptions{
		Seeds:             2,
		Workers:           2,
		Analyze:           true,
		SensitivityParam:  "slaWeight",
		SensitivityValues: []float64{0, 1},
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	for _, want := range []string{"SCENARIO", "NSGA-II", "GreedyWeighted", "Best on 10x3", "Objective breakdown", "Sensitivity to slaWeight"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	if err := app.Compare(ctx, &out, o, &app.CompareOptions{Seeds: 0}); !framework.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument for zero seeds, got %v", err)
	}
}

func TestPareto(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	o := newOptions(t, 12, 4)
	o.ChartFile = filepath.Join(t.TempDir(), "front.html")

	var out bytes.Buffer
	if err := app.Pareto(ctx, &out, o, &app.ParetoOptions{X: "power", Y: "loadBalance"}); err != nil {
		t.Fatalf("Pareto failed: %v", err)
	}
	if !strings.Contains(out.String(), "points on the front") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if _, err := os.Stat(o.ChartFile); err != nil {
		t.Errorf("chart not written: %v", err)
	}

	err := app.Pareto(ctx, &out, o, &app.ParetoOptions{X: "cost", Y: "power"})
	if !framework.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument for an unknown objective, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := app.NewHosimCommand(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "hosim version") {
		t.Errorf("unexpected output %q", out.String())
	}
}
