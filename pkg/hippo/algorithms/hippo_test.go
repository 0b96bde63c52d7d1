package algorithms_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"k8s.io/klog/v2/ktesting"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/objectives"
	"github.com/vmplacement/hosim/pkg/hippo/population"
)

func smallParameters() framework.Parameters {
	p := framework.DefaultParameters()
	p.PopulationSize = 5
	p.MaxIterations = 20
	p.EliteSize = 3
	return p
}

func newFakeClock() *testingclock.FakePassiveClock {
	return testingclock.NewFakePassiveClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

// steppingClock advances by step every time elapsed time is read.
type steppingClock struct {
	*testingclock.FakePassiveClock
	step time.Duration
}

func (c *steppingClock) Since(ts time.Time) time.Duration {
	c.SetTime(c.Now().Add(c.step))
	return c.FakePassiveClock.Since(ts)
}

func checkResult(t *testing.T, result *framework.RunResult, items, bins int) {
	t.Helper()
	if result == nil || result.Best == nil {
		t.Fatal("expected a result with a best candidate")
	}
	if len(result.Best.Assignment) != items {
		t.Fatalf("expected %d slots, got %d", items, len(result.Best.Assignment))
	}
	for i, bin := range result.Best.Assignment {
		if bin < 0 || bin >= bins {
			t.Errorf("slot %d out of range: %d", i, bin)
		}
	}
	if got := len(result.ConvergenceHistory); got != result.Metadata.Iterations {
		t.Errorf("history length %d does not match iterations %d", got, result.Metadata.Iterations)
	}
	if len(result.DiversityHistory) != len(result.ConvergenceHistory) {
		t.Errorf("diversity history length %d differs from convergence history length %d",
			len(result.DiversityHistory), len(result.ConvergenceHistory))
	}
	for i := 1; i < len(result.ConvergenceHistory); i++ {
		if result.ConvergenceHistory[i] > result.ConvergenceHistory[i-1] {
			t.Errorf("best fitness regressed at iteration %d: %v -> %v",
				i, result.ConvergenceHistory[i-1], result.ConvergenceHistory[i])
		}
	}
	for i, d := range result.DiversityHistory {
		if d < 0 || d > 1 {
			t.Errorf("diversity out of range at iteration %d: %v", i, d)
		}
	}
	if n := len(result.ConvergenceHistory); n > 0 && result.ConvergenceHistory[n-1] != result.Best.Fitness {
		t.Errorf("last recorded best %v differs from the reported best %v", result.ConvergenceHistory[n-1], result.Best.Fitness)
	}
}

func TestHippoRun(t *testing.T) {
	tests := []struct {
		name  string
		items int
		bins  int
		setup func(p *framework.Parameters)
		check func(t *testing.T, result *framework.RunResult)
	}{
		{
			name:  "SmallProblem",
			items: 10,
			bins:  3,
			check: func(t *testing.T, result *framework.RunResult) {
				if result.Metadata.Iterations > 20 {
					t.Errorf("ran %d iterations, limit is 20", result.Metadata.Iterations)
				}
				if result.Metadata.Evaluations != 5*result.Metadata.Iterations {
					t.Errorf("expected %d evaluations, got %d", 5*result.Metadata.Iterations, result.Metadata.Evaluations)
				}
				if result.Best.Fitness < 0 || math.IsInf(result.Best.Fitness, 0) {
					t.Errorf("unexpected best fitness %v", result.Best.Fitness)
				}
			},
		},
		{
			name:  "MoreBinsThanItems",
			items: 4,
			bins:  10,
			check: func(t *testing.T, result *framework.RunResult) {
				if !result.Best.Valid {
					t.Error("expected a valid best candidate")
				}
			},
		},
		{
			name:  "SingleMemberHasNoDiversity",
			items: 8,
			bins:  3,
			setup: func(p *framework.Parameters) {
				p.PopulationSize = 1
				p.EliteSize = 1
			},
			check: func(t *testing.T, result *framework.RunResult) {
				for i, d := range result.DiversityHistory {
					if d != 0 {
						t.Errorf("iteration %d: expected diversity 0, got %v", i, d)
					}
				}
			},
		},
		{
			name:  "WindowLongerThanRunNeverConverges",
			items: 10,
			bins:  3,
			setup: func(p *framework.Parameters) {
				p.ConvergenceWindow = 50
			},
			check: func(t *testing.T, result *framework.RunResult) {
				if result.Metadata.Converged {
					t.Error("run should not converge")
				}
				if result.Metadata.StopReason != framework.MaxIterations {
					t.Errorf("expected MaxIterations, got %v", result.Metadata.StopReason)
				}
				if result.Metadata.Iterations != 20 {
					t.Errorf("expected 20 iterations, got %d", result.Metadata.Iterations)
				}
			},
		},
		{
			name:  "LooseThresholdConverges",
			items: 10,
			bins:  3,
			setup: func(p *framework.Parameters) {
				p.ConvergenceWindow = 2
				p.ConvergenceThreshold = 10
			},
			check: func(t *testing.T, result *framework.RunResult) {
				if !result.Metadata.Converged || result.Metadata.StopReason != framework.Converged {
					t.Errorf("expected convergence, got %v", result.Metadata.StopReason)
				}
				if result.Metadata.Iterations != 2 {
					t.Errorf("expected to stop after 2 iterations, got %d", result.Metadata.Iterations)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ctx := ktesting.NewTestContext(t)
			p := smallParameters()
			if tc.setup != nil {
				tc.setup(&p)
			}

			result, err := algorithms.NewHippo(p, algorithms.WithClock(newFakeClock())).Run(ctx, tc.items, tc.bins)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			checkResult(t, result, tc.items, tc.bins)
			if len(result.Elite) == 0 || len(result.Elite) > p.EliteSize {
				t.Errorf("expected between 1 and %d elite candidates, got %d", p.EliteSize, len(result.Elite))
			}
			if result.Elite[0].Fitness != result.Best.Fitness {
				t.Errorf("elite head %v should equal the best fitness %v", result.Elite[0].Fitness, result.Best.Fitness)
			}
			tc.check(t, result)
		})
	}
}

func TestHippoRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		items int
		bins  int
		setup func(p *framework.Parameters)
	}{
		{name: "NoBins", items: 10, bins: 0},
		{name: "NoItems", items: 0, bins: 3},
		{name: "EmptyPopulation", items: 10, bins: 3, setup: func(p *framework.Parameters) { p.PopulationSize = 0 }},
		{name: "NegativeHMin", items: 10, bins: 3, setup: func(p *framework.Parameters) { p.HMin = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ctx := ktesting.NewTestContext(t)
			p := smallParameters()
			if tc.setup != nil {
				tc.setup(&p)
			}
			result, err := algorithms.NewHippo(p).Run(ctx, tc.items, tc.bins)
			if !framework.IsInvalidArgument(err) {
				t.Errorf("expected invalid argument, got %v", err)
			}
			if result != nil {
				t.Error("expected no result on invalid input")
			}
		})
	}
}

func TestHippoIsDeterministic(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	p := smallParameters()

	a, err := algorithms.NewHippo(p, algorithms.WithClock(newFakeClock())).Run(ctx, 30, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := algorithms.NewHippo(p, algorithms.WithClock(newFakeClock())).Run(ctx, 30, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(a.Best.Assignment, b.Best.Assignment); diff != "" {
		t.Errorf("best assignments differ (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.ConvergenceHistory, b.ConvergenceHistory); diff != "" {
		t.Errorf("convergence histories differ (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.DiversityHistory, b.DiversityHistory); diff != "" {
		t.Errorf("diversity histories differ (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.Metadata, b.Metadata); diff != "" {
		t.Errorf("metadata differs (-a +b):\n%s", diff)
	}
}

func TestHippoNeverWorseThanInitialPopulation(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	p := smallParameters()

	// Rebuild the initial population with the same generator sequence.
	rng := framework.NewRand(p.Seed)
	evaluator := objectives.NewEvaluator(rng, p.SLAThresholdOffset)
	initial := population.NewManager(p.RepairPolicy())
	if err := initial.Initialize(rng, 25, 5, p.PopulationSize); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range initial.Members() {
		evaluator.Evaluate(c, &p.Weights)
	}
	initial.UpdateBest()

	result, err := algorithms.NewHippo(p, algorithms.WithClock(newFakeClock())).Run(ctx, 25, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Best.Fitness > initial.CurrentBest().Fitness {
		t.Errorf("final best %v is worse than the initial best %v", result.Best.Fitness, initial.CurrentBest().Fitness)
	}
}

func TestHippoTimeout(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	p := smallParameters()
	p.Timeout = time.Second
	p.ConvergenceWindow = 50

	clk := &steppingClock{FakePassiveClock: newFakeClock(), step: 300 * time.Millisecond}
	result, err := algorithms.NewHippo(p, algorithms.WithClock(clk)).Run(ctx, 10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Metadata.StopReason != framework.Timeout {
		t.Errorf("expected Timeout, got %v", result.Metadata.StopReason)
	}
	// checks at 300ms, 600ms, 900ms pass and the fourth at 1.2s stops the run
	if result.Metadata.Iterations != 3 {
		t.Errorf("expected 3 iterations before the timeout, got %d", result.Metadata.Iterations)
	}
	if result.Metadata.Converged {
		t.Error("a timed out run must not report convergence")
	}
	checkResult(t, result, 10, 3)
}

func TestHippoCancelled(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	result, err := algorithms.NewHippo(smallParameters()).Run(ctx, 10, 3)
	if err != nil {
		t.Fatalf("cancellation should not be an error, got %v", err)
	}
	if result.Metadata.StopReason != framework.Cancelled {
		t.Errorf("expected Cancelled, got %v", result.Metadata.StopReason)
	}
	if result.Metadata.Iterations != 0 || result.Metadata.Evaluations != 0 {
		t.Errorf("expected no iterations, got %d iterations and %d evaluations",
			result.Metadata.Iterations, result.Metadata.Evaluations)
	}
	if result.Best == nil {
		t.Error("the best initial candidate should still be reported")
	}
}

type panickingRecorder struct{}

func (panickingRecorder) ObserveIteration(string, float64, float64) { panic("recorder exploded") }
func (panickingRecorder) ObserveRun(*framework.RunResult)           {}

func TestHippoRecoversPanics(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)

	result, err := algorithms.NewHippo(smallParameters(), algorithms.WithRecorder(panickingRecorder{})).Run(ctx, 10, 3)
	if result != nil {
		t.Error("expected no result after a failure")
	}
	var failure *framework.OptimizationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected an OptimizationFailure, got %v", err)
	}
	if failure.Algorithm != algorithms.HippoName || failure.Iteration != 0 {
		t.Errorf("unexpected failure details: %+v", failure)
	}
}

func TestOptimize(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	result, err := algorithms.Optimize(ctx, 12, 4, smallParameters())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkResult(t, result, 12, 4)
	if result.Metadata.Algorithm != algorithms.HippoName {
		t.Errorf("expected algorithm %q, got %q", algorithms.HippoName, result.Metadata.Algorithm)
	}
}
