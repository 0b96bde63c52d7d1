// Package baselines provides constructive placement heuristics that are
// scored with the same evaluator as the optimizers, so their results compare
// directly against a HO run.
package baselines

import (
	"context"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/convergence"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/objectives"
	"github.com/vmplacement/hosim/pkg/hippo/population"
)

const (
	FirstFitName     = "FirstFit"
	BestFitName      = "BestFit"
	LeastLoadedName  = "LeastLoaded"
	RoundRobinName   = "RoundRobin"
	RandomName       = "Random"
	GreedyWeightName = "GreedyWeighted"
)

// Heuristic builds candidate placements for a problem. Most heuristics
// return a single placement; GreedyWeighted returns one per weight vector.
type Heuristic func(rng framework.Rand, itemCount, binCount int, p framework.Parameters) [][]int

// Baseline runs a Heuristic once and reports its best placement.
type Baseline struct {
	name      string
	heuristic Heuristic
	params    framework.Parameters
	clock     clock.PassiveClock
}

var _ algorithms.Algorithm = &Baseline{}

// New creates a baseline named name.
func New(name string, h Heuristic, params framework.Parameters, c clock.PassiveClock) *Baseline {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Baseline{
		name:      name,
		heuristic: h,
		params:    params,
		clock:     c,
	}
}

// All returns every baseline configured with params.
func All(params framework.Parameters, c clock.PassiveClock) []algorithms.Algorithm {
	return []algorithms.Algorithm{
		New(FirstFitName, FirstFit, params, c),
		New(BestFitName, BestFit, params, c),
		New(LeastLoadedName, LeastLoaded, params, c),
		New(RoundRobinName, RoundRobin, params, c),
		New(RandomName, Random, params, c),
		New(GreedyWeightName, GreedyWeighted, params, c),
	}
}

func (b *Baseline) Name() string { return b.name }

// Run constructs the heuristic's placements, repairs and evaluates each, and
// reports the lowest-fitness one. The run counts as one converged iteration.
func (b *Baseline) Run(ctx context.Context, itemCount, binCount int) (*framework.RunResult, error) {
	if err := framework.ValidateProblem(itemCount, binCount); err != nil {
		return nil, err
	}
	if err := b.params.Validate(); err != nil {
		return nil, err
	}
	logger := klog.FromContext(ctx).WithValues("algorithm", b.name, "items", itemCount, "bins", binCount)

	start := b.clock.Now()
	rng := framework.NewRand(b.params.Seed)
	evaluator := objectives.NewEvaluator(rng, b.params.SLAThresholdOffset)
	policy := b.params.RepairPolicy()

	placements := b.heuristic(rng, itemCount, binCount, b.params)
	candidates := make([]*framework.Candidate, 0, len(placements))
	for _, assignment := range placements {
		c := framework.NewCandidate(itemCount, binCount, policy)
		if err := c.SetAssignment(assignment); err != nil {
			return nil, &framework.OptimizationFailure{Algorithm: b.name, Cause: err}
		}
		evaluator.Evaluate(c, &b.params.Weights)
		candidates = append(candidates, c)
	}

	pop := population.NewManager(policy)
	pop.Seed(candidates)
	pop.UpdateBest()
	best := pop.CurrentBest()
	diversity := convergence.Diversity(pop.Members())

	result := framework.NewRunResult(best, []float64{best.Fitness}, []float64{diversity}, pop.Elite(b.params.EliteSize), framework.RunMetadata{
		Algorithm:   b.name,
		ItemCount:   itemCount,
		BinCount:    binCount,
		Seed:        b.params.Seed,
		Iterations:  1,
		Evaluations: len(candidates),
		Duration:    b.clock.Since(start),
		Converged:   true,
		StopReason:  framework.Converged,
	})
	logger.V(2).Info("Baseline finished", "bestFitness", best.Fitness, "activeBins", best.ActiveBins(), "placements", len(candidates))
	return result, nil
}

// FirstFit places each item on the lowest-index bin below the capacity
// ceiling.
func FirstFit(_ framework.Rand, itemCount, binCount int, p framework.Parameters) [][]int {
	loads := make([]int, binCount)
	assignment := make([]int, itemCount)
	for i := range assignment {
		bin := 0
		for b := range loads {
			if loads[b] < p.CapacityCeiling {
				bin = b
				break
			}
		}
		assignment[i] = bin
		loads[bin]++
	}
	return [][]int{assignment}
}

// BestFit places each item on the fullest bin that still has room, opening
// the lowest-index empty bin when no used bin has room.
func BestFit(_ framework.Rand, itemCount, binCount int, p framework.Parameters) [][]int {
	loads := make([]int, binCount)
	assignment := make([]int, itemCount)
	for i := range assignment {
		bin := -1
		for b, load := range loads {
			if load == 0 || load >= p.CapacityCeiling {
				continue
			}
			if bin == -1 || load > loads[bin] {
				bin = b
			}
		}
		if bin == -1 {
			bin = leastLoaded(loads)
		}
		assignment[i] = bin
		loads[bin]++
	}
	return [][]int{assignment}
}

// LeastLoaded places each item on the bin with the fewest items.
func LeastLoaded(_ framework.Rand, itemCount, binCount int, _ framework.Parameters) [][]int {
	loads := make([]int, binCount)
	assignment := make([]int, itemCount)
	for i := range assignment {
		bin := leastLoaded(loads)
		assignment[i] = bin
		loads[bin]++
	}
	return [][]int{assignment}
}

// RoundRobin places item i on bin i mod binCount.
func RoundRobin(_ framework.Rand, itemCount, binCount int, _ framework.Parameters) [][]int {
	assignment := make([]int, itemCount)
	for i := range assignment {
		assignment[i] = i % binCount
	}
	return [][]int{assignment}
}

// Random places every item on a uniformly drawn bin.
func Random(rng framework.Rand, itemCount, binCount int, _ framework.Parameters) [][]int {
	assignment := make([]int, itemCount)
	for i := range assignment {
		assignment[i] = rng.Intn(binCount)
	}
	return [][]int{assignment}
}

func leastLoaded(loads []int) int {
	bin := 0
	for b, load := range loads {
		if load < loads[bin] {
			bin = b
		}
	}
	return bin
}
