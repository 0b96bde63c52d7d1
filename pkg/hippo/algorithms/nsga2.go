package algorithms

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/vmplacement/hosim/pkg/hippo/constraints"
	"github.com/vmplacement/hosim/pkg/hippo/convergence"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/objectives"
	"github.com/vmplacement/hosim/pkg/hippo/population"
	"github.com/vmplacement/hosim/pkg/tracing"
)

const (
	NSGAIIName = "NSGA-II"
)

// NSGAIISolution wraps a candidate in the population
// with Rank and Distance fields. Value stores the cost vector of the
// candidate (this is used when comparing solutions).
type NSGAIISolution struct {
	Candidate *framework.Candidate
	Value     framework.ObjectiveSpacePoint

	Rank     int
	Distance float64
}

func NewNSGAIISolution(c *framework.Candidate, val framework.ObjectiveSpacePoint) *NSGAIISolution {
	return &NSGAIISolution{
		Candidate: c,
		Value:     val,
	}
}

// NonDominatedSort performs non-dominated sorting on the population
func NonDominatedSort(population []*NSGAIISolution) [][]*NSGAIISolution {
	var fronts [][]*NSGAIISolution
	dominated := make([][]int, len(population))
	domCount := make([]int, len(population))

	// Calculate domination for each individual
	for i := 0; i < len(population); i++ {
		for j := 0; j < len(population); j++ {
			if i != j {
				if Dominates(population[i], population[j]) {
					dominated[i] = append(dominated[i], j)
				} else if Dominates(population[j], population[i]) {
					domCount[i]++
				}
			}
		}
	}

	// Find first front
	currentFront := []*NSGAIISolution{}
	currentFrontIndices := []int{}
	for i := 0; i < len(population); i++ {
		if domCount[i] == 0 {
			population[i].Rank = 0
			currentFront = append(currentFront, population[i])
			currentFrontIndices = append(currentFrontIndices, i)
		}
	}
	fronts = append(fronts, currentFront)

	// Find subsequent fronts
	frontIndex := 0
	for len(currentFront) > 0 {
		nextFront := []*NSGAIISolution{}
		nextFrontIndices := []int{}
		for _, idx := range currentFrontIndices {
			for _, dominatedIdx := range dominated[idx] {
				domCount[dominatedIdx]--
				if domCount[dominatedIdx] == 0 {
					population[dominatedIdx].Rank = frontIndex + 1
					nextFront = append(nextFront, population[dominatedIdx])
					nextFrontIndices = append(nextFrontIndices, dominatedIdx)
				}
			}
		}
		frontIndex++
		if len(nextFront) > 0 {
			fronts = append(fronts, nextFront)
		}
		currentFront = nextFront
		currentFrontIndices = nextFrontIndices
	}

	return fronts
}

// Dominates checks if individual a dominates individual b
func Dominates(a, b *NSGAIISolution) bool {
	better := false
	for i := 0; i < len(a.Value); i++ {
		if a.Value[i] > b.Value[i] {
			return false
		}
		if a.Value[i] < b.Value[i] {
			better = true
		}
	}
	return better
}

// CrowdingDistance calculates crowding distance for individuals in a front
func CrowdingDistance(front []*NSGAIISolution) {
	if len(front) <= 2 {
		for i := range front {
			front[i].Distance = math.Inf(1)
		}
		return
	}

	numObjectives := len(front[0].Value)
	for i := range front {
		front[i].Distance = 0
	}

	for m := 0; m < numObjectives; m++ {
		// Sort by each objective
		sort.SliceStable(front, func(i, j int) bool {
			return front[i].Value[m] < front[j].Value[m]
		})

		// Set boundary points to infinity
		front[0].Distance = math.Inf(1)
		front[len(front)-1].Distance = math.Inf(1)

		objectiveRange := front[len(front)-1].Value[m] - front[0].Value[m]
		if objectiveRange == 0 || math.IsInf(objectiveRange, 0) || math.IsNaN(objectiveRange) {
			continue
		}

		// Calculate distance for intermediate points
		for i := 1; i < len(front)-1; i++ {
			front[i].Distance += (front[i+1].Value[m] - front[i-1].Value[m]) / objectiveRange
		}
	}
}

// TournamentSelect picks the best of tournamentSize random contestants by
// rank, then crowding distance.
func TournamentSelect(rng framework.Rand, population []*NSGAIISolution, tournamentSize int) *NSGAIISolution {
	if tournamentSize < 2 {
		tournamentSize = 2 // minimum tournament size
	}
	best := population[rng.Intn(len(population))]

	for i := 1; i < tournamentSize; i++ {
		contestant := population[rng.Intn(len(population))]
		if contestant.Rank < best.Rank || (contestant.Rank == best.Rank && contestant.Distance > best.Distance) {
			best = contestant
		}
	}

	return best
}

// NSGA2Config holds configuration parameters for NSGA-II
type NSGA2Config struct {
	PopulationSize       int
	MaxGenerations       int
	CrossoverProbability float64
	// MutationProbability is the per-slot mutation rate. Zero selects
	// 1/itemCount.
	MutationProbability float64
	TournamentSize      int
	// Crossover replaces the constraint-aware uniform crossover when set.
	Crossover CrossoverFunc

	Weights            framework.ObjectiveWeights
	Seed               int64
	EliteSize          int
	CapacityCeiling    int
	SLAThresholdOffset int
	Timeout            time.Duration
}

// NSGA2ConfigFromParameters derives an NSGA-II configuration that shares the
// population size, budget, weights, seed and repair policy of a HO run.
func NSGA2ConfigFromParameters(p framework.Parameters) NSGA2Config {
	return NSGA2Config{
		PopulationSize:       p.PopulationSize,
		MaxGenerations:       p.MaxIterations,
		CrossoverProbability: 0.9,
		TournamentSize:       2,
		Weights:              p.Weights,
		Seed:                 p.Seed,
		EliteSize:            p.EliteSize,
		CapacityCeiling:      p.CapacityCeiling,
		SLAThresholdOffset:   p.SLAThresholdOffset,
		Timeout:              p.Timeout,
	}
}

// Validate checks the configuration ranges.
func (c NSGA2Config) Validate() error {
	path := field.NewPath("nsga2")
	var allErrs field.ErrorList
	if c.PopulationSize < 2 {
		allErrs = append(allErrs, field.Invalid(path.Child("populationSize"), c.PopulationSize, "must be at least 2"))
	}
	if c.MaxGenerations < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("maxGenerations"), c.MaxGenerations, "must be at least 1"))
	}
	if c.CrossoverProbability < 0 || c.CrossoverProbability > 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("crossoverProbability"), c.CrossoverProbability, "must be between 0 and 1"))
	}
	if c.MutationProbability < 0 || c.MutationProbability > 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("mutationProbability"), c.MutationProbability, "must be between 0 and 1"))
	}
	if c.EliteSize < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("eliteSize"), c.EliteSize, "must be non-negative"))
	}
	if c.CapacityCeiling < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("capacityCeiling"), c.CapacityCeiling, "must be at least 1"))
	}
	if c.Timeout <= 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("timeout"), c.Timeout.String(), "must be positive"))
	}
	if !c.Weights.Normalized() {
		allErrs = append(allErrs, field.Invalid(path.Child("weights"), c.Weights.Sum(), "weights must sum to 1.0"))
	}
	if len(allErrs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", framework.ErrInvalidArgument, allErrs.ToAggregate())
}

// NSGAII searches the five-component cost vector for Pareto-optimal
// placements and reports the member with the lowest weighted fitness.
type NSGAII struct {
	runOptions
	config NSGA2Config
}

var _ Algorithm = &NSGAII{}

// NewNSGAII creates a new instance of NSGA-II with given parameters
func NewNSGAII(config NSGA2Config, opts ...Option) *NSGAII {
	return &NSGAII{
		runOptions: newRunOptions(opts),
		config:     config,
	}
}

func (n *NSGAII) Name() string { return NSGAIIName }

// nsga2Run is the state of one NSGA-II run.
type nsga2Run struct {
	config       NSGA2Config
	rng          framework.Rand
	evaluator    *objectives.Evaluator
	constraints  []framework.Constraint
	mutationRate float64
	best         *framework.Candidate
	evaluations  int
}

// evaluate scores c and returns its cost vector. Candidates violating a
// constraint get +Inf on every objective so evolution moves away from them.
func (r *nsga2Run) evaluate(c *framework.Candidate) *NSGAIISolution {
	r.evaluator.Evaluate(c, &r.config.Weights)
	value := objectives.CostVector(c.Objectives)
	if !constraints.Satisfied(c, r.constraints) {
		for i := range value {
			value[i] = math.Inf(1)
		}
	} else if r.best == nil || c.Fitness < r.best.Fitness {
		r.best = c.Clone()
	}
	return NewNSGAIISolution(c, value)
}

// Run executes NSGA-II and returns the best candidate by weighted fitness.
func (n *NSGAII) Run(ctx context.Context, itemCount, binCount int) (*framework.RunResult, error) {
	result, _, err := n.RunPareto(ctx, itemCount, binCount)
	return result, err
}

// RunPareto executes NSGA-II and also returns the final population, ranked.
func (n *NSGAII) RunPareto(ctx context.Context, itemCount, binCount int) (result *framework.RunResult, final []*NSGAIISolution, err error) {
	if err := framework.ValidateProblem(itemCount, binCount); err != nil {
		return nil, nil, err
	}
	if err := n.config.Validate(); err != nil {
		return nil, nil, err
	}

	cfg := n.config
	logger := n.loggerFor(ctx).WithValues("algorithm", NSGAIIName, "items", itemCount, "bins", binCount, "seed", cfg.Seed)
	ctx, span := tracing.Tracer().Start(ctx, "nsga2.Run", trace.WithAttributes(
		attribute.Int("items", itemCount),
		attribute.Int("bins", binCount),
		attribute.Int64("seed", cfg.Seed),
		attribute.Int("population", cfg.PopulationSize),
	))
	defer span.End()

	gen := 0
	defer func() {
		if r := recover(); r != nil {
			result, final = nil, nil
			err = framework.NewOptimizationFailure(NSGAIIName, gen, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error(err, "Optimization failed", "generation", gen)
		}
	}()

	policy := framework.RepairPolicy{CapacityCeiling: cfg.CapacityCeiling}
	rng := framework.NewRand(cfg.Seed)
	run := &nsga2Run{
		config:       cfg,
		rng:          rng,
		evaluator:    objectives.NewEvaluator(rng, cfg.SLAThresholdOffset),
		constraints:  constraints.Default(policy),
		mutationRate: cfg.MutationProbability,
	}
	if run.mutationRate == 0 {
		run.mutationRate = 1 / float64(itemCount)
	}

	logger.V(2).Info("Starting evolution",
		"population", cfg.PopulationSize,
		"generations", cfg.MaxGenerations,
		"crossoverRate", cfg.CrossoverProbability,
		"mutationRate", run.mutationRate,
		"tournamentSize", cfg.TournamentSize,
	)

	start := n.clock.Now()
	seeds := population.NewManager(policy)
	if err := seeds.Initialize(rng, itemCount, binCount, cfg.PopulationSize); err != nil {
		return nil, nil, err
	}
	pop := make([]*NSGAIISolution, 0, cfg.PopulationSize)
	for _, c := range seeds.Members() {
		pop = append(pop, run.evaluate(c))
	}
	for _, front := range NonDominatedSort(pop) {
		CrowdingDistance(front)
	}

	var bestHistory, diversityHistory []float64
	reason := framework.Running
	for gen = 0; gen < cfg.MaxGenerations; gen++ {
		if ctx.Err() != nil {
			reason = framework.Cancelled
			break
		}
		if n.clock.Since(start) >= cfg.Timeout {
			reason = framework.Timeout
			break
		}

		offspring := make([]*NSGAIISolution, cfg.PopulationSize)
		for i := 0; i < cfg.PopulationSize; i += 2 {
			run.generateOffspringPair(i, pop, offspring)
		}

		pop = selectSurvivors(append(pop, offspring...), cfg.PopulationSize)

		diversity := convergence.Diversity(candidatesOf(pop))
		bestFitness := math.Inf(1)
		if run.best != nil {
			bestFitness = run.best.Fitness
		}
		bestHistory = append(bestHistory, bestFitness)
		diversityHistory = append(diversityHistory, diversity)
		n.recorder.ObserveIteration(NSGAIIName, bestFitness, diversity)
		if gen%10 == 0 {
			logger.V(4).Info("Generation complete", "generation", gen, "bestFitness", bestFitness, "diversity", diversity)
		}
	}
	if reason == framework.Running {
		reason = framework.MaxIterations
	}

	// the elite draws from the feasible final members plus the best ever
	// seen, which crowding may have dropped
	archive := population.NewManager(policy)
	var members []*framework.Candidate
	for _, s := range pop {
		if !math.IsInf(s.Value[0], 1) {
			members = append(members, s.Candidate)
		}
	}
	if run.best != nil {
		members = append(members, run.best)
	}
	archive.Seed(members)
	archive.UpdateBest()

	result = framework.NewRunResult(run.best, bestHistory, diversityHistory, archive.Elite(cfg.EliteSize), framework.RunMetadata{
		Algorithm:   NSGAIIName,
		ItemCount:   itemCount,
		BinCount:    binCount,
		Seed:        cfg.Seed,
		Iterations:  len(bestHistory),
		Evaluations: run.evaluations,
		Duration:    n.clock.Since(start),
		StopReason:  reason,
	})
	n.recorder.ObserveRun(result)

	span.SetAttributes(
		attribute.Float64("bestFitness", result.BestFitness()),
		attribute.Int("iterations", result.Metadata.Iterations),
		attribute.String("stopReason", reason.String()),
	)
	logger.Info("Optimization finished",
		"stopReason", reason,
		"generations", result.Metadata.Iterations,
		"evaluations", run.evaluations,
		"bestFitness", result.BestFitness(),
		"paretoFront", len(NonDominatedSort(pop)[0]),
		"duration", result.Metadata.Duration,
	)
	return result, pop, nil
}

// selectSurvivors keeps whole fronts while they fit and fills the remainder
// from the next front by descending crowding distance.
func selectSurvivors(combined []*NSGAIISolution, size int) []*NSGAIISolution {
	fronts := NonDominatedSort(combined)

	next := make([]*NSGAIISolution, 0, size)
	frontIndex := 0
	for frontIndex < len(fronts) && len(next)+len(fronts[frontIndex]) <= size {
		CrowdingDistance(fronts[frontIndex])
		next = append(next, fronts[frontIndex]...)
		frontIndex++
	}

	if len(next) < size && frontIndex < len(fronts) {
		front := fronts[frontIndex]
		CrowdingDistance(front)
		sort.SliceStable(front, func(i, j int) bool {
			return front[i].Distance > front[j].Distance
		})
		next = append(next, front[:size-len(next)]...)
	}
	return next
}

func candidatesOf(pop []*NSGAIISolution) []*framework.Candidate {
	out := make([]*framework.Candidate, len(pop))
	for i, s := range pop {
		out[i] = s.Candidate
	}
	return out
}

// smartMutate performs constraint-aware mutation: a mutated slot only moves
// to a bin that keeps every constraint satisfied.
func (r *nsga2Run) smartMutate(c *framework.Candidate) {
	binCount := c.BinCount()
	if binCount < 2 {
		return
	}

	for i := range c.Assignment {
		if r.rng.Float64() >= r.mutationRate {
			continue
		}
		original := c.Assignment[i]

		// Try random bins until we find a valid one (early exit optimization)
		found := false
		for attempt := 0; attempt < binCount; attempt++ {
			target := r.rng.Intn(binCount - 1)
			if target >= original {
				target++
			}
			c.Assignment[i] = target
			if constraints.Satisfied(c, r.constraints) {
				found = true
				break
			}
		}

		if !found {
			c.Assignment[i] = original
		}
	}
}

// smartCrossover performs constraint-aware crossover: a slot swap is kept
// only if both children remain valid. A configured CrossoverFunc replaces
// the swap loop and its children are repaired instead.
func (r *nsga2Run) smartCrossover(parent1, parent2 *framework.Candidate) (*framework.Candidate, *framework.Candidate) {
	child1 := parent1.Clone()
	child2 := parent2.Clone()

	// If crossover should not happen, return clones
	if r.rng.Float64() >= r.config.CrossoverProbability {
		return child1, child2
	}

	if r.config.Crossover != nil {
		a, b := r.config.Crossover(r.rng, parent1.Assignment, parent2.Assignment)
		copy(child1.Assignment, a)
		copy(child2.Assignment, b)
		child1.ValidateAndRepair()
		child2.ValidateAndRepair()
		return child1, child2
	}

	for i := range child1.Assignment {
		if r.rng.Float64() >= 0.5 {
			continue
		}
		orig1 := child1.Assignment[i]
		orig2 := child2.Assignment[i]
		if orig1 == orig2 {
			continue
		}

		child1.Assignment[i] = orig2
		child2.Assignment[i] = orig1

		// evaluate both children before deciding
		valid1 := constraints.Satisfied(child1, r.constraints)
		valid2 := constraints.Satisfied(child2, r.constraints)
		if !valid1 || !valid2 {
			child1.Assignment[i] = orig1
			child2.Assignment[i] = orig2
		}
	}

	return child1, child2
}

// generateOffspringPair fills offspring[i] and offspring[i+1] from two
// tournament-selected parents.
func (r *nsga2Run) generateOffspringPair(i int, pop, offspring []*NSGAIISolution) {
	parent1 := TournamentSelect(r.rng, pop, r.config.TournamentSize)
	parent2 := TournamentSelect(r.rng, pop, r.config.TournamentSize)

	child1, child2 := r.smartCrossover(parent1.Candidate, parent2.Candidate)
	r.smartMutate(child1)
	r.smartMutate(child2)
	child1.ValidateAndRepair()
	child2.ValidateAndRepair()

	offspring[i] = r.evaluate(child1)
	r.evaluations++

	if i+1 < len(offspring) {
		offspring[i+1] = r.evaluate(child2)
		r.evaluations++
	}
}
