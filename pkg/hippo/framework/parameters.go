package framework

import (
	"fmt"
	"math"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

const (
	DefaultPopulationSize       = 30
	DefaultMaxIterations        = 100
	DefaultConvergenceThreshold = 1e-6
	DefaultConvergenceWindow    = 20
	DefaultExplorationRate      = 0.5
	DefaultBestPullRate         = 0.5
	DefaultHMax                 = 2.0
	DefaultHMin                 = 0.1
	DefaultEliteSize            = 5
	DefaultSeed                 = 42
	DefaultTimeout              = 5 * time.Minute
	DefaultSLAThresholdOffset   = 2
)

// Parameters configure one optimization run. They are validated once and
// treated as read-only for the duration of the run.
type Parameters struct {
	PopulationSize       int
	MaxIterations        int
	ConvergenceThreshold float64
	ConvergenceWindow    int

	// ExplorationRate is the probability of taking the exploration branch.
	ExplorationRate float64
	// BestPullRate is the probability, within exploration, of moving toward
	// the global best rather than a random peer.
	BestPullRate float64
	// HMax and HMin bound the decaying step coefficient H.
	HMax float64
	HMin float64

	EliteSize int
	Weights   ObjectiveWeights
	Seed      int64
	Timeout   time.Duration

	CapacityCeiling    int
	SLAThresholdOffset int
}

// DefaultParameters returns the reference configuration.
func DefaultParameters() Parameters {
	return Parameters{
		PopulationSize:       DefaultPopulationSize,
		MaxIterations:        DefaultMaxIterations,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		ConvergenceWindow:    DefaultConvergenceWindow,
		ExplorationRate:      DefaultExplorationRate,
		BestPullRate:         DefaultBestPullRate,
		HMax:                 DefaultHMax,
		HMin:                 DefaultHMin,
		EliteSize:            DefaultEliteSize,
		Weights:              DefaultObjectiveWeights(),
		Seed:                 DefaultSeed,
		Timeout:              DefaultTimeout,
		CapacityCeiling:      DefaultCapacityCeiling,
		SLAThresholdOffset:   DefaultSLAThresholdOffset,
	}
}

// RepairPolicy derives the repair policy for candidates of this run.
func (p Parameters) RepairPolicy() RepairPolicy {
	return RepairPolicy{CapacityCeiling: p.CapacityCeiling}
}

// Validate checks every range and returns all violations at once, wrapped
// with ErrInvalidArgument.
func (p Parameters) Validate() error {
	allErrs := p.validate(field.NewPath("parameters"))
	if len(allErrs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidArgument, allErrs.ToAggregate())
}

func (p Parameters) validate(path *field.Path) field.ErrorList {
	var allErrs field.ErrorList

	if p.PopulationSize < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("populationSize"), p.PopulationSize, "must be at least 1"))
	}
	if p.MaxIterations < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("maxIterations"), p.MaxIterations, "must be at least 1"))
	}
	if p.ConvergenceThreshold < 0 || math.IsNaN(p.ConvergenceThreshold) {
		allErrs = append(allErrs, field.Invalid(path.Child("convergenceThreshold"), p.ConvergenceThreshold, "must be non-negative"))
	}
	if p.ConvergenceWindow < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("convergenceWindow"), p.ConvergenceWindow, "must be at least 1"))
	}
	allErrs = append(allErrs, validateProbability(path.Child("explorationRate"), p.ExplorationRate)...)
	allErrs = append(allErrs, validateProbability(path.Child("bestPullRate"), p.BestPullRate)...)
	if !(p.HMin > 0) {
		allErrs = append(allErrs, field.Invalid(path.Child("hMin"), p.HMin, "must be positive"))
	}
	if p.HMax < p.HMin || math.IsNaN(p.HMax) {
		allErrs = append(allErrs, field.Invalid(path.Child("hMax"), p.HMax, fmt.Sprintf("must be at least hMin (%v)", p.HMin)))
	}
	if p.EliteSize < 0 || p.EliteSize > p.PopulationSize {
		allErrs = append(allErrs, field.Invalid(path.Child("eliteSize"), p.EliteSize,
			fmt.Sprintf("must be between 0 and populationSize (%d)", p.PopulationSize)))
	}
	if p.Timeout <= 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("timeout"), p.Timeout.String(), "must be positive"))
	}
	if p.CapacityCeiling < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("capacityCeiling"), p.CapacityCeiling, "must be at least 1"))
	}
	if p.SLAThresholdOffset < 0 {
		allErrs = append(allErrs, field.Invalid(path.Child("slaThresholdOffset"), p.SLAThresholdOffset, "must be non-negative"))
	}

	weightsPath := path.Child("weights")
	for i, w := range p.Weights.Slice() {
		if w < 0 || math.IsNaN(w) {
			allErrs = append(allErrs, field.Invalid(weightsPath.Child(string(Objectives[i])), w, "must be non-negative"))
		}
	}
	if !p.Weights.Normalized() {
		allErrs = append(allErrs, field.Invalid(weightsPath, p.Weights.Sum(), "weights must sum to 1.0"))
	}

	return allErrs
}

func validateProbability(path *field.Path, v float64) field.ErrorList {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return field.ErrorList{field.Invalid(path, v, "must be between 0 and 1")}
	}
	return nil
}

// ValidateProblem checks the item and bin counts of a run.
func ValidateProblem(itemCount, binCount int) error {
	if itemCount <= 0 {
		return InvalidArgumentf("itemCount must be positive, got %d", itemCount)
	}
	if binCount <= 0 {
		return InvalidArgumentf("binCount must be positive, got %d", binCount)
	}
	return nil
}
