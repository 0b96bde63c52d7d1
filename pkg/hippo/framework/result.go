package framework

import (
	"math"
	"slices"
	"time"
)

// StopReason records why a run ended.
type StopReason int

const (
	Running StopReason = iota
	Converged
	MaxIterations
	Timeout
	Cancelled
)

func (r StopReason) String() string {
	switch r {
	case Running:
		return "Running"
	case Converged:
		return "Converged"
	case MaxIterations:
		return "MaxIterations"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// RunMetadata describes how a run executed.
type RunMetadata struct {
	Algorithm   string
	ItemCount   int
	BinCount    int
	Seed        int64
	Iterations  int
	Evaluations int
	Duration    time.Duration
	Converged   bool
	StopReason  StopReason
}

// RunResult is produced once when a run completes and is not modified
// afterwards. Every candidate it holds is a private copy.
type RunResult struct {
	Best               *Candidate
	ConvergenceHistory []float64
	DiversityHistory   []float64
	Elite              []*Candidate
	Metadata           RunMetadata
}

// NewRunResult copies best, elite and both histories.
func NewRunResult(best *Candidate, convergence, diversity []float64, elite []*Candidate, meta RunMetadata) *RunResult {
	eliteCopy := make([]*Candidate, len(elite))
	for i, c := range elite {
		eliteCopy[i] = c.Clone()
	}
	var bestCopy *Candidate
	if best != nil {
		bestCopy = best.Clone()
	}
	return &RunResult{
		Best:               bestCopy,
		ConvergenceHistory: slices.Clone(convergence),
		DiversityHistory:   slices.Clone(diversity),
		Elite:              eliteCopy,
		Metadata:           meta,
	}
}

// BestFitness returns the fitness of the best candidate, +Inf when absent.
func (r *RunResult) BestFitness() float64 {
	if r == nil || r.Best == nil {
		return math.Inf(1)
	}
	return r.Best.Fitness
}
