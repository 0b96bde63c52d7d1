// Package convergence records per-iteration best fitness and population
// diversity and decides when a run has stalled.
package convergence

import (
	"gonum.org/v1/gonum/floats"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// Tracker accumulates the histories of one run.
type Tracker struct {
	window    int
	threshold float64

	best      []float64
	diversity []float64
}

// NewTracker creates a tracker that declares convergence when the last
// window best-fitness values span less than threshold.
func NewTracker(window int, threshold float64) *Tracker {
	return &Tracker{
		window:    window,
		threshold: threshold,
	}
}

// Record appends one iteration's best fitness and diversity.
func (t *Tracker) Record(bestFitness, diversity float64) {
	t.best = append(t.best, bestFitness)
	t.diversity = append(t.diversity, diversity)
}

// Converged reports whether the last window entries of the best-fitness
// history vary by less than the threshold. It never fires before window
// entries exist.
func (t *Tracker) Converged() bool {
	if t.window < 1 || len(t.best) < t.window {
		return false
	}
	recent := t.best[len(t.best)-t.window:]
	return floats.Max(recent)-floats.Min(recent) < t.threshold
}

// Iterations is the number of recorded iterations.
func (t *Tracker) Iterations() int { return len(t.best) }

// BestHistory returns the recorded best fitness values.
func (t *Tracker) BestHistory() []float64 { return t.best }

// DiversityHistory returns the recorded diversity values.
func (t *Tracker) DiversityHistory() []float64 { return t.diversity }

// Diversity is the mean normalized Hamming distance over all pairs of the
// population, in [0, 1]. Populations with fewer than two members have zero
// diversity. Each member's DiversityContribution is updated to its mean
// distance to the others. Cost is O(N²·itemCount).
func Diversity(members []*framework.Candidate) float64 {
	n := len(members)
	if n < 2 {
		for _, c := range members {
			c.SetDiversityContribution(0)
		}
		return 0
	}

	contrib := make([]float64, n)
	total := 0.0
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := framework.HammingDistance(members[i].Assignment, members[j].Assignment)
			contrib[i] += d
			contrib[j] += d
			total += d
			pairs++
		}
	}
	for i, c := range members {
		c.SetDiversityContribution(contrib[i] / float64(n-1))
	}
	return total / float64(pairs)
}
