package algorithms

import (
	"math"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// Coefficients control the position-update rule.
type Coefficients struct {
	ExplorationRate float64
	BestPullRate    float64
	HMax            float64
	HMin            float64
}

// CoefficientsFromParameters extracts the update coefficients of a run.
func CoefficientsFromParameters(p framework.Parameters) Coefficients {
	return Coefficients{
		ExplorationRate: p.ExplorationRate,
		BestPullRate:    p.BestPullRate,
		HMax:            p.HMax,
		HMin:            p.HMin,
	}
}

// StepCoefficient is the decaying step size H at progress t in [0,1].
func StepCoefficient(t float64, c Coefficients) float64 {
	return math.Max(c.HMin, c.HMax*(1-t))
}

// UpdatePosition computes the next assignment of current. Each slot draws
// r1, r2 and r3 in that order:
//
//	r1 < ExplorationRate, r2 < BestPullRate:  cur + r3·H·(best − cur)
//	r1 < ExplorationRate, otherwise:          cur + r3·H·(peer − cur)
//	otherwise:                                best + r3·H·(2·r2 − 1)
//
// The value is truncated toward zero and clamped to [0, binCount−1]. A
// non-finite value is replaced by a uniformly drawn bin.
func UpdatePosition(rng framework.Rand, current, best, peer []int, binCount int, t float64, c Coefficients) []int {
	h := StepCoefficient(t, c)
	next := make([]int, len(current))
	for i, cur := range current {
		r1 := rng.Float64()
		r2 := rng.Float64()
		r3 := rng.Float64()

		x := float64(cur)
		var v float64
		switch {
		case r1 < c.ExplorationRate && r2 < c.BestPullRate:
			v = x + r3*h*(float64(best[i])-x)
		case r1 < c.ExplorationRate:
			v = x + r3*h*(float64(peer[i])-x)
		default:
			v = float64(best[i]) + r3*h*(2*r2-1)
		}

		if math.IsNaN(v) || math.IsInf(v, 0) {
			next[i] = rng.Intn(binCount)
			continue
		}
		next[i] = clamp(int(v), 0, binCount-1)
	}
	return next
}

// ApplyUpdate moves candidate toward best and peer, then repairs it.
func ApplyUpdate(rng framework.Rand, candidate, best, peer *framework.Candidate, t float64, c Coefficients) error {
	next := UpdatePosition(rng, candidate.Assignment, best.Assignment, peer.Assignment, candidate.BinCount(), t, c)
	return candidate.SetAssignment(next)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
