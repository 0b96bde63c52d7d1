package baselines

import (
	"math"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/objectives"
)

// DefaultGreedyVectors is the number of weight vectors GreedyWeighted sweeps.
const DefaultGreedyVectors = 5

var (
	// consolidate favours few, evenly filled bins.
	consolidate = framework.ObjectiveWeights{ResourceUtilization: 0.5, Power: 0.5}
	// spread favours balanced bins below the SLA threshold.
	spread = framework.ObjectiveWeights{SLA: 0.5, LoadBalance: 0.5}
)

// GenerateWeightVectors interpolates count weight vectors from the
// consolidating to the spreading extreme. A single vector is the run's own
// weights.
func GenerateWeightVectors(count int, own framework.ObjectiveWeights) []framework.ObjectiveWeights {
	if count <= 1 {
		return []framework.ObjectiveWeights{own}
	}
	weights := make([]framework.ObjectiveWeights, count)
	for i := range weights {
		t := float64(i) / float64(count-1)
		weights[i] = framework.ObjectiveWeights{
			ResourceUtilization: (1-t)*consolidate.ResourceUtilization + t*spread.ResourceUtilization,
			Power:               (1-t)*consolidate.Power + t*spread.Power,
			SLA:                 (1-t)*consolidate.SLA + t*spread.SLA,
			LoadBalance:         (1-t)*consolidate.LoadBalance + t*spread.LoadBalance,
		}
	}
	return weights
}

// GreedyWeighted is a greedy constructive heuristic: for each weight vector
// it places items one at a time, in shuffled order, on the bin that
// minimizes the weighted load cost of the partial placement. Bins at the
// capacity ceiling are skipped while any bin has room. The run's own weights
// are always one of the vectors.
func GreedyWeighted(rng framework.Rand, itemCount, binCount int, p framework.Parameters) [][]int {
	vectors := append(GenerateWeightVectors(DefaultGreedyVectors, p.Weights), p.Weights)
	placements := make([][]int, 0, len(vectors))
	for _, w := range vectors {
		placements = append(placements, constructPlacement(rng, itemCount, binCount, p, w))
	}
	return placements
}

func constructPlacement(rng framework.Rand, itemCount, binCount int, p framework.Parameters, w framework.ObjectiveWeights) []int {
	assignment := make([]int, itemCount)
	loads := make([]int, binCount)

	// shuffle the placement order for diversity between vectors
	order := make([]int, itemCount)
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	for _, item := range order {
		bestBin := -1
		bestScore := math.Inf(1)
		saturated := true
		for b := range loads {
			if loads[b] < p.CapacityCeiling {
				saturated = false
				break
			}
		}

		for b := range loads {
			if !saturated && loads[b] >= p.CapacityCeiling {
				continue
			}

			// Temporarily place the item
			loads[b]++
			score := objectives.LoadCost(loads, itemCount, p.SLAThresholdOffset, w)
			loads[b]--

			if score < bestScore {
				bestScore = score
				bestBin = b
			}
		}

		assignment[item] = bestBin
		loads[bestBin]++
	}
	return assignment
}
