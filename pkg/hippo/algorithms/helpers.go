package algorithms

import (
	"math"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// GetParetoFront extracts the cost vectors of the first non-dominated front
// of a population. Infeasible members are ignored.
func GetParetoFront(population []*NSGAIISolution) []framework.ObjectiveSpacePoint {
	feasible := make([]*NSGAIISolution, 0, len(population))
	for _, sol := range population {
		if len(sol.Value) > 0 && !math.IsInf(sol.Value[0], 1) {
			feasible = append(feasible, sol)
		}
	}
	if len(feasible) == 0 {
		return nil
	}

	fronts := NonDominatedSort(feasible)
	if len(fronts) == 0 || len(fronts[0]) == 0 {
		return nil
	}

	paretoFront := make([]framework.ObjectiveSpacePoint, len(fronts[0]))
	for i, sol := range fronts[0] {
		point := make(framework.ObjectiveSpacePoint, len(sol.Value))
		copy(point, sol.Value)
		paretoFront[i] = point
	}
	return paretoFront
}
