package utilization

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// UtilizationResult contains the intermediate values of the utilization score
type UtilizationResult struct {
	ActiveBins int
	MeanLoad   float64
	Variance   float64
	Efficiency float64
}

// UtilizationObjective scores how evenly items spread over the active bins:
// 1/(1+variance) of the active-bin loads, capped at 1. Higher is better. No
// active bins scores 0.
func UtilizationObjective(loads []int) float64 {
	return calculateUtilization(loads).Efficiency
}

// UtilizationObjectiveWithDetails returns the score and its intermediate values
func UtilizationObjectiveWithDetails(loads []int) (float64, UtilizationResult) {
	result := calculateUtilization(loads)
	return result.Efficiency, result
}

// UtilizationObjectiveFunc returns the utilization cost (1 - efficiency) as a
// minimization objective
func UtilizationObjectiveFunc() framework.ObjectiveFunc {
	return func(c *framework.Candidate) float64 {
		return 1 - UtilizationObjective(c.BinLoads())
	}
}

func calculateUtilization(loads []int) UtilizationResult {
	active := make([]float64, 0, len(loads))
	for _, load := range loads {
		if load > 0 {
			active = append(active, float64(load))
		}
	}
	if len(active) == 0 {
		return UtilizationResult{}
	}

	mean, variance := stat.PopMeanVariance(active, nil)
	return UtilizationResult{
		ActiveBins: len(active),
		MeanLoad:   mean,
		Variance:   variance,
		Efficiency: math.Min(1, 1/(1+variance)),
	}
}
