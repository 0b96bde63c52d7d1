package power

import (
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// PowerObjective is the fraction of bins hosting at least one item. Fewer
// active bins means more consolidation, so this is a cost.
func PowerObjective(loads []int) float64 {
	if len(loads) == 0 {
		return 0
	}
	active := 0
	for _, load := range loads {
		if load > 0 {
			active++
		}
	}
	return float64(active) / float64(len(loads))
}

// PowerObjectiveFunc returns a function compatible with the optimization framework
func PowerObjectiveFunc() framework.ObjectiveFunc {
	return func(c *framework.Candidate) float64 {
		return PowerObjective(c.BinLoads())
	}
}
