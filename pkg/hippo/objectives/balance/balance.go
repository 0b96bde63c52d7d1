package balance

import (
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/utilization"
)

// BalanceObjective is the complement of the utilization efficiency. It is
// combined as a benefit, so the weighted cost term is 1 - BalanceObjective.
func BalanceObjective(loads []int) float64 {
	return 1 - utilization.UtilizationObjective(loads)
}

// BalanceObjectiveFunc returns the cost term 1 - balance
func BalanceObjectiveFunc() framework.ObjectiveFunc {
	return func(c *framework.Candidate) float64 {
		return 1 - BalanceObjective(c.BinLoads())
	}
}
