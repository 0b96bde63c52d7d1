package sla

import (
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// Threshold is the per-bin load above which every item on the bin counts as
// an SLA violation: floor(itemCount/binCount) + offset.
func Threshold(itemCount, binCount, offset int) int {
	if binCount <= 0 {
		return offset
	}
	return itemCount/binCount + offset
}

// SLAObjective returns the share of items sitting on overloaded bins.
func SLAObjective(loads []int, itemCount, offset int) float64 {
	if itemCount <= 0 {
		return 0
	}
	threshold := Threshold(itemCount, len(loads), offset)
	violations := 0
	for _, load := range loads {
		if load > threshold {
			violations += load
		}
	}
	return float64(violations) / float64(itemCount)
}

// SLAObjectiveFunc returns a function compatible with the optimization framework
func SLAObjectiveFunc(offset int) framework.ObjectiveFunc {
	return func(c *framework.Candidate) float64 {
		return SLAObjective(c.BinLoads(), c.ItemCount(), offset)
	}
}
