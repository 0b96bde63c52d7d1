// Package communication models inter-item traffic cost. No topology is
// modelled: the cost is a draw from the run's generator in [0, MaxCost).
package communication

import (
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// MaxCost is the exclusive upper bound of the communication cost.
const MaxCost = 0.1

// CommunicationObjective draws a fresh cost. Two evaluations of the same
// assignment generally differ.
func CommunicationObjective(rng framework.Rand) float64 {
	return rng.Float64() * MaxCost
}

// CommunicationObjectiveFunc returns a function compatible with the optimization framework
func CommunicationObjectiveFunc(rng framework.Rand) framework.ObjectiveFunc {
	return func(*framework.Candidate) float64 {
		return CommunicationObjective(rng)
	}
}
