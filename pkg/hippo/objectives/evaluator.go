// Package objectives scores placement candidates. Each component lives in its
// own subpackage; the Evaluator combines them into a single fitness value to
// minimize.
package objectives

import (
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/balance"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/communication"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/power"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/sla"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/utilization"
)

// Evaluator computes the objective breakdown and weighted fitness of
// candidates. It draws the communication cost from the generator of the run
// that owns it, one draw per evaluation.
type Evaluator struct {
	rng       framework.Rand
	slaOffset int
}

// NewEvaluator creates an evaluator bound to a run's generator.
func NewEvaluator(rng framework.Rand, slaOffset int) *Evaluator {
	return &Evaluator{
		rng:       rng,
		slaOffset: slaOffset,
	}
}

// Breakdown computes all five components without touching the candidate.
func (e *Evaluator) Breakdown(c *framework.Candidate) framework.ObjectiveBreakdown {
	loads := c.BinLoads()
	return framework.ObjectiveBreakdown{
		framework.ResourceUtilization: utilization.UtilizationObjective(loads),
		framework.Power:               power.PowerObjective(loads),
		framework.SLAViolations:       sla.SLAObjective(loads, c.ItemCount(), e.slaOffset),
		framework.LoadBalance:         balance.BalanceObjective(loads),
		framework.CommunicationCost:   communication.CommunicationObjective(e.rng),
	}
}

// Evaluate writes the breakdown and fitness onto c and returns the fitness.
// A nil weights pointer uses the default weights.
func (e *Evaluator) Evaluate(c *framework.Candidate, weights *framework.ObjectiveWeights) float64 {
	w := framework.DefaultObjectiveWeights()
	if weights != nil {
		w = *weights
	}
	breakdown := e.Breakdown(c)
	c.Objectives = breakdown
	c.Fitness = Combine(breakdown, w)
	return c.Fitness
}

// Combine turns a breakdown into the scalar fitness:
//
//	w_res·(1−ru) + w_power·power + w_sla·sla + w_balance·(1−lb) + w_comm·comm
func Combine(b framework.ObjectiveBreakdown, w framework.ObjectiveWeights) float64 {
	costs := CostVector(b)
	fitness := 0.0
	for i, weight := range w.Slice() {
		fitness += weight * costs[i]
	}
	return fitness
}

// CostVector converts a breakdown into five minimization terms in
// framework.Objectives order.
func CostVector(b framework.ObjectiveBreakdown) framework.ObjectiveSpacePoint {
	return framework.ObjectiveSpacePoint{
		1 - b[framework.ResourceUtilization],
		b[framework.Power],
		b[framework.SLAViolations],
		1 - b[framework.LoadBalance],
		b[framework.CommunicationCost],
	}
}

// ObjectiveFuncs returns the five cost terms as independent objective
// functions, in framework.Objectives order.
func (e *Evaluator) ObjectiveFuncs() []framework.ObjectiveFunc {
	return []framework.ObjectiveFunc{
		utilization.UtilizationObjectiveFunc(),
		power.PowerObjectiveFunc(),
		sla.SLAObjectiveFunc(e.slaOffset),
		balance.BalanceObjectiveFunc(),
		communication.CommunicationObjectiveFunc(e.rng),
	}
}

// LoadCost is the weighted fitness of a load vector without the
// communication term. It draws nothing from the generator, so greedy
// constructors can score partial placements freely. Unplaced items count
// toward itemCount but toward no bin.
func LoadCost(loads []int, itemCount, slaOffset int, w framework.ObjectiveWeights) float64 {
	return w.ResourceUtilization*(1-utilization.UtilizationObjective(loads)) +
		w.Power*power.PowerObjective(loads) +
		w.SLA*sla.SLAObjective(loads, itemCount, slaOffset) +
		w.LoadBalance*(1-balance.BalanceObjective(loads))
}
