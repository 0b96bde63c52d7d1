package framework

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// weightTolerance bounds |sum(weights) - 1| after normalization.
const weightTolerance = 1e-3

// ObjectiveWeights are the five non-negative coefficients of the fitness
// function. They are rescaled to sum to 1 whenever one of them is set.
type ObjectiveWeights struct {
	ResourceUtilization float64 `json:"resourceUtilization"`
	Power               float64 `json:"power"`
	SLA                 float64 `json:"sla"`
	LoadBalance         float64 `json:"loadBalance"`
	Communication       float64 `json:"communication"`
}

// DefaultObjectiveWeights returns {0.3, 0.25, 0.25, 0.15, 0.05}.
func DefaultObjectiveWeights() ObjectiveWeights {
	return ObjectiveWeights{
		ResourceUtilization: 0.3,
		Power:               0.25,
		SLA:                 0.25,
		LoadBalance:         0.15,
		Communication:       0.05,
	}
}

// NewObjectiveWeights builds normalized weights. All-zero input yields the
// defaults.
func NewObjectiveWeights(resource, power, sla, balance, communication float64) (ObjectiveWeights, error) {
	w := ObjectiveWeights{
		ResourceUtilization: resource,
		Power:               power,
		SLA:                 sla,
		LoadBalance:         balance,
		Communication:       communication,
	}
	if err := w.checkNonNegative(); err != nil {
		return ObjectiveWeights{}, err
	}
	w.normalize()
	return w, nil
}

// Get returns the weight for one objective.
func (w ObjectiveWeights) Get(o Objective) float64 {
	switch o {
	case ResourceUtilization:
		return w.ResourceUtilization
	case Power:
		return w.Power
	case SLAViolations:
		return w.SLA
	case LoadBalance:
		return w.LoadBalance
	case CommunicationCost:
		return w.Communication
	}
	return 0
}

// Set assigns one weight and renormalizes all five.
func (w *ObjectiveWeights) Set(o Objective, value float64) error {
	if value < 0 || math.IsNaN(value) {
		return InvalidArgumentf("weight for %s must be non-negative, got %v", o, value)
	}
	switch o {
	case ResourceUtilization:
		w.ResourceUtilization = value
	case Power:
		w.Power = value
	case SLAViolations:
		w.SLA = value
	case LoadBalance:
		w.LoadBalance = value
	case CommunicationCost:
		w.Communication = value
	default:
		return InvalidArgumentf("unknown objective %q", o)
	}
	w.normalize()
	return nil
}

// Slice returns the weights in Objectives order.
func (w ObjectiveWeights) Slice() []float64 {
	return []float64{w.ResourceUtilization, w.Power, w.SLA, w.LoadBalance, w.Communication}
}

// Sum of the five weights.
func (w ObjectiveWeights) Sum() float64 {
	return floats.Sum(w.Slice())
}

// Normalized reports whether the weights sum to 1 within tolerance.
func (w ObjectiveWeights) Normalized() bool {
	return math.Abs(w.Sum()-1) <= weightTolerance
}

func (w *ObjectiveWeights) normalize() {
	sum := w.Sum()
	if sum == 0 {
		*w = DefaultObjectiveWeights()
		return
	}
	w.ResourceUtilization /= sum
	w.Power /= sum
	w.SLA /= sum
	w.LoadBalance /= sum
	w.Communication /= sum
}

func (w ObjectiveWeights) checkNonNegative() error {
	for i, v := range w.Slice() {
		if v < 0 || math.IsNaN(v) {
			return InvalidArgumentf("weight for %s must be non-negative, got %v", Objectives[i], v)
		}
	}
	return nil
}

func (w ObjectiveWeights) String() string {
	return fmt.Sprintf("res=%.3f power=%.3f sla=%.3f balance=%.3f comm=%.3f",
		w.ResourceUtilization, w.Power, w.SLA, w.LoadBalance, w.Communication)
}
