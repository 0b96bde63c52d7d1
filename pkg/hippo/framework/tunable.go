package framework

import (
	"fmt"
	"math"
	"time"
)

// Tunable enumerates the parameters a sensitivity sweep may vary.
type Tunable int

const (
	TunablePopulationSize Tunable = iota
	TunableMaxIterations
	TunableConvergenceThreshold
	TunableConvergenceWindow
	TunableExplorationRate
	TunableBestPullRate
	TunableHMax
	TunableHMin
	TunableEliteSize
	TunableTimeoutSeconds
	TunableCapacityCeiling
	TunableSLAThresholdOffset
	TunableResourceWeight
	TunablePowerWeight
	TunableSLAWeight
	TunableLoadBalanceWeight
	TunableCommunicationWeight
)

type tunableSpec struct {
	name string
	set  func(p *Parameters, v float64) error
}

var tunables = map[Tunable]tunableSpec{
	TunablePopulationSize:       {"populationSize", setInt(func(p *Parameters, v int) { p.PopulationSize = v })},
	TunableMaxIterations:        {"maxIterations", setInt(func(p *Parameters, v int) { p.MaxIterations = v })},
	TunableConvergenceThreshold: {"convergenceThreshold", setFloat(func(p *Parameters, v float64) { p.ConvergenceThreshold = v })},
	TunableConvergenceWindow:    {"convergenceWindow", setInt(func(p *Parameters, v int) { p.ConvergenceWindow = v })},
	TunableExplorationRate:      {"explorationRate", setFloat(func(p *Parameters, v float64) { p.ExplorationRate = v })},
	TunableBestPullRate:         {"bestPullRate", setFloat(func(p *Parameters, v float64) { p.BestPullRate = v })},
	TunableHMax:                 {"hMax", setFloat(func(p *Parameters, v float64) { p.HMax = v })},
	TunableHMin:                 {"hMin", setFloat(func(p *Parameters, v float64) { p.HMin = v })},
	TunableEliteSize:            {"eliteSize", setInt(func(p *Parameters, v int) { p.EliteSize = v })},
	TunableTimeoutSeconds: {"timeoutSeconds", setFloat(func(p *Parameters, v float64) {
		p.Timeout = time.Duration(v * float64(time.Second))
	})},
	TunableCapacityCeiling:     {"capacityCeiling", setInt(func(p *Parameters, v int) { p.CapacityCeiling = v })},
	TunableSLAThresholdOffset:  {"slaThresholdOffset", setInt(func(p *Parameters, v int) { p.SLAThresholdOffset = v })},
	TunableResourceWeight:      {"resourceWeight", setWeight(ResourceUtilization)},
	TunablePowerWeight:         {"powerWeight", setWeight(Power)},
	TunableSLAWeight:           {"slaWeight", setWeight(SLAViolations)},
	TunableLoadBalanceWeight:   {"loadBalanceWeight", setWeight(LoadBalance)},
	TunableCommunicationWeight: {"communicationWeight", setWeight(CommunicationCost)},
}

func setInt(set func(*Parameters, int)) func(*Parameters, float64) error {
	return func(p *Parameters, v float64) error {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return fmt.Errorf("value %v is not an integer", v)
		}
		set(p, int(v))
		return nil
	}
}

func setFloat(set func(*Parameters, float64)) func(*Parameters, float64) error {
	return func(p *Parameters, v float64) error {
		if math.IsNaN(v) {
			return fmt.Errorf("value is NaN")
		}
		set(p, v)
		return nil
	}
}

func setWeight(o Objective) func(*Parameters, float64) error {
	return func(p *Parameters, v float64) error {
		return p.Weights.Set(o, v)
	}
}

// Tunables returns every tunable in declaration order.
func Tunables() []Tunable {
	all := make([]Tunable, 0, len(tunables))
	for t := TunablePopulationSize; t <= TunableCommunicationWeight; t++ {
		all = append(all, t)
	}
	return all
}

func (t Tunable) String() string {
	if spec, ok := tunables[t]; ok {
		return spec.name
	}
	return fmt.Sprintf("Tunable(%d)", int(t))
}

// ParseTunable resolves a tunable by its String name.
func ParseTunable(name string) (Tunable, error) {
	for t, spec := range tunables {
		if spec.name == name {
			return t, nil
		}
	}
	return 0, InvalidArgumentf("unknown tunable parameter %q", name)
}

// Apply sets one tunable on p. The result is not validated; use Sweep for
// validated parameter sets.
func Apply(p *Parameters, t Tunable, v float64) error {
	spec, ok := tunables[t]
	if !ok {
		return InvalidArgumentf("unknown tunable parameter %d", int(t))
	}
	if err := spec.set(p, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidArgument, spec.name, err)
	}
	return nil
}

// Sweep returns one copy of base per value with t set to that value. Every
// generated set must validate.
func Sweep(base Parameters, t Tunable, values []float64) ([]Parameters, error) {
	sweep := make([]Parameters, 0, len(values))
	for _, v := range values {
		p := base
		if err := Apply(&p, t, v); err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%v: %w", t, v, err)
		}
		sweep = append(sweep, p)
	}
	return sweep, nil
}
