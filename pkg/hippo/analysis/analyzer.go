// Package analysis evaluates named placements side by side, ranks them by
// weighted fitness and shows how the ranking moves when one weight changes.
package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/objectives"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/balance"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/communication"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/power"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/sla"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/utilization"
)

// Placement is a named assignment to analyze.
type Placement struct {
	Name       string
	Assignment []int
}

// ComponentBreakdown holds one objective of a placement.
type ComponentBreakdown struct {
	// Raw is the objective score as computed by its component.
	Raw float64
	// Cost is the minimization term derived from Raw.
	Cost float64
	// Weighted is Cost times the objective weight.
	Weighted float64
}

// PlacementResult is the analysis of one placement.
type PlacementResult struct {
	Name          string
	Assignment    []int
	Loads         []int
	ActiveBins    int
	LoadStdDev    float64
	Movements     int
	Components    map[framework.Objective]ComponentBreakdown
	WeightedTotal float64
}

// Analyzer scores placements for a fixed bin count. The communication term
// is noise in the optimizers; the analyzer uses its expected value so that
// rankings are reproducible.
type Analyzer struct {
	binCount  int
	params    framework.Parameters
	reference []int
}

// NewAnalyzer creates an analyzer for placements over binCount bins. When
// reference is non-nil, each result counts the items placed differently
// from it.
func NewAnalyzer(binCount int, params framework.Parameters, reference []int) (*Analyzer, error) {
	if binCount <= 0 {
		return nil, framework.InvalidArgumentf("binCount must be positive, got %d", binCount)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{
		binCount:  binCount,
		params:    params,
		reference: reference,
	}, nil
}

// Analyze scores a single placement with the analyzer's weights.
func (a *Analyzer) Analyze(p Placement) (PlacementResult, error) {
	return a.analyze(p, a.params.Weights)
}

func (a *Analyzer) analyze(p Placement, w framework.ObjectiveWeights) (PlacementResult, error) {
	if len(p.Assignment) == 0 {
		return PlacementResult{}, framework.InvalidArgumentf("placement %q is empty", p.Name)
	}
	for i, bin := range p.Assignment {
		if bin < 0 || bin >= a.binCount {
			return PlacementResult{}, framework.InvalidArgumentf("placement %q: slot %d holds bin %d outside [0, %d)", p.Name, i, bin, a.binCount)
		}
	}
	if a.reference != nil && len(a.reference) != len(p.Assignment) {
		return PlacementResult{}, framework.InvalidArgumentf("placement %q has %d items, reference has %d", p.Name, len(p.Assignment), len(a.reference))
	}

	loads := framework.BinLoads(p.Assignment, a.binCount)
	breakdown := framework.ObjectiveBreakdown{
		framework.ResourceUtilization: utilization.UtilizationObjective(loads),
		framework.Power:               power.PowerObjective(loads),
		framework.SLAViolations:       sla.SLAObjective(loads, len(p.Assignment), a.params.SLAThresholdOffset),
		framework.LoadBalance:         balance.BalanceObjective(loads),
		framework.CommunicationCost:   communication.MaxCost / 2,
	}
	costs := objectives.CostVector(breakdown)
	weights := w.Slice()

	result := PlacementResult{
		Name:       p.Name,
		Assignment: p.Assignment,
		Loads:      loads,
		Components: make(map[framework.Objective]ComponentBreakdown, len(framework.Objectives)),
	}
	for i, o := range framework.Objectives {
		result.Components[o] = ComponentBreakdown{
			Raw:      breakdown[o],
			Cost:     costs[i],
			Weighted: costs[i] * weights[i],
		}
		result.WeightedTotal += costs[i] * weights[i]
	}

	fl := make([]float64, len(loads))
	for i, load := range loads {
		if load > 0 {
			result.ActiveBins++
		}
		fl[i] = float64(load)
	}
	_, variance := stat.PopMeanVariance(fl, nil)
	result.LoadStdDev = math.Sqrt(variance)

	for i, bin := range a.reference {
		if p.Assignment[i] != bin {
			result.Movements++
		}
	}
	return result, nil
}

// AnalyzeAll scores every placement.
func (a *Analyzer) AnalyzeAll(placements []Placement) ([]PlacementResult, error) {
	return a.analyzeAll(placements, a.params.Weights)
}

func (a *Analyzer) analyzeAll(placements []Placement, w framework.ObjectiveWeights) ([]PlacementResult, error) {
	results := make([]PlacementResult, 0, len(placements))
	for _, p := range placements {
		r, err := a.analyze(p, w)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Rank returns the results ordered by weighted total, lowest first. Ties
// keep their input order.
func Rank(results []PlacementResult) []PlacementResult {
	sorted := make([]PlacementResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].WeightedTotal < sorted[j].WeightedTotal
	})
	return sorted
}

// Sensitivity is the ranking under one point of a weight sweep.
type Sensitivity struct {
	Value   float64
	Weights framework.ObjectiveWeights
	Ranking []PlacementResult
}

// Winner is the top-ranked placement.
func (s Sensitivity) Winner() PlacementResult {
	return s.Ranking[0]
}

// SensitivitySweep re-ranks the placements for each value of a tunable. Only
// weight tunables change the ranking; other tunables are accepted and leave
// it unchanged.
func (a *Analyzer) SensitivitySweep(placements []Placement, t framework.Tunable, values []float64) ([]Sensitivity, error) {
	if len(placements) == 0 {
		return nil, framework.InvalidArgumentf("no placements to analyze")
	}
	sweep, err := framework.Sweep(a.params, t, values)
	if err != nil {
		return nil, err
	}

	out := make([]Sensitivity, 0, len(sweep))
	for i, p := range sweep {
		results, err := a.analyzeAll(placements, p.Weights)
		if err != nil {
			return nil, err
		}
		out = append(out, Sensitivity{
			Value:   values[i],
			Weights: p.Weights,
			Ranking: Rank(results),
		})
	}
	return out, nil
}

// WriteReport prints a ranked summary of results to w.
func WriteReport(w io.Writer, results []PlacementResult) error {
	for i, r := range Rank(results) {
		if _, err := fmt.Fprintf(w, "%d. %s: weighted=%.4f activeBins=%d loadStdDev=%.2f moves=%d\n",
			i+1, r.Name, r.WeightedTotal, r.ActiveBins, r.LoadStdDev, r.Movements); err != nil {
			return err
		}
		for _, o := range framework.Objectives {
			c := r.Components[o]
			if _, err := fmt.Fprintf(w, "   %-20s raw=%.4f cost=%.4f weighted=%.4f\n", o, c.Raw, c.Cost, c.Weighted); err != nil {
				return err
			}
		}
	}
	return nil
}
