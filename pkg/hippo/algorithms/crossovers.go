package algorithms

import (
	"maps"
	"slices"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// CrossoverFunc recombines two assignment vectors of equal length.
type CrossoverFunc func(rng framework.Rand, parent1, parent2 []int) (child1, child2 []int)

// Standard Crossover Operators

// OnePointCrossover swaps the tails of both parents after a random cut point.
func OnePointCrossover(rng framework.Rand, p1, p2 []int) ([]int, []int) {
	child1 := make([]int, len(p1))
	child2 := make([]int, len(p2))

	point := rng.Intn(len(p1))

	for i := 0; i < point; i++ {
		child1[i] = p1[i]
		child2[i] = p2[i]
	}
	for i := point; i < len(p1); i++ {
		child1[i] = p2[i]
		child2[i] = p1[i]
	}

	return child1, child2
}

// TwoPointCrossover swaps the segment between two random cut points.
func TwoPointCrossover(rng framework.Rand, p1, p2 []int) ([]int, []int) {
	child1 := make([]int, len(p1))
	child2 := make([]int, len(p2))

	point1 := rng.Intn(len(p1))
	point2 := rng.Intn(len(p1))
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	for i := 0; i < len(p1); i++ {
		if i < point1 || i >= point2 {
			child1[i] = p1[i]
			child2[i] = p2[i]
		} else {
			child1[i] = p2[i]
			child2[i] = p1[i]
		}
	}

	return child1, child2
}

// UniformCrossover picks each slot from either parent with equal probability.
func UniformCrossover(rng framework.Rand, p1, p2 []int) ([]int, []int) {
	child1 := make([]int, len(p1))
	child2 := make([]int, len(p2))

	for i := range p1 {
		if rng.Float64() < 0.5 {
			child1[i] = p1[i]
			child2[i] = p2[i]
		} else {
			child1[i] = p2[i]
			child2[i] = p1[i]
		}
	}

	return child1, child2
}

// KPointCrossover returns a crossover alternating parents across k distinct
// random cut points. k is capped at len−1.
func KPointCrossover(k int) CrossoverFunc {
	return func(rng framework.Rand, p1, p2 []int) ([]int, []int) {
		n := len(p1)
		if n < 2 || k < 1 {
			return slices.Clone(p1), slices.Clone(p2)
		}
		k := min(k, n-1)

		child1 := make([]int, n)
		child2 := make([]int, n)

		points := make([]int, 0, k+2)
		points = append(points, 0)
		used := make(map[int]bool, k)
		for len(used) < k {
			point := 1 + rng.Intn(n-1)
			if used[point] {
				continue
			}
			used[point] = true
			points = append(points, point)
		}
		slices.Sort(points[1:])
		points = append(points, n)

		swap := false
		for i := 0; i < k+1; i++ {
			for j := points[i]; j < points[i+1]; j++ {
				if swap {
					child1[j] = p2[j]
					child2[j] = p1[j]
				} else {
					child1[j] = p1[j]
					child2[j] = p2[j]
				}
			}
			swap = !swap
		}

		return child1, child2
	}
}

// Placement-Specific Crossover Operators

// BinAwareCrossover keeps items that share a bin in the first parent
// together: each bin group is inherited as a unit from one parent.
func BinAwareCrossover(rng framework.Rand, p1, p2 []int) ([]int, []int) {
	child1 := make([]int, len(p1))
	child2 := make([]int, len(p2))

	// group items by their bin in p1, in first-seen bin order
	var order []int
	groups := make(map[int][]int)
	for item, bin := range p1 {
		if _, ok := groups[bin]; !ok {
			order = append(order, bin)
		}
		groups[bin] = append(groups[bin], item)
	}

	for _, bin := range order {
		items := groups[bin]
		if rng.Float64() < 0.5 {
			for _, item := range items {
				child1[item] = p1[item]
				child2[item] = p2[item]
			}
		} else {
			for _, item := range items {
				child1[item] = p2[item]
				child2[item] = p1[item]
			}
		}
	}

	return child1, child2
}

// Crossovers maps configuration names to crossover operators.
var Crossovers = map[string]CrossoverFunc{
	"onePoint": OnePointCrossover,
	"twoPoint": TwoPointCrossover,
	"uniform":  UniformCrossover,
	"kPoint":   KPointCrossover(3),
	"binAware": BinAwareCrossover,
}

// CrossoverByName resolves a configured operator. The empty name selects
// the constraint-aware uniform crossover built into NSGAII and returns nil.
func CrossoverByName(name string) (CrossoverFunc, error) {
	if name == "" {
		return nil, nil
	}
	fn, ok := Crossovers[name]
	if !ok {
		return nil, framework.InvalidArgumentf("unknown crossover %q", name)
	}
	return fn, nil
}

// CrossoverNames returns the configurable operator names in sorted order.
func CrossoverNames() []string {
	return slices.Sorted(maps.Keys(Crossovers))
}
