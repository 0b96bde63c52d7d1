package algorithms_test

import (
	"slices"
	"testing"

	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

func TestCrossoversPreserveGenes(t *testing.T) {
	p1 := []int{0, 0, 1, 1, 2, 2, 3, 3}
	p2 := []int{3, 2, 1, 0, 3, 2, 1, 0}

	for name, fn := range algorithms.Crossovers {
		t.Run(name, func(t *testing.T) {
			rng := framework.NewRand(1)
			for trial := 0; trial < 20; trial++ {
				c1, c2 := fn(rng, p1, p2)
				if len(c1) != len(p1) || len(c2) != len(p2) {
					t.Fatalf("children have wrong length: %d, %d", len(c1), len(c2))
				}
				for i := range p1 {
					fromParents := (c1[i] == p1[i] && c2[i] == p2[i]) || (c1[i] == p2[i] && c2[i] == p1[i])
					if !fromParents {
						t.Fatalf("slot %d: children (%d, %d) are not a swap of parents (%d, %d)", i, c1[i], c2[i], p1[i], p2[i])
					}
				}
			}
		})
	}
}

func TestBinAwareCrossoverKeepsGroups(t *testing.T) {
	p1 := []int{0, 0, 0, 1, 1, 1}
	p2 := []int{2, 3, 4, 5, 6, 7}
	rng := framework.NewRand(9)

	for trial := 0; trial < 20; trial++ {
		c1, _ := algorithms.BinAwareCrossover(rng, p1, p2)
		// items 0-2 share a bin in p1 and must come from the same parent
		fromP1 := c1[0] == p1[0]
		for item := 1; item < 3; item++ {
			if (c1[item] == p1[item]) != fromP1 {
				t.Fatalf("trial %d: group split in child %v", trial, c1)
			}
		}
	}
}

func TestKPointCrossoverShortVectors(t *testing.T) {
	c1, c2 := algorithms.KPointCrossover(3)(framework.NewRand(1), []int{4}, []int{5})
	if !slices.Equal(c1, []int{4}) || !slices.Equal(c2, []int{5}) {
		t.Errorf("single-slot parents should be copied, got %v %v", c1, c2)
	}
}

func TestCrossoverByName(t *testing.T) {
	if fn, err := algorithms.CrossoverByName(""); err != nil || fn != nil {
		t.Errorf("empty name should select the built-in operator, got %v", err)
	}
	if _, err := algorithms.CrossoverByName("bogus"); !framework.IsInvalidArgument(err) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}
