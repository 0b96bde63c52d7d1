package framework_test

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

func TestValidateAndRepair(t *testing.T) {
	tests := []struct {
		name       string
		bins       int
		ceiling    int
		assignment []int
		expected   []int
		violations int
	}{
		{
			name:       "AlreadyValid",
			bins:       3,
			ceiling:    15,
			assignment: []int{0, 1, 2, 0},
			expected:   []int{0, 1, 2, 0},
			violations: 0,
		},
		{
			name:       "OutOfBoundsResetToIndexModBins",
			bins:       3,
			ceiling:    15,
			assignment: []int{7, -2, 2, 3},
			expected:   []int{0, 1, 2, 0},
			violations: 3,
		},
		{
			name:       "ExcessMovesEarliestItemsToLeastLoaded",
			bins:       3,
			ceiling:    2,
			assignment: []int{0, 0, 0, 0, 1},
			// item 0 goes to empty bin 2, then bins 1 and 2 tie and item 1 goes to bin 1
			expected:   []int{2, 1, 0, 0, 1},
			violations: 2,
		},
		{
			name:       "SaturatedBinsStayOverloaded",
			bins:       2,
			ceiling:    2,
			assignment: []int{0, 0, 0, 1, 1},
			expected:   []int{0, 0, 0, 1, 1},
			violations: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy := framework.RepairPolicy{CapacityCeiling: tc.ceiling}
			c := framework.NewCandidate(len(tc.assignment), tc.bins, policy)
			copy(c.Assignment, tc.assignment)
			c.ValidateAndRepair()

			if diff := cmp.Diff(tc.expected, c.Assignment); diff != "" {
				t.Errorf("unexpected assignment (-want +got):\n%s", diff)
			}
			if c.Violations != tc.violations {
				t.Errorf("expected %d violations, got %d", tc.violations, c.Violations)
			}
			if c.Valid != (tc.violations == 0) {
				t.Errorf("valid=%t does not match violations=%d", c.Valid, c.Violations)
			}
			for i, bin := range c.Assignment {
				if bin < 0 || bin >= tc.bins {
					t.Errorf("slot %d out of bounds after repair: %d", i, bin)
				}
			}
		})
	}
}

func TestRepairIsIdempotent(t *testing.T) {
	rng := framework.NewRand(7)
	policy := framework.RepairPolicy{CapacityCeiling: 6}

	for trial := 0; trial < 50; trial++ {
		c := framework.NewCandidate(20, 5, policy)
		for i := range c.Assignment {
			c.Assignment[i] = rng.Intn(12) - 3
		}
		c.ValidateAndRepair()
		once := slices.Clone(c.Assignment)

		c.ValidateAndRepair()
		if diff := cmp.Diff(once, c.Assignment); diff != "" {
			t.Fatalf("trial %d: second repair changed the assignment (-once +twice):\n%s", trial, diff)
		}
		if !c.Valid {
			t.Fatalf("trial %d: repaired candidate should report valid on second pass", trial)
		}
	}
}
