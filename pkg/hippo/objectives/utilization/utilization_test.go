package utilization_test

import (
	"math"
	"testing"

	"github.com/vmplacement/hosim/pkg/hippo/objectives/utilization"
)

func TestUtilizationObjective(t *testing.T) {
	scenarios := []struct {
		name        string
		loads       []int
		expected    float64
		activeBins  int
		description string
	}{
		{
			name:        "PerfectlyBalanced",
			loads:       []int{2, 2, 2},
			expected:    1.0,
			activeBins:  3,
			description: "Equal loads have zero variance",
		},
		{
			name:        "SingleOutlierBin",
			loads:       []int{4, 1, 1},
			expected:    1.0 / 3.0, // variance 2
			activeBins:  3,
			description: "One heavy bin raises the variance",
		},
		{
			name:        "EmptyBinsIgnored",
			loads:       []int{3, 0, 0, 3},
			expected:    1.0,
			activeBins:  2,
			description: "Only active bins enter the variance",
		},
		{
			name:        "NoActiveBins",
			loads:       []int{0, 0},
			expected:    0,
			activeBins:  0,
			description: "Nothing placed scores zero",
		},
	}

	for _, tc := range scenarios {
		t.Run(tc.name, func(t *testing.T) {
			got, result := utilization.UtilizationObjectiveWithDetails(tc.loads)
			t.Logf("%s: efficiency=%.4f variance=%.4f mean=%.2f", tc.description, got, result.Variance, result.MeanLoad)

			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("expected %.6f, got %.6f", tc.expected, got)
			}
			if result.ActiveBins != tc.activeBins {
				t.Errorf("expected %d active bins, got %d", tc.activeBins, result.ActiveBins)
			}
			if got < 0 || got > 1 {
				t.Errorf("efficiency out of [0,1]: %v", got)
			}
		})
	}
}
