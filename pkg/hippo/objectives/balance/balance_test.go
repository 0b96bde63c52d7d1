package balance_test

import (
	"math"
	"testing"

	"github.com/vmplacement/hosim/pkg/hippo/objectives/balance"
	"github.com/vmplacement/hosim/pkg/hippo/objectives/utilization"
)

func TestBalanceComplementsUtilization(t *testing.T) {
	for _, loads := range [][]int{{2, 2, 2}, {4, 1, 1}, {9, 0, 1}, {0, 0, 0}} {
		sum := balance.BalanceObjective(loads) + utilization.UtilizationObjective(loads)
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("loads %v: balance + utilization = %v, want 1", loads, sum)
		}
	}
}
