package sla_test

import (
	"testing"

	"github.com/vmplacement/hosim/pkg/hippo/objectives/sla"
)

func TestSLAObjective(t *testing.T) {
	tests := []struct {
		name     string
		loads    []int
		items    int
		offset   int
		expected float64
	}{
		{name: "BelowThreshold", loads: []int{4, 3, 3}, items: 10, offset: 2, expected: 0},
		{name: "AtThreshold", loads: []int{5, 3, 2}, items: 10, offset: 2, expected: 0},
		{name: "OneOverloadedBin", loads: []int{7, 2, 1}, items: 10, offset: 2, expected: 0.7},
		{name: "ZeroOffset", loads: []int{4, 3, 3}, items: 10, offset: 0, expected: 0.4},
		{name: "NoItems", loads: []int{0, 0}, items: 0, offset: 2, expected: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := sla.SLAObjective(tc.loads, tc.items, tc.offset); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestThreshold(t *testing.T) {
	if got := sla.Threshold(10, 3, 2); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := sla.Threshold(4, 10, 2); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
