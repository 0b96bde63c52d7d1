package framework

import (
	"golang.org/x/exp/rand"
)

// Rand is the subset of a seeded generator the optimizer draws from. Every
// run owns exactly one and all draws go through it in a fixed order.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns the generator a run owns for the given seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(uint64(seed)))
}

// HostInfo describes a bin in the surrounding simulator
type HostInfo struct {
	Idx        int
	Name       string
	Datacenter string
	PEs        int     // processing elements
	MIPS       float64 // per PE
	RAM        float64 // in MB
	PowerIdle  float64 // watts
	PowerMax   float64 // watts
}

// VMInfo describes an item to place
type VMInfo struct {
	Idx  int
	Name string
	PEs  int
	MIPS float64
	RAM  float64
	// Host is the current host index, -1 when the VM is not placed yet
	Host int
}

// ObjectiveFunc scores one objective of a candidate; lower is better.
type ObjectiveFunc func(*Candidate) float64

// ObjectiveSpacePoint represents an N-dimensional point in the objective space.
type ObjectiveSpacePoint []float64

// Constraint returns true if the constraint is satisfied and false otherwise.
type Constraint func(*Candidate) bool
