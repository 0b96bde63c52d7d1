package framework

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Objective names one component of the fitness function
type Objective string

const (
	ResourceUtilization Objective = "resourceUtilization"
	Power               Objective = "power"
	SLAViolations       Objective = "slaViolations"
	LoadBalance         Objective = "loadBalance"
	CommunicationCost   Objective = "communicationCost"
)

// Objectives lists the components in the order they are weighted and reported.
var Objectives = []Objective{ResourceUtilization, Power, SLAViolations, LoadBalance, CommunicationCost}

// ObjectiveBreakdown holds the raw component values of the last evaluation.
type ObjectiveBreakdown map[Objective]float64

// Candidate is one placement solution: Assignment[i] is the bin hosting item i.
type Candidate struct {
	Assignment []int
	Fitness    float64
	Objectives ObjectiveBreakdown

	// Valid and Violations are written by ValidateAndRepair
	Valid      bool
	Violations int

	binCount  int
	policy    RepairPolicy
	diversity float64
}

// NewCandidate returns an unevaluated candidate with every item on bin 0.
func NewCandidate(itemCount, binCount int, policy RepairPolicy) *Candidate {
	return &Candidate{
		Assignment: make([]int, itemCount),
		Fitness:    math.Inf(1),
		Objectives: ObjectiveBreakdown{},
		Valid:      true,
		binCount:   binCount,
		policy:     policy,
	}
}

// ItemCount is the length of the assignment vector.
func (c *Candidate) ItemCount() int { return len(c.Assignment) }

// BinCount is the number of bins the candidate places items into.
func (c *Candidate) BinCount() int { return c.binCount }

// Policy returns the repair policy the candidate was created with.
func (c *Candidate) Policy() RepairPolicy { return c.policy }

// Evaluated reports whether a fitness has been assigned.
func (c *Candidate) Evaluated() bool { return !math.IsInf(c.Fitness, 1) }

// InitializeSequential assigns item i to bin i mod binCount.
func (c *Candidate) InitializeSequential() {
	for i := range c.Assignment {
		c.Assignment[i] = i % c.binCount
	}
	c.ValidateAndRepair()
}

// InitializeBalanced fills bins with contiguous blocks. The first
// itemCount mod binCount bins take one extra item.
func (c *Candidate) InitializeBalanced() {
	itemCount := len(c.Assignment)
	base := itemCount / c.binCount
	extra := itemCount % c.binCount

	item := 0
	for bin := 0; bin < c.binCount && item < itemCount; bin++ {
		size := base
		if bin < extra {
			size++
		}
		for k := 0; k < size; k++ {
			c.Assignment[item] = bin
			item++
		}
	}
	c.ValidateAndRepair()
}

// InitializeRandom draws every slot uniformly from [0, binCount).
func (c *Candidate) InitializeRandom(rng Rand) {
	for i := range c.Assignment {
		c.Assignment[i] = rng.Intn(c.binCount)
	}
	c.ValidateAndRepair()
}

// SetAssignment replaces the assignment and repairs it.
func (c *Candidate) SetAssignment(assignment []int) error {
	if len(assignment) != len(c.Assignment) {
		return InvalidArgumentf("assignment length %d does not match item count %d", len(assignment), len(c.Assignment))
	}
	copy(c.Assignment, assignment)
	c.ValidateAndRepair()
	return nil
}

// BinLoads returns the number of items placed on each bin. Out-of-range
// indices are ignored.
func (c *Candidate) BinLoads() []int {
	return BinLoads(c.Assignment, c.binCount)
}

// BinLoads counts items per bin for an arbitrary assignment vector.
func BinLoads(assignment []int, binCount int) []int {
	loads := make([]int, binCount)
	for _, bin := range assignment {
		if bin >= 0 && bin < binCount {
			loads[bin]++
		}
	}
	return loads
}

// ActiveBins counts bins hosting at least one item.
func (c *Candidate) ActiveBins() int {
	active := 0
	for _, load := range c.BinLoads() {
		if load > 0 {
			active++
		}
	}
	return active
}

// DiversityContribution is the mean normalized Hamming distance between this
// candidate and the rest of its population at the last diversity measurement.
func (c *Candidate) DiversityContribution() float64 { return c.diversity }

// SetDiversityContribution is used by the diversity tracker.
func (c *Candidate) SetDiversityContribution(d float64) { c.diversity = d }

// QualityScore maps fitness into (0, 1], higher is better. Unevaluated
// candidates score 0.
func (c *Candidate) QualityScore() float64 {
	if !c.Evaluated() || c.Fitness < 0 {
		return 0
	}
	return 1 / (1 + c.Fitness)
}

// Clone returns a deep copy that shares nothing with c.
func (c *Candidate) Clone() *Candidate {
	objectives := make(ObjectiveBreakdown, len(c.Objectives))
	for k, v := range c.Objectives {
		objectives[k] = v
	}
	return &Candidate{
		Assignment: slices.Clone(c.Assignment),
		Fitness:    c.Fitness,
		Objectives: objectives,
		Valid:      c.Valid,
		Violations: c.Violations,
		binCount:   c.binCount,
		policy:     c.policy,
		diversity:  c.diversity,
	}
}

// Equal compares placements only; fitness and metadata are ignored.
func (c *Candidate) Equal(other *Candidate) bool {
	if c == nil || other == nil {
		return c == other
	}
	return slices.Equal(c.Assignment, other.Assignment)
}

// Hash is consistent with Equal.
func (c *Candidate) Hash() uint64 {
	return HashAssignment(c.Assignment)
}

// HashAssignment hashes an assignment vector.
func HashAssignment(assignment []int) uint64 {
	data := make([]byte, len(assignment)*8)
	for i, bin := range assignment {
		binary.BigEndian.PutUint64(data[i*8:], uint64(bin))
	}
	return xxhash.Sum64(data)
}

// HammingDistance is the fraction of slots in which a and b differ.
func HammingDistance(a, b []int) float64 {
	if len(a) == 0 {
		return 0
	}
	diff := 0
	for i := range a {
		if a[i] != b[i] {
			diff++
		}
	}
	return float64(diff) / float64(len(a))
}

func (c *Candidate) String() string {
	return fmt.Sprintf("%v fitness=%.6f valid=%t", c.Assignment, c.Fitness, c.Valid)
}
