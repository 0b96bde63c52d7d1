// Package population owns the fixed-size set of candidates a run evolves and
// the best candidate seen so far.
package population

import (
	"sort"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// Manager holds the population of one run. It is not safe for concurrent use;
// each run owns its own Manager.
type Manager struct {
	policy  framework.RepairPolicy
	members []*framework.Candidate
	best    *framework.Candidate
}

// NewManager creates an empty manager whose candidates use policy for repair.
func NewManager(policy framework.RepairPolicy) *Manager {
	return &Manager{policy: policy}
}

// Initialize replaces the population with size fresh candidates: slot 0 is
// sequential, slot 1 balanced and every remaining slot random. Random slots
// draw from rng in slot order.
func (m *Manager) Initialize(rng framework.Rand, itemCount, binCount, size int) error {
	if err := framework.ValidateProblem(itemCount, binCount); err != nil {
		return err
	}
	if size < 1 {
		return framework.InvalidArgumentf("population size must be at least 1, got %d", size)
	}

	m.members = make([]*framework.Candidate, size)
	m.best = nil
	for i := range m.members {
		c := framework.NewCandidate(itemCount, binCount, m.policy)
		switch i {
		case 0:
			c.InitializeSequential()
		case 1:
			c.InitializeBalanced()
		default:
			c.InitializeRandom(rng)
		}
		m.members[i] = c
	}
	return nil
}

// Seed replaces the population with copies of the given candidates, for
// warm starts from baseline placements.
func (m *Manager) Seed(candidates []*framework.Candidate) {
	m.members = make([]*framework.Candidate, len(candidates))
	m.best = nil
	for i, c := range candidates {
		m.members[i] = c.Clone()
	}
}

// Members exposes the population slots. Callers mutate candidates in place
// but never resize the slice.
func (m *Manager) Members() []*framework.Candidate {
	return m.members
}

// Size is the fixed population size.
func (m *Manager) Size() int {
	return len(m.members)
}

// CurrentBest returns the stored global best, or nil before the first
// UpdateBest. The returned candidate is a snapshot owned by the manager and
// is never aliased by a population slot.
func (m *Manager) CurrentBest() *framework.Candidate {
	return m.best
}

// UpdateBest scans the population for its minimum-fitness member and stores
// a copy when it strictly improves on the current best. Ties keep the
// incumbent. It reports whether the best changed.
func (m *Manager) UpdateBest() bool {
	var candidate *framework.Candidate
	for _, c := range m.members {
		if candidate == nil || c.Fitness < candidate.Fitness {
			candidate = c
		}
	}
	if candidate == nil || !candidate.Evaluated() {
		return false
	}
	if m.best != nil && !(candidate.Fitness < m.best.Fitness) {
		return false
	}
	m.best = candidate.Clone()
	return true
}

// Elite returns copies of up to k distinct members with the lowest fitness.
// Candidates with identical placements are reported once.
func (m *Manager) Elite(k int) []*framework.Candidate {
	if k <= 0 {
		return nil
	}
	sorted := make([]*framework.Candidate, 0, len(m.members)+1)
	if m.best != nil {
		sorted = append(sorted, m.best)
	}
	sorted = append(sorted, m.members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Fitness < sorted[j].Fitness
	})

	seen := make(map[uint64][]*framework.Candidate)
	elite := make([]*framework.Candidate, 0, k)
	for _, c := range sorted {
		if len(elite) == k {
			break
		}
		h := c.Hash()
		duplicate := false
		for _, other := range seen[h] {
			if other.Equal(c) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		seen[h] = append(seen[h], c)
		elite = append(elite, c.Clone())
	}
	return elite
}
