package framework

// DefaultCapacityCeiling is the number of items a bin may hold before the
// repair pass starts relocating its excess items.
const DefaultCapacityCeiling = 15

// RepairPolicy configures ValidateAndRepair.
type RepairPolicy struct {
	CapacityCeiling int
}

// DefaultRepairPolicy returns the policy used when none is configured.
func DefaultRepairPolicy() RepairPolicy {
	return RepairPolicy{CapacityCeiling: DefaultCapacityCeiling}
}

func (p RepairPolicy) ceiling() int {
	if p.CapacityCeiling <= 0 {
		return DefaultCapacityCeiling
	}
	return p.CapacityCeiling
}

// ValidateAndRepair enforces index bounds and the soft capacity ceiling in
// place. It never fails: the result is always in bounds, but when every bin
// is saturated some bins may stay above the ceiling. Calling it again on a
// repaired candidate leaves the assignment unchanged.
func (c *Candidate) ValidateAndRepair() {
	c.Violations = 0
	if c.binCount <= 0 {
		c.Valid = false
		return
	}

	// Bounds pass
	for i, bin := range c.Assignment {
		if bin < 0 || bin >= c.binCount {
			c.Assignment[i] = i % c.binCount
			c.Violations++
		}
	}

	// Capacity pass. Bins are visited in index order; the excess items of an
	// overloaded bin move, earliest item first, to whichever bin is least
	// loaded at the moment of the move.
	ceiling := c.policy.ceiling()
	loads := c.BinLoads()
	for bin := 0; bin < c.binCount; bin++ {
		if loads[bin] <= ceiling {
			continue
		}
		for i := 0; i < len(c.Assignment) && loads[bin] > ceiling; i++ {
			if c.Assignment[i] != bin {
				continue
			}
			target := leastLoaded(loads)
			if loads[target] >= ceiling {
				// every bin is saturated
				break
			}
			c.Assignment[i] = target
			loads[bin]--
			loads[target]++
			c.Violations++
		}
	}

	for _, load := range loads {
		if load > ceiling {
			c.Violations += load - ceiling
		}
	}

	c.Valid = c.Violations == 0
}

// leastLoaded returns the lowest-indexed bin with the minimum load.
func leastLoaded(loads []int) int {
	best := 0
	for i := 1; i < len(loads); i++ {
		if loads[i] < loads[best] {
			best = i
		}
	}
	return best
}
