package constraints

import (
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// BoundsConstraint checks that every item sits on an existing bin
func BoundsConstraint() framework.Constraint {
	return func(c *framework.Candidate) bool {
		for _, bin := range c.Assignment {
			if bin < 0 || bin >= c.BinCount() {
				return false
			}
		}
		return true
	}
}

// CapacityConstraint checks the soft per-bin item ceiling enforced by repair
func CapacityConstraint(ceiling int) framework.Constraint {
	return func(c *framework.Candidate) bool {
		for _, load := range c.BinLoads() {
			if load > ceiling {
				return false
			}
		}
		return true
	}
}

// ResourceConstraint creates a constraint function that checks host
// capacity for concrete VM and host descriptions
func ResourceConstraint(vms []framework.VMInfo, hosts []framework.HostInfo) framework.Constraint {
	return func(c *framework.Candidate) bool {
		if len(c.Assignment) != len(vms) {
			return false
		}

		hostResources := make([]struct {
			pes int
			ram float64
		}, len(hosts))

		for vmIdx, hostIdx := range c.Assignment {
			if hostIdx < 0 || hostIdx >= len(hosts) {
				return false // Invalid host index
			}
			hostResources[hostIdx].pes += vms[vmIdx].PEs
			hostResources[hostIdx].ram += vms[vmIdx].RAM
		}

		for hostIdx, host := range hosts {
			if hostResources[hostIdx].pes > host.PEs {
				return false
			}
			if hostResources[hostIdx].ram > host.RAM {
				return false
			}
		}

		return true
	}
}

// CombineConstraints combines multiple constraints into one
func CombineConstraints(constraints ...framework.Constraint) framework.Constraint {
	return func(c *framework.Candidate) bool {
		for _, constraint := range constraints {
			if !constraint(c) {
				return false
			}
		}
		return true
	}
}

// Satisfied reports whether c satisfies every constraint
func Satisfied(c *framework.Candidate, constraints []framework.Constraint) bool {
	return CombineConstraints(constraints...)(c)
}

// Default returns the constraints repair enforces for the given policy
func Default(policy framework.RepairPolicy) []framework.Constraint {
	ceiling := policy.CapacityCeiling
	if ceiling <= 0 {
		ceiling = framework.DefaultCapacityCeiling
	}
	return []framework.Constraint{
		BoundsConstraint(),
		CapacityConstraint(ceiling),
	}
}
