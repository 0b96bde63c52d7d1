/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package adapter turns the bin indices of an optimization result back into
// the hosts and VMs of the surrounding simulator.
package adapter

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/constraints"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// HostPlacement lists the VMs assigned to one host.
type HostPlacement struct {
	Host string   `json:"host"`
	VMs  []string `json:"vms"`
	// UsedPEs and UsedRAM are the summed demands of the placed VMs.
	UsedPEs int     `json:"usedPEs"`
	UsedRAM float64 `json:"usedRAM"`
}

// Migration moves a VM off its current host.
type Migration struct {
	VM   string `json:"vm"`
	From string `json:"from"`
	To   string `json:"to"`
}

// PlacementPlan is the simulator-facing form of a run result.
type PlacementPlan struct {
	Name        string                       `json:"name"`
	Algorithm   string                       `json:"algorithm"`
	GeneratedAt time.Time                    `json:"generatedAt"`
	Fitness     float64                      `json:"fitness"`
	Objectives  framework.ObjectiveBreakdown `json:"objectives"`
	Hosts       []HostPlacement              `json:"hosts"`
	Migrations  []Migration                  `json:"migrations,omitempty"`
	// Feasible is false when a host's PEs or RAM are overcommitted.
	Feasible bool `json:"feasible"`
}

// GeneratePlanName generates a consistent name for a plan based on its
// placement.
func GeneratePlanName(best *framework.Candidate) string {
	return fmt.Sprintf("hosim-plan-%016x", best.Hash())
}

// ConvertRunResult maps the best assignment of result onto hosts and vms.
// Slot i of the assignment is vms[i]; bin j is hosts[j].
func ConvertRunResult(result *framework.RunResult, vms []framework.VMInfo, hosts []framework.HostInfo, now time.Time) (*PlacementPlan, error) {
	if result == nil || result.Best == nil {
		return nil, framework.InvalidArgumentf("result has no best candidate")
	}
	assignment := result.Best.Assignment
	if len(assignment) != len(vms) {
		return nil, framework.InvalidArgumentf("assignment has %d slots for %d VMs", len(assignment), len(vms))
	}
	if result.Best.BinCount() != len(hosts) {
		return nil, framework.InvalidArgumentf("result was computed for %d bins, got %d hosts", result.Best.BinCount(), len(hosts))
	}

	plan := &PlacementPlan{
		Name:        GeneratePlanName(result.Best),
		Algorithm:   result.Metadata.Algorithm,
		GeneratedAt: now,
		Fitness:     result.Best.Fitness,
		Objectives:  result.Best.Objectives,
		Hosts:       make([]HostPlacement, len(hosts)),
		Feasible:    constraints.ResourceConstraint(vms, hosts)(result.Best),
	}
	for i, host := range hosts {
		plan.Hosts[i].Host = host.Name
		plan.Hosts[i].VMs = []string{}
	}

	for vmIdx, hostIdx := range assignment {
		if hostIdx < 0 || hostIdx >= len(hosts) {
			return nil, framework.InvalidArgumentf("VM %s assigned to host index %d outside [0, %d)", vms[vmIdx].Name, hostIdx, len(hosts))
		}
		vm := vms[vmIdx]
		hp := &plan.Hosts[hostIdx]
		hp.VMs = append(hp.VMs, vm.Name)
		hp.UsedPEs += vm.PEs
		hp.UsedRAM += vm.RAM

		if vm.Host >= 0 && vm.Host < len(hosts) && vm.Host != hostIdx {
			plan.Migrations = append(plan.Migrations, Migration{
				VM:   vm.Name,
				From: hosts[vm.Host].Name,
				To:   hosts[hostIdx].Name,
			})
		}
	}
	return plan, nil
}

// Allocate runs alg for the given VMs and hosts and returns the resulting
// plan. It is the entry point a simulator's allocation policy calls.
func Allocate(ctx context.Context, alg algorithms.Algorithm, vms []framework.VMInfo, hosts []framework.HostInfo, now time.Time) (*PlacementPlan, error) {
	result, err := alg.Run(ctx, len(vms), len(hosts))
	if err != nil {
		return nil, fmt.Errorf("allocating %d VMs on %d hosts: %w", len(vms), len(hosts), err)
	}
	plan, err := ConvertRunResult(result, vms, hosts, now)
	if err != nil {
		return nil, err
	}

	logger := klog.FromContext(ctx)
	if !plan.Feasible {
		logger.Info("Warning: placement overcommits host resources", "plan", plan.Name)
	}
	logger.V(2).Info("Placement plan created", "plan", plan.Name, "algorithm", plan.Algorithm, "migrations", len(plan.Migrations))
	return plan, nil
}

// SyntheticFleet returns itemCount identical VMs and binCount identical
// hosts, for experiments that only have counts.
func SyntheticFleet(itemCount, binCount int) ([]framework.VMInfo, []framework.HostInfo) {
	vms := make([]framework.VMInfo, itemCount)
	for i := range vms {
		vms[i] = framework.VMInfo{Idx: i, Name: fmt.Sprintf("vm-%d", i), PEs: 1, MIPS: 1000, RAM: 512, Host: -1}
	}
	hosts := make([]framework.HostInfo, binCount)
	for i := range hosts {
		hosts[i] = framework.HostInfo{
			Idx:        i,
			Name:       fmt.Sprintf("host-%d", i),
			Datacenter: "dc-0",
			PEs:        framework.DefaultCapacityCeiling,
			MIPS:       1000,
			RAM:        512 * framework.DefaultCapacityCeiling,
			PowerIdle:  100,
			PowerMax:   250,
		}
	}
	return vms, hosts
}
