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

// Package v1alpha1 holds the versioned configuration file format of hosim.
package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

const (
	GroupVersion = "hosim.vmplacement.io/v1alpha1"
	Kind         = "HippoConfiguration"
)

// HippoConfiguration configures an optimization run. Unset fields take the
// reference defaults.
type HippoConfiguration struct {
	metav1.TypeMeta `json:",inline"`

	// Items and Bins describe the problem. Zero leaves them to the command
	// line.
	Items int `json:"items,omitempty"`
	Bins  int `json:"bins,omitempty"`

	PopulationSize       *int     `json:"populationSize,omitempty"`
	MaxIterations        *int     `json:"maxIterations,omitempty"`
	ConvergenceThreshold *float64 `json:"convergenceThreshold,omitempty"`
	ConvergenceWindow    *int     `json:"convergenceWindow,omitempty"`

	ExplorationRate *float64 `json:"explorationRate,omitempty"`
	BestPullRate    *float64 `json:"bestPullRate,omitempty"`
	HMax            *float64 `json:"hMax,omitempty"`
	HMin            *float64 `json:"hMin,omitempty"`

	EliteSize *int `json:"eliteSize,omitempty"`

	// Weights are normalized to sum to 1 during defaulting.
	Weights *framework.ObjectiveWeights `json:"weights,omitempty"`

	Seed    *int64           `json:"seed,omitempty"`
	Timeout *metav1.Duration `json:"timeout,omitempty"`

	// CapacityCeiling is the maximum item count per bin enforced by repair.
	CapacityCeiling *int `json:"capacityCeiling,omitempty"`
	// SLAThresholdOffset is added to the mean load to get the SLA threshold.
	SLAThresholdOffset *int `json:"slaThresholdOffset,omitempty"`

	NSGAII *NSGAIIConfiguration `json:"nsgaII,omitempty"`
}

// NSGAIIConfiguration holds the settings that only the NSGA-II comparison
// optimizer uses.
type NSGAIIConfiguration struct {
	// Crossover names a crossover operator. Empty selects the constraint-aware
	// uniform crossover.
	Crossover            string   `json:"crossover,omitempty"`
	CrossoverProbability *float64 `json:"crossoverProbability,omitempty"`
	// MutationProbability of zero selects 1/items.
	MutationProbability *float64 `json:"mutationProbability,omitempty"`
	TournamentSize      *int     `json:"tournamentSize,omitempty"`
}
