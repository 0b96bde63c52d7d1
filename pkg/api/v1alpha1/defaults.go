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

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

const (
	DefaultCrossoverProbability = 0.9
	DefaultTournamentSize       = 2
)

func SetDefaults_HippoConfiguration(obj *HippoConfiguration) {
	klog.V(5).InfoS("Setting configuration defaults", "kind", Kind)

	if obj.APIVersion == "" {
		obj.APIVersion = GroupVersion
	}
	if obj.Kind == "" {
		obj.Kind = Kind
	}
	if obj.PopulationSize == nil {
		obj.PopulationSize = ptr.To(framework.DefaultPopulationSize)
	}
	if obj.MaxIterations == nil {
		obj.MaxIterations = ptr.To(framework.DefaultMaxIterations)
	}
	if obj.ConvergenceThreshold == nil {
		obj.ConvergenceThreshold = ptr.To(framework.DefaultConvergenceThreshold)
	}
	if obj.ConvergenceWindow == nil {
		obj.ConvergenceWindow = ptr.To(framework.DefaultConvergenceWindow)
	}
	if obj.ExplorationRate == nil {
		obj.ExplorationRate = ptr.To(framework.DefaultExplorationRate)
	}
	if obj.BestPullRate == nil {
		obj.BestPullRate = ptr.To(framework.DefaultBestPullRate)
	}
	if obj.HMax == nil {
		obj.HMax = ptr.To(framework.DefaultHMax)
	}
	if obj.HMin == nil {
		obj.HMin = ptr.To(framework.DefaultHMin)
	}
	if obj.EliteSize == nil {
		obj.EliteSize = ptr.To(framework.DefaultEliteSize)
	}
	if obj.Weights == nil {
		obj.Weights = ptr.To(framework.DefaultObjectiveWeights())
	} else if w, err := framework.NewObjectiveWeights(obj.Weights.ResourceUtilization, obj.Weights.Power,
		obj.Weights.SLA, obj.Weights.LoadBalance, obj.Weights.Communication); err == nil {
		// negative weights are left for validation to report
		obj.Weights = &w
	}
	if obj.Seed == nil {
		obj.Seed = ptr.To[int64](framework.DefaultSeed)
	}
	if obj.Timeout == nil {
		obj.Timeout = &metav1.Duration{Duration: framework.DefaultTimeout}
	}
	if obj.CapacityCeiling == nil {
		obj.CapacityCeiling = ptr.To(framework.DefaultCapacityCeiling)
	}
	if obj.SLAThresholdOffset == nil {
		obj.SLAThresholdOffset = ptr.To(framework.DefaultSLAThresholdOffset)
	}

	if obj.NSGAII == nil {
		obj.NSGAII = &NSGAIIConfiguration{}
	}
	if obj.NSGAII.CrossoverProbability == nil {
		obj.NSGAII.CrossoverProbability = ptr.To(DefaultCrossoverProbability)
	}
	if obj.NSGAII.MutationProbability == nil {
		obj.NSGAII.MutationProbability = ptr.To(0.0)
	}
	if obj.NSGAII.TournamentSize == nil {
		obj.NSGAII.TournamentSize = ptr.To(DefaultTournamentSize)
	}
}

// ToParameters converts the configuration into run parameters. Unset fields
// take the reference defaults.
func (c *HippoConfiguration) ToParameters() framework.Parameters {
	p := framework.DefaultParameters()
	p.PopulationSize = ptr.Deref(c.PopulationSize, p.PopulationSize)
	p.MaxIterations = ptr.Deref(c.MaxIterations, p.MaxIterations)
	p.ConvergenceThreshold = ptr.Deref(c.ConvergenceThreshold, p.ConvergenceThreshold)
	p.ConvergenceWindow = ptr.Deref(c.ConvergenceWindow, p.ConvergenceWindow)
	p.ExplorationRate = ptr.Deref(c.ExplorationRate, p.ExplorationRate)
	p.BestPullRate = ptr.Deref(c.BestPullRate, p.BestPullRate)
	p.HMax = ptr.Deref(c.HMax, p.HMax)
	p.HMin = ptr.Deref(c.HMin, p.HMin)
	p.EliteSize = ptr.Deref(c.EliteSize, p.EliteSize)
	p.Weights = ptr.Deref(c.Weights, p.Weights)
	p.Seed = ptr.Deref(c.Seed, p.Seed)
	if c.Timeout != nil {
		p.Timeout = c.Timeout.Duration
	}
	p.CapacityCeiling = ptr.Deref(c.CapacityCeiling, p.CapacityCeiling)
	p.SLAThresholdOffset = ptr.Deref(c.SLAThresholdOffset, p.SLAThresholdOffset)
	return p
}
