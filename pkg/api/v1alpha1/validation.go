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
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/validation/field"
	"k8s.io/utils/ptr"

	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

// ValidateHippoConfiguration validates a defaulted configuration. All
// violations are reported at once, wrapped with framework.ErrInvalidArgument.
func ValidateHippoConfiguration(obj *HippoConfiguration) error {
	var allErrs field.ErrorList

	if obj.APIVersion != "" && obj.APIVersion != GroupVersion {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("apiVersion"), obj.APIVersion, []string{GroupVersion}))
	}
	if obj.Kind != "" && obj.Kind != Kind {
		allErrs = append(allErrs, field.NotSupported(field.NewPath("kind"), obj.Kind, []string{Kind}))
	}
	if obj.Items < 0 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("items"), obj.Items, "must be non-negative"))
	}
	if obj.Bins < 0 {
		allErrs = append(allErrs, field.Invalid(field.NewPath("bins"), obj.Bins, "must be non-negative"))
	}
	if obj.NSGAII != nil {
		allErrs = append(allErrs, validateNSGAII(field.NewPath("nsgaII"), obj.NSGAII)...)
	}

	errs := []error{}
	if len(allErrs) > 0 {
		errs = append(errs, allErrs.ToAggregate())
	}
	if err := obj.ToParameters().Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", framework.ErrInvalidArgument, utilerrors.NewAggregate(errs))
}

func validateNSGAII(path *field.Path, c *NSGAIIConfiguration) field.ErrorList {
	var allErrs field.ErrorList
	if _, ok := algorithms.Crossovers[c.Crossover]; c.Crossover != "" && !ok {
		allErrs = append(allErrs, field.NotSupported(path.Child("crossover"), c.Crossover, algorithms.CrossoverNames()))
	}
	if v := ptr.Deref(c.CrossoverProbability, DefaultCrossoverProbability); v < 0 || v > 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("crossoverProbability"), v, "must be between 0 and 1"))
	}
	if v := ptr.Deref(c.MutationProbability, 0); v < 0 || v > 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("mutationProbability"), v, "must be between 0 and 1"))
	}
	if v := ptr.Deref(c.TournamentSize, DefaultTournamentSize); v < 1 {
		allErrs = append(allErrs, field.Invalid(path.Child("tournamentSize"), v, "must be at least 1"))
	}
	return allErrs
}

// NSGA2Config derives the NSGA-II configuration that shares this
// configuration's budget, weights and seed.
func (c *HippoConfiguration) NSGA2Config() (algorithms.NSGA2Config, error) {
	config := algorithms.NSGA2ConfigFromParameters(c.ToParameters())
	if c.NSGAII == nil {
		return config, nil
	}
	crossover, err := algorithms.CrossoverByName(c.NSGAII.Crossover)
	if err != nil {
		return algorithms.NSGA2Config{}, err
	}
	config.Crossover = crossover
	config.CrossoverProbability = ptr.Deref(c.NSGAII.CrossoverProbability, config.CrossoverProbability)
	config.MutationProbability = ptr.Deref(c.NSGAII.MutationProbability, config.MutationProbability)
	config.TournamentSize = ptr.Deref(c.NSGAII.TournamentSize, config.TournamentSize)
	return config, nil
}
