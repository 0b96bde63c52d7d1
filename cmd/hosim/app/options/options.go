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

// Package options provides the flags and environment settings of hosim.
package options

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	logsapi "k8s.io/component-base/logs/api/v1"
	"k8s.io/utils/ptr"

	"github.com/vmplacement/hosim/pkg/api/v1alpha1"
)

// EnvPrefix prefixes every environment variable read by hosim.
const EnvPrefix = "HOSIM_"

// Overrides are settings that replace configuration file values. Zero values
// keep what the file (or the defaults) say.
type Overrides struct {
	ConfigFile string        `env:"CONFIG"`
	Items      int           `env:"ITEMS"`
	Bins       int           `env:"BINS"`
	Seed       int64         `env:"SEED"`
	Population int           `env:"POPULATION"`
	Iterations int           `env:"ITERATIONS"`
	Timeout    time.Duration `env:"TIMEOUT"`

	ChartFile   string `env:"CHART"`
	MetricsFile string `env:"METRICS_FILE"`
	PlanFile    string `env:"PLAN_FILE"`

	OTLPEndpoint    string  `env:"OTLP_ENDPOINT"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1"`
}

// Options holds everything a hosim command needs before it starts.
type Options struct {
	Overrides
	Logs *logsapi.LoggingConfiguration
}

// NewOptions reads the HOSIM_ environment. Flags registered afterwards use
// the environment values as their defaults.
func NewOptions() (*Options, error) {
	o := &Options{Logs: logsapi.NewLoggingConfiguration()}
	if err := env.ParseWithOptions(&o.Overrides, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return o, nil
}

// AddFlags adds the problem and configuration flags shared by every
// command.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config", o.ConfigFile, "Path to a HippoConfiguration YAML file.")
	fs.IntVar(&o.Items, "items", o.Items, "Number of items (VMs) to place.")
	fs.IntVar(&o.Bins, "bins", o.Bins, "Number of bins (hosts).")
	fs.Int64Var(&o.Seed, "seed", o.Seed, "Seed of the run generator. Zero keeps the configured seed.")
	fs.IntVar(&o.Population, "population", o.Population, "Population size. Zero keeps the configured size.")
	fs.IntVar(&o.Iterations, "iterations", o.Iterations, "Maximum iterations. Zero keeps the configured budget.")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "Wall-clock limit of a run. Zero keeps the configured timeout.")
	fs.StringVar(&o.OTLPEndpoint, "otlp-endpoint", o.OTLPEndpoint, "OTLP gRPC endpoint for traces. Tracing is disabled when empty.")
	fs.Float64Var(&o.TraceSampleRate, "trace-sample-rate", o.TraceSampleRate, "Fraction of runs to trace.")
	logsapi.AddFlags(o.Logs, fs)
}

// AddOutputFlags adds the flags of commands that write artifacts.
func (o *Options) AddOutputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ChartFile, "chart", o.ChartFile, "Write a convergence chart to this HTML file.")
	fs.StringVar(&o.MetricsFile, "metrics-file", o.MetricsFile, "Write run metrics in Prometheus text format to this file.")
	fs.StringVar(&o.PlanFile, "plan-file", o.PlanFile, "Write the placement plan as YAML to this file.")
}

// Configuration loads the configuration file, or the defaults when none is
// set, and applies the overrides.
func (o *Options) Configuration() (*v1alpha1.HippoConfiguration, error) {
	var cfg *v1alpha1.HippoConfiguration
	if o.ConfigFile != "" {
		loaded, err := v1alpha1.Load(o.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = &v1alpha1.HippoConfiguration{}
		v1alpha1.SetDefaults_HippoConfiguration(cfg)
	}

	if o.Items != 0 {
		cfg.Items = o.Items
	}
	if o.Bins != 0 {
		cfg.Bins = o.Bins
	}
	if o.Seed != 0 {
		cfg.Seed = ptr.To(o.Seed)
	}
	if o.Population != 0 {
		cfg.PopulationSize = ptr.To(o.Population)
		// keep the elite archive within the population
		if ptr.Deref(cfg.EliteSize, 0) > o.Population {
			cfg.EliteSize = ptr.To(o.Population)
		}
	}
	if o.Iterations != 0 {
		cfg.MaxIterations = ptr.To(o.Iterations)
	}
	if o.Timeout != 0 {
		cfg.Timeout = &metav1.Duration{Duration: o.Timeout}
	}

	if err := v1alpha1.ValidateHippoConfiguration(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
