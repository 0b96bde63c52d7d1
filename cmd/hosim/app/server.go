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

// Package app implements the hosim commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	logsapi "k8s.io/component-base/logs/api/v1"
	"k8s.io/klog/v2"

	"github.com/vmplacement/hosim/cmd/hosim/app/options"
	"github.com/vmplacement/hosim/pkg/api/v1alpha1"
	"github.com/vmplacement/hosim/pkg/tracing"
)

// NewHosimCommand creates the root command with all subcommands attached.
func NewHosimCommand(out io.Writer) *cobra.Command {
	o, err := options.NewOptions()
	if err != nil {
		klog.ErrorS(err, "unable to initialize options")
	}
	if o == nil {
		o = &options.Options{Logs: logsapi.NewLoggingConfiguration()}
	}

	cmd := &cobra.Command{
		Use:   "hosim",
		Short: "hosim places VMs on hosts with Hippopotamus Optimization",
		Long: `hosim searches for placements of VMs (items) on hosts (bins) that balance
utilization, power, SLA violations, load balance and communication cost.
It runs the Hippopotamus Optimization metaheuristic and compares it against
NSGA-II and simple placement heuristics.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logsapi.ValidateAndApply(o.Logs, nil); err != nil {
				return err
			}
			return nil
		},
	}
	cmd.SetOut(out)
	o.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRunCommand(o),
		newCompareCommand(o),
		newSweepCommand(o),
		newParetoCommand(o),
		NewVersionCommand(),
	)
	return cmd
}

// signalContext is cancelled on SIGINT or SIGTERM so that runs stop between
// iterations and still report their best placement.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// startTracing enables the OTLP exporter when an endpoint is configured and
// returns the function that flushes it.
func startTracing(ctx context.Context, o *options.Options) func() {
	if o.OTLPEndpoint == "" {
		return func() {}
	}
	if err := tracing.NewTracerProvider(ctx, o.OTLPEndpoint, tracing.DefaultServiceName, o.TraceSampleRate, true); err != nil {
		klog.FromContext(ctx).Error(err, "Tracing disabled")
		return func() {}
	}
	return func() { tracing.Shutdown(context.WithoutCancel(ctx)) }
}

// problemConfiguration loads the configuration and requires a problem size.
func problemConfiguration(o *options.Options) (*v1alpha1.HippoConfiguration, error) {
	cfg, err := o.Configuration()
	if err != nil {
		return nil, err
	}
	if cfg.Items <= 0 || cfg.Bins <= 0 {
		return nil, fmt.Errorf("--items and --bins (or items and bins in --config) must be positive, got %d and %d", cfg.Items, cfg.Bins)
	}
	return cfg, nil
}
