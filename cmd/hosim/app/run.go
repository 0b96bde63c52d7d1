package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/vmplacement/hosim/cmd/hosim/app/options"
	"github.com/vmplacement/hosim/pkg/hippo/adapter"
	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/util"
	"github.com/vmplacement/hosim/pkg/metrics"
)

func newRunCommand(o *options.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run Hippopotamus Optimization once and print the best placement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return Run(ctx, cmd.OutOrStdout(), o)
		},
	}
	o.AddOutputFlags(cmd.Flags())
	return cmd
}

// Run optimizes one problem and writes the summary, and any requested
// chart, metrics and plan files.
func Run(ctx context.Context, out io.Writer, o *options.Options) error {
	cfg, err := problemConfiguration(o)
	if err != nil {
		return err
	}
	defer startTracing(ctx, o)()
	logger := klog.FromContext(ctx)

	reg := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		return err
	}

	hippo := algorithms.NewHippo(cfg.ToParameters(), algorithms.WithRecorder(recorder))
	result, err := hippo.Run(ctx, cfg.Items, cfg.Bins)
	if err != nil {
		return err
	}

	vms, hosts := adapter.SyntheticFleet(cfg.Items, cfg.Bins)
	plan, err := adapter.ConvertRunResult(result, vms, hosts, time.Now())
	if err != nil {
		return err
	}

	if err := writeRunSummary(out, result, plan); err != nil {
		return err
	}

	if o.ChartFile != "" {
		if err := util.PlotConvergence(o.ChartFile, result); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		logger.Info("Wrote convergence chart", "path", o.ChartFile)
	}
	if o.MetricsFile != "" {
		if err := metrics.WriteTextfile(o.MetricsFile, reg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logger.Info("Wrote metrics", "path", o.MetricsFile)
	}
	if o.PlanFile != "" {
		data, err := yaml.Marshal(plan)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.PlanFile, data, 0o644); err != nil {
			return fmt.Errorf("writing plan: %w", err)
		}
		logger.Info("Wrote placement plan", "path", o.PlanFile, "plan", plan.Name)
	}
	return nil
}

func writeRunSummary(out io.Writer, result *framework.RunResult, plan *adapter.PlacementPlan) error {
	meta := result.Metadata
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Algorithm:\t%s\n", meta.Algorithm)
	fmt.Fprintf(w, "Problem:\t%s items on %s bins\n", humanize.Comma(int64(meta.ItemCount)), humanize.Comma(int64(meta.BinCount)))
	fmt.Fprintf(w, "Best fitness:\t%.6f\n", result.BestFitness())
	fmt.Fprintf(w, "Stop reason:\t%s\n", meta.StopReason)
	fmt.Fprintf(w, "Iterations:\t%s\n", humanize.Comma(int64(meta.Iterations)))
	fmt.Fprintf(w, "Evaluations:\t%s\n", humanize.Comma(int64(meta.Evaluations)))
	fmt.Fprintf(w, "Duration:\t%s\n", meta.Duration.Round(time.Microsecond))
	fmt.Fprintf(w, "Active hosts:\t%d\n", result.Best.ActiveBins())
	fmt.Fprintf(w, "Plan:\t%s (feasible=%t)\n", plan.Name, plan.Feasible)
	for _, o := range framework.Objectives {
		fmt.Fprintf(w, "  %s:\t%.4f\n", o, result.Best.Objectives[o])
	}
	return w.Flush()
}
