package app

import (
	"context"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/vmplacement/hosim/cmd/hosim/app/options"
	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/util"
)

// ParetoOptions configure the pareto command.
type ParetoOptions struct {
	X, Y string
}

func newParetoCommand(o *options.Options) *cobra.Command {
	p := &ParetoOptions{X: string(framework.ResourceUtilization), Y: string(framework.SLAViolations)}
	cmd := &cobra.Command{
		Use:   "pareto",
		Short: "Run NSGA-II and print the first Pareto front of the final population",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return Pareto(ctx, cmd.OutOrStdout(), o, p)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&p.X, "x", p.X, "Objective on the chart's x axis.")
	fs.StringVar(&p.Y, "y", p.Y, "Objective on the chart's y axis.")
	fs.StringVar(&o.ChartFile, "chart", o.ChartFile, "Write the front as a scatter chart to this HTML file.")
	return cmd
}

// Pareto runs NSGA-II and writes the cost vectors of its non-dominated
// feasible members.
func Pareto(ctx context.Context, out io.Writer, o *options.Options, p *ParetoOptions) error {
	x, err := objectiveIndex(p.X)
	if err != nil {
		return err
	}
	y, err := objectiveIndex(p.Y)
	if err != nil {
		return err
	}
	cfg, err := problemConfiguration(o)
	if err != nil {
		return err
	}
	config, err := cfg.NSGA2Config()
	if err != nil {
		return err
	}
	defer startTracing(ctx, o)()

	result, final, err := algorithms.NewNSGAII(config).RunPareto(ctx, cfg.Items, cfg.Bins)
	if err != nil {
		return err
	}
	front := algorithms.GetParetoFront(final)

	fmt.Fprintf(out, "Best fitness %.6f after %d generations, %d points on the front\n",
		result.BestFitness(), result.Metadata.Iterations, len(front))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, obj := range framework.Objectives {
		fmt.Fprintf(w, "%s\t", obj)
	}
	fmt.Fprintln(w)
	for _, point := range front {
		for _, v := range point {
			fmt.Fprintf(w, "%.4f\t", v)
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if o.ChartFile != "" && len(front) > 0 {
		if err := util.PlotParetoFront(front, x, y, algorithms.NSGAIIName, o.ChartFile); err != nil {
			return fmt.Errorf("writing chart: %w", err)
		}
		klog.FromContext(ctx).Info("Wrote Pareto front chart", "path", o.ChartFile)
	}
	return nil
}

func objectiveIndex(name string) (int, error) {
	i := slices.Index(framework.Objectives, framework.Objective(name))
	if i < 0 {
		return 0, framework.InvalidArgumentf("unknown objective %q, expected one of %v", name, framework.Objectives)
	}
	return i, nil
}
