package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmplacement/hosim/cmd/hosim/app/options"
	"github.com/vmplacement/hosim/pkg/hippo/algorithms"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

type sweepOptions struct {
	param  string
	values []float64
}

func newSweepCommand(o *options.Options) *cobra.Command {
	s := &sweepOptions{}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run Hippopotamus Optimization once per value of one parameter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return Sweep(ctx, cmd.OutOrStdout(), o, s.param, s.values)
		},
	}
	cmd.Flags().StringVar(&s.param, "param", "", fmt.Sprintf("Parameter to sweep, one of %v.", framework.Tunables()))
	cmd.Flags().Float64SliceVar(&s.values, "values", nil, "Comma separated values of the parameter.")
	_ = cmd.MarkFlagRequired("param")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}

// Sweep runs one optimization per value of param. Every value set is
// validated before the first run starts.
func Sweep(ctx context.Context, out io.Writer, o *options.Options, param string, values []float64) error {
	cfg, err := problemConfiguration(o)
	if err != nil {
		return err
	}
	tunable, err := framework.ParseTunable(param)
	if err != nil {
		return err
	}
	sets, err := framework.Sweep(cfg.ToParameters(), tunable, values)
	if err != nil {
		return err
	}
	defer startTracing(ctx, o)()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tBEST FITNESS\tITERATIONS\tEVALUATIONS\tSTOP REASON\tDURATION\n", tunable)
	for i, params := range sets {
		result, err := algorithms.NewHippo(params).Run(ctx, cfg.Items, cfg.Bins)
		if err != nil {
			return fmt.Errorf("%s=%v: %w", tunable, values[i], err)
		}
		meta := result.Metadata
		fmt.Fprintf(w, "%v\t%.6f\t%d\t%s\t%s\t%s\n",
			values[i], result.BestFitness(), meta.Iterations, humanize.Comma(int64(meta.Evaluations)), meta.StopReason, meta.Duration)
	}
	return w.Flush()
}
