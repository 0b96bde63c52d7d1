package algorithms

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/vmplacement/hosim/pkg/hippo/convergence"
	"github.com/vmplacement/hosim/pkg/hippo/framework"
	"github.com/vmplacement/hosim/pkg/hippo/objectives"
	"github.com/vmplacement/hosim/pkg/hippo/population"
	"github.com/vmplacement/hosim/pkg/metrics"
	"github.com/vmplacement/hosim/pkg/tracing"
)

const HippoName = "HO"

// Algorithm is implemented by every placement optimizer and baseline.
type Algorithm interface {
	Name() string
	Run(ctx context.Context, itemCount, binCount int) (*framework.RunResult, error)
}

// runOptions are shared by every optimizer in this package.
type runOptions struct {
	clock    clock.PassiveClock
	logger   *klog.Logger
	recorder metrics.Recorder
}

func newRunOptions(opts []Option) runOptions {
	o := runOptions{
		clock:    clock.RealClock{},
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// loggerFor returns the configured logger or the one carried by ctx.
func (o runOptions) loggerFor(ctx context.Context) klog.Logger {
	if o.logger != nil {
		return *o.logger
	}
	return klog.FromContext(ctx)
}

// Option configures an optimizer.
type Option func(*runOptions)

// WithClock sets the clock used for the timeout and the run duration.
func WithClock(c clock.PassiveClock) Option {
	return func(o *runOptions) { o.clock = c }
}

// WithLogger overrides the logger taken from the run context.
func WithLogger(logger klog.Logger) Option {
	return func(o *runOptions) { o.logger = &logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *runOptions) { o.recorder = r }
}

// Hippo runs Hippopotamus Optimization over item-to-bin assignments. A Hippo
// may run many times; every run owns its generator, population and tracker,
// so concurrent runs on the same Hippo do not share state.
type Hippo struct {
	runOptions
	params framework.Parameters
}

var _ Algorithm = &Hippo{}

// NewHippo creates an optimizer for params. Parameters are validated when a
// run starts.
func NewHippo(params framework.Parameters, opts ...Option) *Hippo {
	return &Hippo{
		runOptions: newRunOptions(opts),
		params:     params,
	}
}

func (h *Hippo) Name() string { return HippoName }

// Parameters returns the configuration of the optimizer.
func (h *Hippo) Parameters() framework.Parameters { return h.params }

// Optimize runs Hippopotamus Optimization once with default options.
func Optimize(ctx context.Context, itemCount, binCount int, params framework.Parameters) (*framework.RunResult, error) {
	return NewHippo(params).Run(ctx, itemCount, binCount)
}

// Run searches for an assignment of itemCount items to binCount bins that
// minimizes the weighted fitness. It stops when the best fitness has been
// flat for the convergence window, after MaxIterations iterations, when the
// timeout elapses or when ctx is cancelled. Timeout and cancellation are
// checked between iterations and are not errors: the result reports them as
// its stop reason.
func (h *Hippo) Run(ctx context.Context, itemCount, binCount int) (result *framework.RunResult, err error) {
	if err := framework.ValidateProblem(itemCount, binCount); err != nil {
		return nil, err
	}
	if err := h.params.Validate(); err != nil {
		return nil, err
	}

	logger := h.loggerFor(ctx).WithValues("algorithm", HippoName, "items", itemCount, "bins", binCount, "seed", h.params.Seed)
	if binCount > itemCount {
		logger.Info("Warning: more bins than items, some bins will stay empty")
	}

	ctx, span := tracing.Tracer().Start(ctx, "hippo.Run", trace.WithAttributes(
		attribute.Int("items", itemCount),
		attribute.Int("bins", binCount),
		attribute.Int64("seed", h.params.Seed),
		attribute.Int("population", h.params.PopulationSize),
	))
	defer span.End()

	iteration := 0
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = framework.NewOptimizationFailure(HippoName, iteration, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error(err, "Optimization failed", "iteration", iteration)
		}
	}()

	p := h.params
	start := h.clock.Now()
	rng := framework.NewRand(p.Seed)
	evaluator := objectives.NewEvaluator(rng, p.SLAThresholdOffset)
	coeffs := CoefficientsFromParameters(p)
	tracker := convergence.NewTracker(p.ConvergenceWindow, p.ConvergenceThreshold)

	pop := population.NewManager(p.RepairPolicy())
	if err := pop.Initialize(rng, itemCount, binCount, p.PopulationSize); err != nil {
		return nil, err
	}
	members := pop.Members()
	for _, c := range members {
		evaluator.Evaluate(c, &p.Weights)
	}
	pop.UpdateBest()
	logger.V(2).Info("Population initialized", "size", len(members), "bestFitness", pop.CurrentBest().Fitness)

	reason := framework.Running
	evaluations := 0
	for iteration = 0; iteration < p.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			reason = framework.Cancelled
			break
		}
		if h.clock.Since(start) >= p.Timeout {
			reason = framework.Timeout
			break
		}

		t := float64(iteration) / float64(p.MaxIterations)
		best := pop.CurrentBest()
		for _, c := range members {
			peer := members[rng.Intn(len(members))]
			if err := ApplyUpdate(rng, c, best, peer, t, coeffs); err != nil {
				return nil, &framework.OptimizationFailure{Algorithm: HippoName, Iteration: iteration, Cause: err}
			}
			evaluator.Evaluate(c, &p.Weights)
			evaluations++
		}

		if pop.UpdateBest() {
			logger.V(4).Info("New best candidate", "iteration", iteration, "fitness", pop.CurrentBest().Fitness)
		}
		diversity := convergence.Diversity(members)
		tracker.Record(pop.CurrentBest().Fitness, diversity)
		h.recorder.ObserveIteration(HippoName, pop.CurrentBest().Fitness, diversity)

		if tracker.Converged() {
			reason = framework.Converged
			break
		}
	}
	if reason == framework.Running {
		reason = framework.MaxIterations
	}

	best := pop.CurrentBest()
	result = framework.NewRunResult(best, tracker.BestHistory(), tracker.DiversityHistory(), pop.Elite(p.EliteSize), framework.RunMetadata{
		Algorithm:   HippoName,
		ItemCount:   itemCount,
		BinCount:    binCount,
		Seed:        p.Seed,
		Iterations:  tracker.Iterations(),
		Evaluations: evaluations,
		Duration:    h.clock.Since(start),
		Converged:   reason == framework.Converged,
		StopReason:  reason,
	})
	h.recorder.ObserveRun(result)

	span.SetAttributes(
		attribute.Float64("bestFitness", best.Fitness),
		attribute.Int("iterations", result.Metadata.Iterations),
		attribute.String("stopReason", reason.String()),
	)
	logger.Info("Optimization finished",
		"stopReason", reason,
		"iterations", result.Metadata.Iterations,
		"evaluations", evaluations,
		"bestFitness", best.Fitness,
		"activeBins", best.ActiveBins(),
		"duration", result.Metadata.Duration,
	)
	return result, nil
}
