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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vmplacement/hosim/pkg/hippo/framework"
)

const namespace = "hosim"

// Recorder receives run and iteration observations from the optimizers.
type Recorder interface {
	ObserveIteration(algorithm string, bestFitness, diversity float64)
	ObserveRun(result *framework.RunResult)
}

// NoopRecorder discards every observation.
type NoopRecorder struct{}

func (NoopRecorder) ObserveIteration(string, float64, float64) {}
func (NoopRecorder) ObserveRun(*framework.RunResult)           {}

// PrometheusRecorder exports observations as Prometheus collectors.
type PrometheusRecorder struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	evaluations *prometheus.CounterVec
	iterations  *prometheus.CounterVec
	bestFitness *prometheus.GaugeVec
	diversity   *prometheus.GaugeVec
}

var _ Recorder = &PrometheusRecorder{}

// NewPrometheusRecorder creates the collectors and registers them with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of completed optimization runs by algorithm and stop reason.",
		}, []string{"algorithm", "stop_reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of optimization runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"algorithm"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "function_evaluations_total",
			Help:      "Number of candidate evaluations performed.",
		}, []string{"algorithm"}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Number of optimization iterations executed.",
		}, []string{"algorithm"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "Best fitness at the last observed iteration.",
		}, []string{"algorithm"}),
		diversity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "population_diversity",
			Help:      "Mean pairwise Hamming distance at the last observed iteration.",
		}, []string{"algorithm"}),
	}

	for _, c := range []prometheus.Collector{r.runs, r.duration, r.evaluations, r.iterations, r.bestFitness, r.diversity} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) ObserveIteration(algorithm string, bestFitness, diversity float64) {
	r.iterations.WithLabelValues(algorithm).Inc()
	r.bestFitness.WithLabelValues(algorithm).Set(bestFitness)
	r.diversity.WithLabelValues(algorithm).Set(diversity)
}

func (r *PrometheusRecorder) ObserveRun(result *framework.RunResult) {
	meta := result.Metadata
	r.runs.WithLabelValues(meta.Algorithm, meta.StopReason.String()).Inc()
	r.duration.WithLabelValues(meta.Algorithm).Observe(meta.Duration.Seconds())
	r.evaluations.WithLabelValues(meta.Algorithm).Add(float64(meta.Evaluations))
}

// WriteTextfile writes every metric gathered by g to path in the Prometheus
// text format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
