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

package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"k8s.io/klog/v2"
)

const (
	// DefaultServiceName is the service name reported on exported spans.
	DefaultServiceName = "hosim"
	// TracerName names the instrumentation scope of every span.
	TracerName = "github.com/vmplacement/hosim"
)

var (
	mu       sync.RWMutex
	provider trace.TracerProvider = noop.NewTracerProvider()
	shutdown func(context.Context) error
)

// Tracer returns the tracer of the currently installed provider.
func Tracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return provider.Tracer(TracerName)
}

// SetTracerProvider installs tp as the provider for Tracer and as the otel
// global provider.
func SetTracerProvider(tp trace.TracerProvider) {
	mu.Lock()
	defer mu.Unlock()
	provider = tp
	otel.SetTracerProvider(tp)
}

// NewTracerProvider configures an OTLP gRPC exporter for endpoint. An empty
// endpoint keeps the no-op provider. When the exporter cannot be created and
// fallbackToNoOpTracer is set, the no-op provider is kept and no error is
// returned.
func NewTracerProvider(ctx context.Context, endpoint, serviceName string, sampleRate float64, fallbackToNoOpTracer bool) error {
	logger := klog.FromContext(ctx)
	if endpoint == "" {
		logger.V(2).Info("No tracing endpoint configured, spans are discarded")
		return nil
	}
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		if fallbackToNoOpTracer {
			logger.Error(err, "Failed to create OTLP exporter, falling back to no-op tracer", "endpoint", endpoint)
			return nil
		}
		return err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	SetTracerProvider(tp)

	mu.Lock()
	shutdown = tp.Shutdown
	mu.Unlock()

	logger.Info("Tracing enabled", "endpoint", endpoint, "service", serviceName, "sampleRate", sampleRate)
	return nil
}

// Shutdown flushes and stops the exporting provider, if one was created.
func Shutdown(ctx context.Context) {
	mu.Lock()
	fn := shutdown
	shutdown = nil
	mu.Unlock()
	if fn == nil {
		return
	}
	if err := fn(ctx); err != nil {
		klog.FromContext(ctx).Error(err, "Failed to shut down tracer provider")
	}
}
