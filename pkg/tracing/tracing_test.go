package tracing_test

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vmplacement/hosim/pkg/tracing"
)

func TestTracerUsesInstalledProvider(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracing.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	_, span := tracing.Tracer().Start(context.Background(), "test")
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected one span, got %d", len(ended))
	}
	if got := ended[0].InstrumentationScope().Name; got != tracing.TracerName {
		t.Errorf("expected scope %q, got %q", tracing.TracerName, got)
	}
}

func TestEmptyEndpointIsNoop(t *testing.T) {
	if err := tracing.NewTracerProvider(context.Background(), "", "", 1, false); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	tracing.Shutdown(context.Background())
}
