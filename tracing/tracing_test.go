package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	if !assert.NoError(t, InitWithExporter("procos", "test", exporter)) {
		return
	}
	ctx, parent := StartSpan(context.Background(), "boot", "SERVER")
	_, ok := SpanFromContext(ctx)
	assert.True(t, ok)
	_, child := StartSpan(ctx, "syscall.fork", "")
	child.WithAttributes(map[string]string{"syscall": "fork"}).WithInt("pid", 3)
	EndSpan(child, errors.New("fork refused"))
	EndSpan(parent, nil)

	spans := exporter.GetSpans()
	if !assert.Len(t, spans, 2) {
		return
	}
	assert.Equal(t, "syscall.fork", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.Int64("pid", 3))
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, codes.Ok, spans[1].Status.Code)

	_, none := SpanFromContext(context.Background())
	assert.False(t, none)
}
