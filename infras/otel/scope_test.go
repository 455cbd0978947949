package otel_test

import (
	"context"
	"errors"
	"testing"

	"cleanbook/infras/otel"
	"cleanbook/shared/failure"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func record(t *testing.T, fn func(scope otel.Scope)) trace.ReadOnlySpan {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

	_, scope := otel.NewWithProvider(provider).NewScope(context.Background(), "test", "test.Span")
	fn(scope)
	scope.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	return spans[0]
}

func attrs(span trace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}

	return out
}

func TestScope_TraceError(t *testing.T) {
	t.Run("server error marks the span", func(t *testing.T) {
		span := record(t, func(scope otel.Scope) {
			scope.TraceError(errors.New("db down"))
		})

		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Equal(t, int64(500), attrs(span)["error.code"].AsInt64())
	})

	t.Run("client failure only leaves an event", func(t *testing.T) {
		span := record(t, func(scope otel.Scope) {
			scope.TraceIfError(failure.Conflict("price has changed"))
		})

		assert.NotEqual(t, codes.Error, span.Status().Code)
		assert.Equal(t, int64(409), attrs(span)["error.code"].AsInt64())
		require.Len(t, span.Events(), 1)
		assert.Equal(t, "client_error", span.Events()[0].Name)
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		span := record(t, func(scope otel.Scope) {
			scope.TraceIfError(nil)
		})

		assert.Empty(t, span.Attributes())
	})
}

func TestScope_SetAttributes(t *testing.T) {
	span := record(t, func(scope otel.Scope) {
		scope.SetAttributes(map[string]any{
			"booking.id":    "b-1",
			"booking.rooms": 3,
			"booking.total": decimal.RequireFromString("120.5"),
			"promo.applied": true,
		})
	})

	got := attrs(span)

	assert.Equal(t, "b-1", got["booking.id"].AsString())
	assert.Equal(t, int64(3), got["booking.rooms"].AsInt64())
	assert.Equal(t, "120.50", got["booking.total"].AsString())
	assert.True(t, got["promo.applied"].AsBool())
}
