// Package telemetry defines the minimal tracer/meter/logger surface the core
// emits spans and metrics through (spec §1, §6). The core never owns an
// exporter; callers configure a concrete backend (Otel-backed or Noop) at
// agent construction time.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	// Logger is a structured logger scoped to the current operation.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records the named instruments enumerated in spec §6:
	// event_loop.cycle_count, event_loop.cycle_duration, tool.call_count,
	// etc.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, d time.Duration, tags ...string)
		RecordGauge(name string, value float64, tags ...string)
	}

	// Tracer opens spans for the operations named in spec §6: invoke_agent,
	// execute_event_loop_cycle, chat, execute_tool.
	Tracer interface {
		Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	}

	// Span is the subset of an OpenTelemetry span the core depends on.
	Span interface {
		End(opts ...trace.SpanEndOption)
		AddEvent(name string, keyvals ...any)
		SetAttributes(keyvals ...any)
		SetStatus(code codes.Code, description string)
		RecordError(err error, opts ...trace.EventOption)
	}
)
