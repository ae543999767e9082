package tools

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/agentcore/hooks"
	"github.com/agentcore/agentcore/invocation"
	"github.com/agentcore/agentcore/model"
	"github.com/agentcore/agentcore/telemetry"
)

type recordingSpan struct {
	events []string
}

func (s *recordingSpan) End(...trace.SpanEndOption)              {}
func (s *recordingSpan) AddEvent(name string, _ ...any)          { s.events = append(s.events, name) }
func (s *recordingSpan) SetAttributes(...any)                    {}
func (s *recordingSpan) SetStatus(codes.Code, string)            {}
func (s *recordingSpan) RecordError(error, ...trace.EventOption) {}

type recordingTracer struct {
	names []string
	span  *recordingSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, telemetry.Span) {
	t.names = append(t.names, name)
	return ctx, t.span
}

type recordingMetrics struct {
	counters map[string]int
}

func (m *recordingMetrics) IncCounter(name string, _ float64, _ ...string) {
	if m.counters == nil {
		m.counters = map[string]int{}
	}
	m.counters[name]++
}
func (m *recordingMetrics) RecordTimer(string, time.Duration, ...string) {}
func (m *recordingMetrics) RecordGauge(string, float64, ...string)       {}

func echoTool() Tool {
	spec := model.ToolSpec{Name: "echo"}
	return NewFunc(spec, func(ctx context.Context, toolUse model.ToolUse, state *invocation.State) (model.ToolResult, error) {
		return model.ToolResult{
			ID:      toolUse.ID,
			Status:  model.ToolResultStatusSuccess,
			Content: []model.ContentBlock{model.TextBlock("ok")},
		}, nil
	})
}

func TestExecutorRunsKnownTool(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool())
	exec := NewExecutor(reg, hooks.NewRegistry(), nil, nil)

	result := exec.Execute(context.Background(), nil, model.ToolUse{ID: "1", Name: "echo"}, invocation.New(nil), nil)
	require.Equal(t, model.ToolResultStatusSuccess, result.Status)
}

func TestExecutorUnknownToolProducesErrorResult(t *testing.T) {
	reg := NewRegistry()
	exec := NewExecutor(reg, hooks.NewRegistry(), nil, nil)

	result := exec.Execute(context.Background(), nil, model.ToolUse{ID: "1", Name: "missing"}, invocation.New(nil), nil)
	require.Equal(t, model.ToolResultStatusError, result.Status)
}

func TestExecutorCancelToolShortCircuits(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool())
	hookReg := hooks.NewRegistry()
	hookReg.AddCallback(hooks.BeforeToolCall, func(ctx context.Context, e hooks.Event) error {
		e.(*hooks.BeforeToolCallEvent).CancelTool = "blocked by policy"
		return nil
	})
	exec := NewExecutor(reg, hookReg, nil, nil)

	result := exec.Execute(context.Background(), nil, model.ToolUse{ID: "1", Name: "echo"}, invocation.New(nil), nil)
	require.Equal(t, model.ToolResultStatusError, result.Status)
}

func TestExecutorAfterHookCanReplaceResult(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool())
	hookReg := hooks.NewRegistry()
	hookReg.AddCallback(hooks.AfterToolCall, func(ctx context.Context, e hooks.Event) error {
		e.(*hooks.AfterToolCallEvent).Result = &model.ToolResult{
			ID:      "1",
			Status:  model.ToolResultStatusError,
			Content: []model.ContentBlock{model.TextBlock("redacted")},
		}
		return nil
	})
	exec := NewExecutor(reg, hookReg, nil, nil)

	result := exec.Execute(context.Background(), nil, model.ToolUse{ID: "1", Name: "echo"}, invocation.New(nil), nil)
	require.Equal(t, model.ToolResultStatusError, result.Status)
}

func TestExecutorOpensToolSpanAndRecordsMetrics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool())
	tracer := &recordingTracer{span: &recordingSpan{}}
	metrics := &recordingMetrics{}
	exec := NewExecutor(reg, hooks.NewRegistry(), tracer, metrics)

	result := exec.Execute(context.Background(), nil, model.ToolUse{ID: "1", Name: "echo"}, invocation.New(nil), nil)
	require.Equal(t, model.ToolResultStatusSuccess, result.Status)
	require.Contains(t, tracer.names, "execute_tool echo")
	require.Contains(t, tracer.span.events, "gen_ai.tool.message")
	require.Equal(t, 1, metrics.counters["tool.call_count"])
	require.Equal(t, 1, metrics.counters["tool.success_count"])
	require.Zero(t, metrics.counters["tool.error_count"])
}

func TestDynamicToolShadowsStatic(t *testing.T) {
	reg := NewRegistry()
	reg.Register(echoTool())
	spec := model.ToolSpec{Name: "echo", Description: "dynamic"}
	reg.RegisterDynamic(NewFunc(spec, func(ctx context.Context, toolUse model.ToolUse, state *invocation.State) (model.ToolResult, error) {
		return model.ToolResult{ID: toolUse.ID, Status: model.ToolResultStatusSuccess, Content: []model.ContentBlock{model.TextBlock("dynamic")}}, nil
	}))

	resolved, ok := reg.Resolve("echo")
	require.True(t, ok)
	require.Equal(t, "dynamic", resolved.Spec().Description)

	reg.RemoveDynamic("echo")
	resolved, ok = reg.Resolve("echo")
	require.True(t, ok)
	require.Equal(t, "", resolved.Spec().Description)
}
