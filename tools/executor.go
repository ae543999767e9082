package tools

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/agentcore/agentcore/hooks"
	"github.com/agentcore/agentcore/invocation"
	"github.com/agentcore/agentcore/model"
	"github.com/agentcore/agentcore/telemetry"
	"github.com/agentcore/agentcore/toolerrors"
)

// Executor resolves and invokes tools requested by a model turn, firing
// BeforeToolCall/AfterToolCall hooks around each call (spec §4.5) and
// opening an execute_tool span with tool.* metrics around every attempt
// (spec §6 telemetry surface).
type Executor struct {
	registry *Registry
	hooks    *hooks.Registry
	tracer   telemetry.Tracer
	metrics  telemetry.Metrics
}

// NewExecutor constructs an Executor over registry, dispatching hook events
// through hookRegistry and recording spans/metrics through tracer/metrics.
func NewExecutor(registry *Registry, hookRegistry *hooks.Registry, tracer telemetry.Tracer, metrics telemetry.Metrics) *Executor {
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Executor{registry: registry, hooks: hookRegistry, tracer: tracer, metrics: metrics}
}

// Callback is one non-terminal progress event forwarded from a tool's
// Stream, tagged with the originating tool_use ID so callers can fan results
// back to the right assembler listener in parallel execution.
type Callback struct {
	ToolUseID string
	Event     any
}

// Execute runs a single tool_use block through the full before/after hook
// cycle (spec §4.5 steps 1-7). Progress callbacks are forwarded to sink as
// they arrive; the final ToolResult is not sent to sink. It is exposed to
// after hooks as AfterToolCallEvent's Result and then returned.
func (e *Executor) Execute(ctx context.Context, agent any, toolUse model.ToolUse, state *invocation.State, sink func(Callback)) (result model.ToolResult) {
	ctx, span := e.tracer.Start(ctx, "execute_tool "+toolUse.Name)
	start := time.Now()
	e.metrics.IncCounter("tool.call_count", 1, "tool", toolUse.Name)
	defer func() {
		e.metrics.RecordTimer("tool.duration", time.Since(start), "tool", toolUse.Name)
		if result.Status == model.ToolResultStatusError {
			e.metrics.IncCounter("tool.error_count", 1, "tool", toolUse.Name)
			span.SetStatus(codes.Error, "tool call failed")
		} else {
			e.metrics.IncCounter("tool.success_count", 1, "tool", toolUse.Name)
		}
		span.AddEvent("gen_ai.tool.message", "tool.name", toolUse.Name, "tool.call.id", toolUse.ID)
		span.End()
	}()

	selected, ok := e.registry.Resolve(toolUse.Name)

	before := &hooks.BeforeToolCallEvent{
		Agent:           agent,
		SelectedTool:    toolWrapper(selected, ok),
		ToolUse:         &toolUse,
		InvocationState: state,
	}
	if err := e.hooks.Fire(ctx, before); err != nil {
		result = e.errorResult(toolUse, fmt.Errorf("before_tool_call hook: %w", err))
		return result
	}

	toolUse = *before.ToolUse
	var callErr error

	switch {
	case before.CancelTool != "":
		result = e.errorResult(toolUse, toolerrors.Errorf("tool call cancelled: %s", before.CancelTool))
	case before.SelectedTool == nil:
		result = e.errorResult(toolUse, toolerrors.Errorf("unknown tool: %s", toolUse.Name))
	default:
		result, callErr = e.run(ctx, before.SelectedTool, toolUse, state, sink)
		if callErr != nil {
			result = e.errorResult(toolUse, callErr)
		}
	}

	after := &hooks.AfterToolCallEvent{
		Agent:           agent,
		SelectedTool:    before.SelectedTool,
		ToolUse:         toolUse,
		InvocationState: state,
		Result:          &result,
		Err:             callErr,
	}
	if err := e.hooks.Fire(ctx, after); err != nil {
		// The after-hook error does not override a successful tool result;
		// it is reported via a wrapped error result only if no result
		// survived the hook's mutation.
		if after.Result == nil {
			result = e.errorResult(toolUse, fmt.Errorf("after_tool_call hook: %w", err))
			return result
		}
	}
	if after.Result != nil {
		result = *after.Result
	}
	return result
}

func (e *Executor) run(ctx context.Context, t hooks.Tool, toolUse model.ToolUse, state *invocation.State, sink func(Callback)) (model.ToolResult, error) {
	stream, err := t.Stream(ctx, toolUse, state)
	if err != nil {
		return model.ToolResult{}, err
	}
	defer stream.Close()

	for {
		evt, err := stream.Next(ctx)
		if err != nil {
			if err == errStreamExhausted {
				return model.ToolResult{}, toolerrors.Errorf("tool %q stream ended without a result", toolUse.Name)
			}
			return model.ToolResult{}, toolerrors.NewWithCause(fmt.Sprintf("tool %q stream failed", toolUse.Name), err)
		}
		if evt.Result != nil {
			return *evt.Result, nil
		}
		if sink != nil && evt.Callback != nil {
			sink(Callback{ToolUseID: toolUse.ID, Event: evt.Callback})
		}
	}
}

// errorResult normalizes err into a toolerrors.ToolError chain and renders
// that ToolError's message as the text of the model-facing error ToolResult.
// The ToolError value itself is not handed to hook observers; they see only
// AfterToolCallEvent.Err, which Execute sets for failures of the tool's own
// stream and leaves nil for cancelled and unknown-tool calls.
func (e *Executor) errorResult(toolUse model.ToolUse, err error) model.ToolResult {
	te := toolerrors.FromError(err)
	return model.ToolResult{
		ID:     toolUse.ID,
		Status: model.ToolResultStatusError,
		Content: []model.ContentBlock{
			model.TextBlock(te.Error()),
		},
	}
}

// toolWrapper adapts a (Tool, bool) resolution pair into a hooks.Tool,
// returning nil (not a typed nil) when resolution failed so BeforeToolCallEvent
// observers can test SelectedTool == nil directly.
func toolWrapper(t Tool, ok bool) hooks.Tool {
	if !ok {
		return nil
	}
	return t
}
