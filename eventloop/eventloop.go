// Package eventloop implements the single-threaded cooperative event loop
// cycle (spec §4.3): one call to model.Client.Stream, assembled into a
// message, optionally recursing through tool execution.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/agentcore/agentcore/assembler"
	"github.com/agentcore/agentcore/hooks"
	"github.com/agentcore/agentcore/invocation"
	"github.com/agentcore/agentcore/model"
	"github.com/agentcore/agentcore/retry"
	"github.com/agentcore/agentcore/structuredoutput"
	"github.com/agentcore/agentcore/telemetry"
	"github.com/agentcore/agentcore/tools"
)

// EventLoopException wraps a non-retryable, non-overflow model failure (spec
// §7 "EventLoopException (wraps unknown)").
type EventLoopException struct {
	Cause error
}

func (e *EventLoopException) Error() string { return "event loop: " + e.Cause.Error() }
func (e *EventLoopException) Unwrap() error { return e.Cause }

// Callback is one non-terminal event yielded during a cycle: either an
// assembler CallbackEvent, a ForceStop notice, a ThrottledDelay notice, a
// MessageAdded notice for the appended assistant message, or a tool executor
// Callback.
type Callback struct {
	Assembler      *assembler.CallbackEvent
	ToolCall       *tools.Callback
	ThrottledDelay time.Duration
	ForceStop      string
	MessageAdded   *model.Message
}

// Stop is the terminal event of a cycle (spec §4.3 step 7).
type Stop struct {
	StopReason   model.StopReason
	Message      model.Message
	Usage        model.Usage
	Metrics      model.Metrics
	RequestState map[string]any
}

// Deps bundles everything one cycle needs from the owning agent facade.
type Deps struct {
	ModelClient  model.Client
	ToolRegistry *tools.Registry
	Hooks        *hooks.Registry
	Executor     *tools.Executor
	Retry        retry.Strategy
	Logger       telemetry.Logger
	Tracer       telemetry.Tracer
	Metrics      telemetry.Metrics
	SystemPrompt string
	// ExtraToolSpecs is appended to the registry's specs for this call only
	// (used by the structured output adapter's synthetic tool, spec §4.9).
	ExtraToolSpecs []model.ToolSpec
	// StructuredOutput, when set, intercepts calls to the synthetic
	// structured_output tool: its input is validated against the schema
	// instead of being dispatched to the real tool registry (spec §4.9
	// step 2).
	StructuredOutput *structuredoutput.Adapter
}

// Run drives one event_loop_cycle, recursing into itself on stop_reason ==
// tool_use, and returns once a terminal stop is reached. sink receives every
// non-terminal Callback in order.
func Run(ctx context.Context, agent any, deps Deps, history *model.Messages, state *invocation.State, sink func(Callback)) (Stop, error) {
	state.NewCycleID()
	if state.RequestState == nil {
		state.RequestState = map[string]any{}
	}

	cycleStart := time.Now()
	deps.Metrics.IncCounter("event_loop.cycle_count", 1)
	deps.Metrics.IncCounter("event_loop.start_cycle", 1)
	defer func() {
		deps.Metrics.RecordTimer("event_loop.cycle_duration", time.Since(cycleStart))
		deps.Metrics.IncCounter("event_loop.end_cycle", 1)
	}()

	ctx, span := deps.Tracer.Start(ctx, "execute_event_loop_cycle")
	defer span.End()

	stopResp, usage, metrics, err := runModelRetryLoop(ctx, agent, deps, *history, state, sink)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return Stop{}, err
	}

	*history = append(*history, stopResp.Message)
	if err := deps.Hooks.Fire(ctx, &hooks.MessageAddedEvent{Agent: agent, Message: stopResp.Message}); err != nil {
		deps.Logger.Warn(ctx, "eventloop: MessageAdded hook error", "error", err)
	}
	msg := stopResp.Message
	sink(Callback{MessageAdded: &msg})

	if stopResp.StopReason != model.StopReasonToolUse {
		return Stop{
			StopReason:   stopResp.StopReason,
			Message:      stopResp.Message,
			Usage:        usage,
			Metrics:      metrics,
			RequestState: state.RequestState,
		}, nil
	}

	resultMsg, toolErr := executeToolUses(ctx, agent, deps, stopResp.Message, state, sink)
	if toolErr != nil {
		return Stop{}, toolErr
	}
	*history = append(*history, resultMsg)

	nested, err := Run(ctx, agent, deps, history, state, sink)
	if err != nil {
		return Stop{}, err
	}
	nested.Usage = usage.Add(nested.Usage)
	nested.Metrics = metrics.Add(nested.Metrics)
	return nested, nil
}

func runModelRetryLoop(ctx context.Context, agent any, deps Deps, history model.Messages, state *invocation.State, sink func(Callback)) (hooks.StopResponse, model.Usage, model.Metrics, error) {
	toolSpecs := append(append([]model.ToolSpec{}, deps.ToolRegistry.Specs()...), deps.ExtraToolSpecs...)
	prepared := assembler.HygieneHistory(history)

	maxAttempts := deps.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := deps.Retry.Wait(ctx, attempt); err != nil {
			return hooks.StopResponse{}, model.Usage{}, model.Metrics{}, err
		}

		modelCtx, modelSpan := deps.Tracer.Start(ctx, "chat")
		attemptStart := time.Now()
		if err := deps.Hooks.Fire(modelCtx, &hooks.BeforeModelCallEvent{Agent: agent}); err != nil {
			modelSpan.End()
			return hooks.StopResponse{}, model.Usage{}, model.Metrics{}, fmt.Errorf("before_model_call hook: %w", err)
		}

		result, err := streamOnce(modelCtx, deps, prepared, toolSpecs, state, sink)

		after := &hooks.AfterModelCallEvent{Agent: agent}
		if err != nil {
			after.Err = err
		} else {
			after.StopResponse = &hooks.StopResponse{
				StopReason: result.StopReason,
				Message:    result.Message,
				Usage:      result.Usage,
				Metrics:    result.Metrics,
			}
		}
		hookErr := deps.Hooks.Fire(modelCtx, after)

		if err != nil {
			modelSpan.SetStatus(codes.Error, err.Error())
			modelSpan.RecordError(err)
			modelSpan.End()

			if errors.Is(err, model.ErrContextWindowOverflow) {
				return hooks.StopResponse{}, model.Usage{}, model.Metrics{}, err
			}
			retryRequested := after.Retry || deps.Retry.ShouldRetry(err, attempt)
			if retryRequested && attempt+1 < maxAttempts {
				delay := deps.Retry.Delay(attempt + 1)
				sink(Callback{ThrottledDelay: delay})
				continue
			}
			sink(Callback{ForceStop: err.Error()})
			return hooks.StopResponse{}, model.Usage{}, model.Metrics{}, &EventLoopException{Cause: err}
		}

		deps.Metrics.RecordTimer("event_loop.latency", time.Since(attemptStart))
		deps.Metrics.RecordGauge("event_loop.input_tokens", float64(result.Usage.InputTokens))
		deps.Metrics.RecordGauge("event_loop.output_tokens", float64(result.Usage.OutputTokens))
		modelSpan.AddEvent("gen_ai.assistant.message")
		modelSpan.AddEvent("gen_ai.choice", "finish_reason", string(result.StopReason))
		modelSpan.End()
		if hookErr != nil {
			deps.Logger.Warn(ctx, "eventloop: AfterModelCall hook error", "error", hookErr)
		}
		if after.Retry {
			continue
		}
		return *after.StopResponse, result.Usage, result.Metrics, nil
	}
	return hooks.StopResponse{}, model.Usage{}, model.Metrics{}, &EventLoopException{Cause: errors.New("eventloop: retry attempts exhausted")}
}

func streamOnce(ctx context.Context, deps Deps, history model.Messages, toolSpecs []model.ToolSpec, state *invocation.State, sink func(Callback)) (assembler.Result, error) {
	iter, err := deps.ModelClient.Stream(ctx, model.Request{
		Messages:     history,
		Tools:        toolSpecs,
		SystemPrompt: deps.SystemPrompt,
	})
	if err != nil {
		return assembler.Result{}, err
	}
	return assembler.Run(ctx, iter, func(evt assembler.CallbackEvent) {
		if evt.Kind == assembler.CallbackToolUseDelta {
			state.AppendPartialToolArgs(evt.ToolUseID, evt.ToolUseInputDelta)
		}
		e := evt
		sink(Callback{Assembler: &e})
	}, assembler.WithLogger(deps.Logger))
}

func executeToolUses(ctx context.Context, agent any, deps Deps, assistantMsg model.Message, state *invocation.State, sink func(Callback)) (model.Message, error) {
	var toolUses []model.ToolUse
	for _, block := range assistantMsg.Content {
		if block.ToolUse != nil {
			toolUses = append(toolUses, *block.ToolUse)
		}
	}

	results := make([]model.ContentBlock, len(toolUses))
	errs := make([]error, len(toolUses))
	done := make(chan struct{}, len(toolUses))
	for i, tu := range toolUses {
		go func(i int, tu model.ToolUse) {
			defer func() { done <- struct{}{} }()

			if deps.StructuredOutput != nil && tu.Name == structuredoutput.ToolName {
				validated, err := deps.StructuredOutput.Validate(tu.Input)
				if err != nil {
					errs[i] = err
					return
				}
				state.SetStructuredOutput(validated)
				results[i] = structuredoutput.StubResult(tu.ID)
				return
			}

			result := deps.Executor.Execute(ctx, agent, tu, state, func(cb tools.Callback) {
				c := cb
				sink(Callback{ToolCall: &c})
			})
			results[i] = model.ContentBlock{ToolResult: &result}
		}(i, tu)
	}
	for range toolUses {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return model.Message{}, err
		}
	}
	return model.Message{Role: model.RoleUser, Content: results}, nil
}
