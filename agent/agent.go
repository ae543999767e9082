// Package agent implements the public facade (spec §4.6): Invoke,
// StreamAsync, and StructuredOutput, wiring together the model client, tool
// registry, hook registry, conversation manager, retry strategy, and
// telemetry backends configured at construction time.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"github.com/agentcore/agentcore/conversation"
	"github.com/agentcore/agentcore/eventloop"
	"github.com/agentcore/agentcore/hooks"
	"github.com/agentcore/agentcore/invocation"
	"github.com/agentcore/agentcore/model"
	"github.com/agentcore/agentcore/retry"
	"github.com/agentcore/agentcore/structuredoutput"
	"github.com/agentcore/agentcore/telemetry"
	"github.com/agentcore/agentcore/tools"
)

// State is the agent-lifetime scratchpad (spec §3 "AgentState"), distinct
// from the per-call invocation.State. It is mutated only by tool code or
// caller code via Get/Set, never by the core loop.
type State struct {
	values map[string]any
}

// NewState constructs an empty AgentState.
func NewState() *State { return &State{values: map[string]any{}} }

// Get retrieves a scratchpad value.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores a scratchpad value.
func (s *State) Set(key string, value any) { s.values[key] = value }

// MarshalJSON renders AgentState for session persistence.
func (s *State) MarshalJSON() ([]byte, error) { return json.Marshal(s.values) }

// UnmarshalJSON restores AgentState from session persistence.
func (s *State) UnmarshalJSON(data []byte) error { return json.Unmarshal(data, &s.values) }

// Result is the outcome of one Invoke/StreamAsync call (spec §4.6 step 5).
type Result struct {
	Message          model.Message
	StopReason       model.StopReason
	Usage            model.Usage
	Metrics          model.Metrics
	RequestState     map[string]any
	StructuredOutput any
}

// Agent is the public facade over the event loop.
type Agent struct {
	Name   string
	System string

	ModelClient  model.Client
	Tools        *tools.Registry
	Hooks        *hooks.Registry
	Conversation conversation.Manager
	Retry        retry.Strategy
	Logger       telemetry.Logger
	Tracer       telemetry.Tracer
	Metrics      telemetry.Metrics

	// DefaultStructuredOutputSchema, when set, is used by StructuredOutput
	// calls that don't override it (spec §4.9 "Agent-level default").
	DefaultStructuredOutputSchema json.RawMessage

	history  model.Messages
	state    *State
	executor *tools.Executor
}

// New constructs an Agent. Callers that omit Logger/Tracer/Metrics get
// no-op implementations.
func New(a Agent) *Agent {
	if a.Logger == nil {
		a.Logger = telemetry.NewNoopLogger()
	}
	if a.Tracer == nil {
		a.Tracer = telemetry.NewNoopTracer()
	}
	if a.Metrics == nil {
		a.Metrics = telemetry.NewNoopMetrics()
	}
	if a.Hooks == nil {
		a.Hooks = hooks.NewRegistry()
	}
	a.Hooks.SetLogger(func(ctx context.Context, msg string, keyvals ...any) {
		a.Logger.Warn(ctx, msg, keyvals...)
	})
	if a.Tools == nil {
		a.Tools = tools.NewRegistry()
	}
	if a.Conversation == nil {
		a.Conversation = conversation.NewSlidingWindow(0, 1)
	}
	if a.Retry == (retry.Strategy{}) {
		a.Retry = retry.Default()
	}
	a.state = NewState()
	a.executor = tools.NewExecutor(a.Tools, a.Hooks, a.Tracer, a.Metrics)
	ag := &a
	if err := a.Hooks.Fire(context.Background(), &hooks.AgentInitializedEvent{Agent: ag}); err != nil {
		a.Logger.Warn(context.Background(), "agent: AgentInitialized hook error", "error", err)
	}
	return ag
}

// History implements conversation.Agent.
func (a *Agent) History() model.Messages { return a.history }

// SetHistory implements conversation.Agent.
func (a *Agent) SetHistory(msgs model.Messages) { a.history = msgs }

// State returns the agent-lifetime scratchpad.
func (a *Agent) State() *State { return a.state }

// Invoke drives StreamAsync to completion, discarding intermediate
// callbacks (spec §4.6 "invoke... internally drives stream_async").
func (a *Agent) Invoke(ctx context.Context, prompt any, opts ...Option) (Result, error) {
	return a.StreamAsync(ctx, prompt, nil, opts...)
}

// StructuredOutput drives the event loop with a synthetic structured_output
// tool injected, validating the model's call against schema (spec §4.9).
func (a *Agent) StructuredOutput(ctx context.Context, schema json.RawMessage, description, prompt string, opts ...Option) (Result, error) {
	if schema == nil {
		schema = a.DefaultStructuredOutputSchema
	}
	adapter, err := structuredoutput.New(schema)
	if err != nil {
		return Result{}, err
	}
	opts = append(opts, withStructuredOutput(adapter, description))
	return a.StreamAsync(ctx, prompt, nil, opts...)
}

// Option configures one Invoke/StreamAsync/StructuredOutput call.
type Option func(*callOptions)

type callOptions struct {
	extras           map[string]any
	structuredOutput *structuredoutput.Adapter
	soDescription    string
}

// WithExtras attaches caller-supplied invocation_state extras (spec §9).
func WithExtras(extras map[string]any) Option {
	return func(o *callOptions) { o.extras = extras }
}

func withStructuredOutput(a *structuredoutput.Adapter, description string) Option {
	return func(o *callOptions) { o.structuredOutput = a; o.soDescription = description }
}

// StreamAsync drives the event loop to completion, forwarding every
// non-terminal event to sink (spec §4.6).
func (a *Agent) StreamAsync(ctx context.Context, prompt any, sink func(eventloop.Callback), opts ...Option) (Result, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	if sink == nil {
		sink = func(eventloop.Callback) {}
	}

	state := invocation.New(co.extras)

	msg, err := normalizePrompt(prompt)
	if err != nil {
		return Result{}, err
	}
	a.history = append(a.history, msg)
	if err := a.Hooks.Fire(ctx, &hooks.MessageAddedEvent{Agent: a, Message: msg}); err != nil {
		a.Logger.Warn(ctx, "agent: MessageAdded hook error", "error", err)
	}

	if err := a.Hooks.Fire(ctx, &hooks.BeforeInvocationEvent{Agent: a}); err != nil {
		return Result{}, fmt.Errorf("before_invocation hook: %w", err)
	}

	operation := "invoke_agent"
	if co.structuredOutput != nil {
		operation = "structured_output"
	}
	var system, requestModel string
	if mi, ok := a.ModelClient.(model.ModelIdentifier); ok {
		system = mi.System()
		requestModel = mi.ModelID()
	}

	ctx, span := a.Tracer.Start(ctx, "invoke_agent "+a.Name)
	span.SetAttributes(
		"system", system,
		"agent.name", a.Name,
		"operation.name", operation,
		"request.model", requestModel,
	)
	span.AddEvent("gen_ai.user.message")
	defer span.End()

	deps := eventloop.Deps{
		ModelClient:  a.ModelClient,
		ToolRegistry: a.Tools,
		Hooks:        a.Hooks,
		Executor:     a.executor,
		Retry:        a.Retry,
		Logger:       a.Logger,
		Tracer:       a.Tracer,
		Metrics:      a.Metrics,
		SystemPrompt: a.System,
	}
	if co.structuredOutput != nil {
		deps.ExtraToolSpecs = []model.ToolSpec{co.structuredOutput.Spec(co.soDescription)}
		deps.StructuredOutput = co.structuredOutput
	}

	stop, err := a.runWithOverflowRecovery(ctx, deps, state, sink)
	afterErr := a.Hooks.Fire(ctx, &hooks.AfterInvocationEvent{Agent: a, Err: err})
	if afterErr != nil {
		a.Logger.Warn(ctx, "agent: AfterInvocation hook error", "error", afterErr)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return Result{}, err
	}

	result := Result{
		Message:      stop.Message,
		StopReason:   stop.StopReason,
		Usage:        stop.Usage,
		Metrics:      stop.Metrics,
		RequestState: stop.RequestState,
	}
	if co.structuredOutput != nil {
		result.StructuredOutput, _ = state.StructuredOutput()
	}
	return result, nil
}

func (a *Agent) runWithOverflowRecovery(ctx context.Context, deps eventloop.Deps, state *invocation.State, sink func(eventloop.Callback)) (eventloop.Stop, error) {
	stop, err := eventloop.Run(ctx, a, deps, &a.history, state, sink)
	if err == nil {
		a.Conversation.ApplyManagement(a)
		return stop, nil
	}
	if !errors.Is(err, model.ErrContextWindowOverflow) {
		return eventloop.Stop{}, err
	}
	if reduceErr := a.Conversation.ReduceContext(a); reduceErr != nil {
		return eventloop.Stop{}, err
	}
	stop, err = eventloop.Run(ctx, a, deps, &a.history, state, sink)
	if err == nil {
		a.Conversation.ApplyManagement(a)
	}
	return stop, err
}

func normalizePrompt(prompt any) (model.Message, error) {
	switch v := prompt.(type) {
	case string:
		return model.Message{Role: model.RoleUser, Content: []model.ContentBlock{model.TextBlock(v)}}, nil
	case []model.ContentBlock:
		return model.Message{Role: model.RoleUser, Content: v}, nil
	case model.Message:
		return v, nil
	default:
		return model.Message{}, fmt.Errorf("agent: unsupported prompt type %T", prompt)
	}
}
