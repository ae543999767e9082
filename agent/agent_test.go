package agent

import (
	"context"
	"io"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/agentcore/conversation"
	"github.com/agentcore/agentcore/model"
	"github.com/agentcore/agentcore/telemetry"
)

type attrSpan struct {
	attrs []any
}

func (s *attrSpan) End(...trace.SpanEndOption)              {}
func (s *attrSpan) AddEvent(string, ...any)                 {}
func (s *attrSpan) SetAttributes(kv ...any)                 { s.attrs = append(s.attrs, kv...) }
func (s *attrSpan) SetStatus(codes.Code, string)            {}
func (s *attrSpan) RecordError(error, ...trace.EventOption) {}

type attrTracer struct {
	span *attrSpan
}

func (t *attrTracer) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, telemetry.Span) {
	return ctx, t.span
}

func modelIdentity(client model.Client, system, id string) model.Client {
	return &identifiedClient{Client: client, system: system, id: id}
}

type identifiedClient struct {
	model.Client
	system string
	id     string
}

func (c *identifiedClient) System() string  { return c.system }
func (c *identifiedClient) ModelID() string { return c.id }

type scriptedIterator struct {
	events []model.StreamEvent
	i      int
}

func (it *scriptedIterator) Next(ctx context.Context) (model.StreamEvent, error) {
	if it.i >= len(it.events) {
		return model.StreamEvent{}, io.EOF
	}
	e := it.events[it.i]
	it.i++
	return e, nil
}

func (it *scriptedIterator) Close() error { return nil }

type scriptedClient struct {
	calls int
	plan  []func(req model.Request) (model.StreamIterator, error)
}

func (c *scriptedClient) Stream(ctx context.Context, req model.Request) (model.StreamIterator, error) {
	idx := c.calls
	c.calls++
	if idx >= len(c.plan) {
		idx = len(c.plan) - 1
	}
	return c.plan[idx](req)
}

func endTurn(text string) []model.StreamEvent {
	return []model.StreamEvent{
		{Type: model.EventMessageStart, Role: model.RoleAssistant},
		{Type: model.EventContentBlockStart, Index: 0, Start: &model.BlockStart{}},
		{Type: model.EventContentBlockDelta, Index: 0, Delta: &model.BlockDelta{Text: text}},
		{Type: model.EventContentBlockStop, Index: 0},
		{Type: model.EventMessageStop, StopReason: model.StopReasonEndTurn},
	}
}

func TestInvokeNormalizesStringPrompt(t *testing.T) {
	client := &scriptedClient{plan: []func(model.Request) (model.StreamIterator, error){
		func(model.Request) (model.StreamIterator, error) {
			return &scriptedIterator{events: endTurn("hi there")}, nil
		},
	}}
	a := New(Agent{Name: "test", ModelClient: client})

	result, err := a.Invoke(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, model.StopReasonEndTurn, result.StopReason)
	require.Equal(t, "hi there", result.Message.Content[0].Text)
	require.Equal(t, model.RoleUser, a.History()[0].Role)
}

func TestInvokeSetsInvokeAgentSpanAttributes(t *testing.T) {
	client := &scriptedClient{plan: []func(model.Request) (model.StreamIterator, error){
		func(model.Request) (model.StreamIterator, error) {
			return &scriptedIterator{events: endTurn("hi")}, nil
		},
	}}
	tracer := &attrTracer{span: &attrSpan{}}
	a := New(Agent{
		Name:        "test",
		ModelClient: modelIdentity(client, "anthropic", "claude-x"),
		Tracer:      tracer,
	})

	_, err := a.Invoke(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, []any{
		"system", "anthropic",
		"agent.name", "test",
		"operation.name", "invoke_agent",
		"request.model", "claude-x",
	}, tracer.span.attrs)
}

func TestInvokeRejectsUnsupportedPromptType(t *testing.T) {
	a := New(Agent{Name: "test", ModelClient: &scriptedClient{}})
	_, err := a.Invoke(context.Background(), 42)
	require.Error(t, err)
}

func toolUse(id, name, inputJSON string) []model.StreamEvent {
	return []model.StreamEvent{
		{Type: model.EventMessageStart, Role: model.RoleAssistant},
		{Type: model.EventContentBlockStart, Index: 0, Start: &model.BlockStart{ToolUse: &model.ToolUseStart{ID: id, Name: name}}},
		{Type: model.EventContentBlockDelta, Index: 0, Delta: &model.BlockDelta{ToolUseInput: inputJSON}},
		{Type: model.EventContentBlockStop, Index: 0},
		{Type: model.EventMessageStop, StopReason: model.StopReasonToolUse},
	}
}

func TestStructuredOutputValidatesAndReturnsTypedValue(t *testing.T) {
	client := &scriptedClient{plan: []func(model.Request) (model.StreamIterator, error){
		func(model.Request) (model.StreamIterator, error) {
			return &scriptedIterator{events: toolUse("s1", "structured_output", `{"name":"Ada"}`)}, nil
		},
		func(model.Request) (model.StreamIterator, error) { return &scriptedIterator{events: endTurn("")}, nil },
	}}
	a := New(Agent{Name: "test", ModelClient: client})

	result, err := a.StructuredOutput(
		context.Background(),
		[]byte(`{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`),
		"person name",
		"who is this",
	)
	require.NoError(t, err)
	require.Equal(t, "Ada", result.StructuredOutput.(map[string]any)["name"])
}

func TestInvokeRecoversFromContextWindowOverflow(t *testing.T) {
	client := &scriptedClient{plan: []func(model.Request) (model.StreamIterator, error){
		func(model.Request) (model.StreamIterator, error) { return nil, model.ErrContextWindowOverflow },
		func(model.Request) (model.StreamIterator, error) {
			return &scriptedIterator{events: endTurn("recovered")}, nil
		},
	}}
	a := New(Agent{
		Name:         "test",
		ModelClient:  client,
		Conversation: conversation.NewSlidingWindow(1, 1),
	})
	for i := 0; i < 6; i++ {
		a.SetHistory(append(a.History(),
			model.Message{Role: model.RoleUser, Content: []model.ContentBlock{model.TextBlock("turn")}},
			model.Message{Role: model.RoleAssistant, Content: []model.ContentBlock{model.TextBlock("ack")}},
		))
	}
	before := len(a.History())

	result, err := a.Invoke(context.Background(), "one more")
	require.NoError(t, err)
	require.Equal(t, model.StopReasonEndTurn, result.StopReason)
	require.Less(t, len(a.History())-1, before+1)
}
