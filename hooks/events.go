package hooks

import (
	"context"

	"github.com/agentcore/agentcore/invocation"
	"github.com/agentcore/agentcore/model"
)

type (
	// ToolEvent is one item yielded by a Tool's Stream iterator. Exactly one
	// of Callback or Result is populated; the final item of a stream MUST
	// carry Result (spec §4.5).
	ToolEvent struct {
		Callback any
		Result   *model.ToolResult
	}

	// ToolStream is the pull-based async iterator a Tool's Stream method
	// returns.
	ToolStream interface {
		Next(ctx context.Context) (ToolEvent, error)
		Close() error
	}

	// Tool is the minimal capability interface the tool executor depends
	// on. It is declared here (rather than in the tools package) purely so
	// BeforeToolCallEvent/AfterToolCallEvent can reference it without hooks
	// importing tools — any type with this method set, from any package,
	// satisfies it structurally (spec §9 "duck-typed callable tool").
	Tool interface {
		Spec() model.ToolSpec
		Stream(ctx context.Context, toolUse model.ToolUse, state *invocation.State) (ToolStream, error)
	}
)

type (
	// AgentInitializedEvent fires at the end of agent construction.
	AgentInitializedEvent struct {
		Agent any
	}

	// BeforeInvocationEvent fires at the start of Invoke/StreamAsync/
	// StructuredOutput.
	BeforeInvocationEvent struct {
		Agent any
	}

	// AfterInvocationEvent fires at the end of the same call, success or
	// failure.
	AfterInvocationEvent struct {
		Agent any
		Err   error
	}

	// MessageAddedEvent fires just after a message is appended to history.
	MessageAddedEvent struct {
		Agent   any
		Message model.Message
	}

	// BeforeModelCallEvent fires before each model call, including
	// retries.
	BeforeModelCallEvent struct {
		Agent any
	}

	// StopResponse carries the terminal outcome of a successful model call.
	StopResponse struct {
		StopReason model.StopReason
		Message    model.Message
		Usage      model.Usage
		Metrics    model.Metrics
	}

	// AfterModelCallEvent fires after each model call attempt, success or
	// failure. Setting Retry to true forces the retry loop to iterate again
	// even on success (spec §4.4 event catalog).
	AfterModelCallEvent struct {
		Agent        any
		StopResponse *StopResponse
		Err          error
		Retry        bool
	}

	// BeforeToolCallEvent fires before each tool call. SelectedTool may be
	// replaced with another tool (even one outside the registry); ToolUse
	// may be rewritten in place; InvocationState may be mutated; setting
	// CancelTool to a non-empty reason skips invocation and synthesizes an
	// error result (spec §4.4, §4.5 step 3).
	BeforeToolCallEvent struct {
		Agent           any
		SelectedTool    Tool
		ToolUse         *model.ToolUse
		InvocationState *invocation.State
		CancelTool      string
	}

	// AfterToolCallEvent fires after each tool call. Result may be replaced
	// (spec §4.4, §8 invariant 10).
	AfterToolCallEvent struct {
		Agent           any
		SelectedTool    Tool
		ToolUse         model.ToolUse
		InvocationState *invocation.State
		Result          *model.ToolResult
		Err             error
	}
)

func (*AgentInitializedEvent) Type() EventType { return AgentInitialized }
func (*BeforeInvocationEvent) Type() EventType { return BeforeInvocation }
func (*AfterInvocationEvent) Type() EventType  { return AfterInvocation }
func (*MessageAddedEvent) Type() EventType     { return MessageAdded }
func (*BeforeModelCallEvent) Type() EventType  { return BeforeModelCall }
func (*AfterModelCallEvent) Type() EventType   { return AfterModelCall }
func (*BeforeToolCallEvent) Type() EventType   { return BeforeToolCall }
func (*AfterToolCallEvent) Type() EventType    { return AfterToolCall }
