package assembler

import "github.com/agentcore/agentcore/model"

// CallbackKind tags the variant carried by a CallbackEvent.
type CallbackKind string

const (
	// CallbackTextDelta reports an incremental text fragment appended to the
	// open text block.
	CallbackTextDelta CallbackKind = "text_delta"
	// CallbackToolUseDelta reports an incremental JSON-argument fragment for
	// the open tool_use block, so UIs can render live tool arguments.
	CallbackToolUseDelta CallbackKind = "tool_use_delta"
	// CallbackReasoningDelta reports incremental reasoning text or signature.
	CallbackReasoningDelta CallbackKind = "reasoning_delta"
	// CallbackUsage reports an incremental usage update.
	CallbackUsage CallbackKind = "usage"
	// CallbackMetrics reports an incremental metrics update.
	CallbackMetrics CallbackKind = "metrics"
)

// CallbackEvent is an observer-visible record yielded by the assembler while
// it folds a provider stream into a Message. Callback events never affect
// control flow (spec §4.2, GLOSSARY).
type CallbackEvent struct {
	Kind CallbackKind

	// Index identifies the content block this delta belongs to, for
	// CallbackTextDelta/ToolUseDelta/ReasoningDelta.
	Index int

	// TextDelta is populated for CallbackTextDelta.
	TextDelta string

	// ToolUseID/ToolUseName/ToolUseInputDelta are populated for
	// CallbackToolUseDelta.
	ToolUseID         string
	ToolUseName       string
	ToolUseInputDelta string

	// ReasoningTextDelta/ReasoningSignatureDelta are populated for
	// CallbackReasoningDelta.
	ReasoningTextDelta      string
	ReasoningSignatureDelta string

	// Usage is populated for CallbackUsage.
	Usage model.Usage
	// Metrics is populated for CallbackMetrics.
	Metrics model.Metrics
}

// Result is the terminal value produced once the assembler folds a complete
// provider stream into a single assistant Message (spec §4.2).
type Result struct {
	StopReason model.StopReason
	Message    model.Message
	Usage      model.Usage
	Metrics    model.Metrics
}
