package model

import "context"

// StreamEventType tags the variant carried by a StreamEvent (spec §4.1).
type StreamEventType string

const (
	EventMessageStart      StreamEventType = "message_start"
	EventContentBlockStart StreamEventType = "content_block_start"
	EventContentBlockDelta StreamEventType = "content_block_delta"
	EventContentBlockStop  StreamEventType = "content_block_stop"
	EventMessageStop       StreamEventType = "message_stop"
	EventMetadata          StreamEventType = "metadata"
	EventRedactContent     StreamEventType = "redact_content"
)

type (
	// StreamEvent is one tagged chunk of a provider's streaming response. The
	// assembler folds a sequence of these into a canonical Message plus a
	// StopReason and usage/metrics totals (spec §4.1, §4.2). Every provider
	// adapter is responsible for producing this canonical sequence; the core
	// never branches on provider identity.
	StreamEvent struct {
		Type StreamEventType

		// MessageStart fields.
		Role Role

		// ContentBlockStart / ContentBlockStop fields.
		Index int
		Start *BlockStart

		// ContentBlockDelta fields.
		Delta *BlockDelta

		// MessageStop fields.
		StopReason StopReason

		// Metadata fields. Either may be nil; present fields are additive.
		Usage   *Usage
		Metrics *Metrics

		// RedactContent fields. Either may be empty.
		RedactAssistantMessage string
		RedactUserMessage      string
		HasRedactAssistant     bool
		HasRedactUser          bool
	}

	// BlockStart opens a content block. ToolUse is non-nil when the block
	// being opened is a tool_use block; otherwise the block is a plain
	// text/reasoning block whose kind is determined by the first delta it
	// receives.
	BlockStart struct {
		ToolUse *ToolUseStart
	}

	// ToolUseStart carries the tool identity for a newly opened tool_use
	// block. Input arrives incrementally via BlockDelta.ToolUseInput.
	ToolUseStart struct {
		ID   string
		Name string
	}

	// BlockDelta is an incremental fragment appended to the currently open
	// content block. Exactly one field is populated per delta.
	BlockDelta struct {
		// Text appends to an open text block.
		Text string
		// ToolUseInput appends a JSON fragment to an open tool_use block's
		// input accumulator.
		ToolUseInput string
		// ReasoningText appends to an open reasoning block's text.
		ReasoningText string
		// ReasoningSignature appends to an open reasoning block's signature.
		ReasoningSignature string
	}
)

// Request captures the inputs for one model invocation (spec §6).
type Request struct {
	Messages     Messages
	Tools        []ToolSpec
	SystemPrompt string
}

// Client is the provider-agnostic model contract the event loop consumes
// (spec §6). Implementations translate Request into a provider call and
// adapt the response into the canonical StreamEvent sequence.
//
// Stream raises ErrModelThrottled on provider rate-limit signals and
// ErrContextWindowOverflow on prompt-too-long signals. All other errors are
// provider-defined and treated as non-retryable by the core.
type Client interface {
	Stream(ctx context.Context, req Request) (StreamIterator, error)
}

// ModelIdentifier is an optional capability a Client implementation may
// expose so the facade can tag the invoke_agent span with provider/model
// identity (spec §4.6). Clients that don't implement it simply leave those
// span attributes blank.
type ModelIdentifier interface {
	// System names the provider backing this client, e.g. "anthropic".
	System() string
	// ModelID names the specific model configured on this client.
	ModelID() string
}

// StreamIterator is a pull-based async iterator over a provider's streaming
// response. Next returns (event, nil) for each chunk and (zero, io.EOF) once
// the stream is exhausted. Implementations must be cancellable via ctx.
type StreamIterator interface {
	Next(ctx context.Context) (StreamEvent, error)
	Close() error
}
