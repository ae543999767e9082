// Package assembler implements the streaming assembler: a pure state machine
// that folds a provider's StreamEvent sequence into a canonical assistant
// Message plus a StopReason and usage/metrics totals, while emitting
// per-chunk CallbackEvents for observers (spec §4.2).
package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/agentcore/agentcore/model"
	"github.com/agentcore/agentcore/telemetry"
)

// blockKind classifies the content block currently being accumulated. A
// block opened without an explicit ToolUseStart is "undetermined" until its
// first delta arrives, since text and reasoning blocks share the same
// content_block_start shape on the wire.
type blockKind int

const (
	blockUndetermined blockKind = iota
	blockText
	blockToolUse
	blockReasoning
)

// block accumulates one in-flight content block between content_block_start
// and content_block_stop.
type block struct {
	kind blockKind

	text string

	toolUseID    string
	toolUseName  string
	toolUseInput strings.Builder

	reasoningText      string
	reasoningSignature string
}

// Assembler is a single-cycle state machine; construct a new one per model
// call (spec §4.2 "one instance per cycle").
type Assembler struct {
	logger telemetry.Logger

	started bool
	role    model.Role

	blocks map[int]*block

	content []model.ContentBlock

	usage   model.Usage
	metrics model.Metrics

	stopReason model.StopReason
	done       bool
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger attaches a logger used to report skipped/malformed events. If
// omitted, a NoopLogger is used.
func WithLogger(l telemetry.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// New constructs an Assembler ready to consume one provider stream.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		blocks: make(map[int]*block),
		logger: telemetry.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feed advances the state machine by one StreamEvent, returning zero or more
// CallbackEvents produced as a direct consequence. Feed never returns an
// error: any unexpected event tag or malformed field is logged and skipped
// (spec §4.2 "Failure"). Feed is a no-op after the assembler has reached its
// terminal state (message_stop observed, or Finish has been called).
func (a *Assembler) Feed(ctx context.Context, evt model.StreamEvent) []CallbackEvent {
	if a.done {
		return nil
	}
	switch evt.Type {
	case model.EventMessageStart:
		a.started = true
		a.role = evt.Role
		return nil

	case model.EventContentBlockStart:
		b := &block{kind: blockUndetermined}
		if evt.Start != nil && evt.Start.ToolUse != nil {
			b.kind = blockToolUse
			b.toolUseID = evt.Start.ToolUse.ID
			b.toolUseName = evt.Start.ToolUse.Name
		}
		a.blocks[evt.Index] = b
		return nil

	case model.EventContentBlockDelta:
		return a.applyDelta(evt.Index, evt.Delta)

	case model.EventContentBlockStop:
		a.commitBlock(ctx, evt.Index)
		return nil

	case model.EventMessageStop:
		a.stopReason = evt.StopReason
		a.done = true
		return nil

	case model.EventMetadata:
		var cbs []CallbackEvent
		if evt.Usage != nil {
			a.usage = a.usage.Add(*evt.Usage)
			cbs = append(cbs, CallbackEvent{Kind: CallbackUsage, Usage: *evt.Usage})
		}
		if evt.Metrics != nil {
			a.metrics = a.metrics.Add(*evt.Metrics)
			cbs = append(cbs, CallbackEvent{Kind: CallbackMetrics, Metrics: *evt.Metrics})
		}
		return cbs

	case model.EventRedactContent:
		// The entire in-flight assistant message is replaced (spec §9 Open
		// Questions: "Implementers should treat the entire in-flight
		// assistant message as replaced").
		if evt.HasRedactAssistant {
			a.blocks = make(map[int]*block)
			a.content = []model.ContentBlock{model.TextBlock(evt.RedactAssistantMessage)}
		}
		return nil

	default:
		a.logger.Warn(ctx, "assembler: skipping unexpected stream event", "type", string(evt.Type))
		return nil
	}
}

func (a *Assembler) applyDelta(index int, delta *model.BlockDelta) []CallbackEvent {
	if delta == nil {
		return nil
	}
	b, ok := a.blocks[index]
	if !ok {
		// Provider sent a delta before a block_start; synthesize one rather
		// than dropping the content.
		b = &block{kind: blockUndetermined}
		a.blocks[index] = b
	}
	switch {
	case delta.Text != "":
		if b.kind == blockUndetermined {
			b.kind = blockText
		}
		b.text += delta.Text
		return []CallbackEvent{{Kind: CallbackTextDelta, Index: index, TextDelta: delta.Text}}

	case delta.ToolUseInput != "":
		if b.kind == blockUndetermined {
			b.kind = blockToolUse
		}
		b.toolUseInput.WriteString(delta.ToolUseInput)
		return []CallbackEvent{{
			Kind:              CallbackToolUseDelta,
			Index:             index,
			ToolUseID:         b.toolUseID,
			ToolUseName:       b.toolUseName,
			ToolUseInputDelta: delta.ToolUseInput,
		}}

	case delta.ReasoningText != "" || delta.ReasoningSignature != "":
		if b.kind == blockUndetermined {
			b.kind = blockReasoning
		}
		b.reasoningText += delta.ReasoningText
		b.reasoningSignature += delta.ReasoningSignature
		return []CallbackEvent{{
			Kind:                    CallbackReasoningDelta,
			Index:                   index,
			ReasoningTextDelta:      delta.ReasoningText,
			ReasoningSignatureDelta: delta.ReasoningSignature,
		}}
	}
	return nil
}

// commitBlock finalizes the block at index into a[index]'s content
// accumulator and drops the in-flight state (spec §4.2 "Commit rules").
func (a *Assembler) commitBlock(ctx context.Context, index int) {
	b, ok := a.blocks[index]
	if !ok {
		return
	}
	delete(a.blocks, index)

	switch b.kind {
	case blockText:
		if b.text != "" {
			a.content = append(a.content, model.TextBlock(b.text))
		}
		// Blank text is dropped here; pre-send hygiene (applied to history,
		// not inside the assembler) handles the remaining "[blank text]"
		// substitution policy (spec §4.2).

	case blockToolUse:
		input := parseToolInput(b.toolUseInput.String())
		a.content = append(a.content, model.ToolUseBlock(b.toolUseID, b.toolUseName, input))

	case blockReasoning:
		a.content = append(a.content, model.ContentBlock{Reasoning: &model.ReasoningBlock{
			Text:      b.reasoningText,
			Signature: b.reasoningSignature,
		}})

	case blockUndetermined:
		// A block opened and closed without ever receiving a delta. Nothing
		// to commit.

	default:
		a.logger.Warn(ctx, "assembler: committing block of unknown kind")
	}
}

// parseToolInput concatenates accumulated JSON fragments and parses them.
// On parse failure the tool call is still emitted with an empty object input
// (spec §4.2 commit rules; §7 "Malformed tool arguments JSON").
func parseToolInput(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return map[string]any{}
	}
	return v
}

// Finish returns the terminal Result. If message_stop was never observed,
// Finish synthesizes StopReasonEndTurn with whatever content was accumulated
// (spec §4.2 "If message_stop never arrives...").
func (a *Assembler) Finish() Result {
	stopReason := a.stopReason
	if stopReason == "" {
		stopReason = model.StopReasonEndTurn
	}
	role := a.role
	if role == "" {
		role = model.RoleAssistant
	}
	a.done = true
	return Result{
		StopReason: stopReason,
		Message:    model.Message{Role: role, Content: a.content},
		Usage:      a.usage,
		Metrics:    a.metrics,
	}
}

// Run drains iter, feeding every StreamEvent into a fresh Assembler and
// invoking sink for every CallbackEvent produced along the way. It returns
// the terminal Result once the stream ends (spec §4.2).
//
// Run never returns a parse/protocol error from the stream content itself;
// it only returns an error if the underlying iterator itself fails (for
// example, a provider transport error, ErrModelThrottled, or
// ErrContextWindowOverflow), which callers must handle per spec §4.3/§7.
func Run(ctx context.Context, iter model.StreamIterator, sink func(CallbackEvent), opts ...Option) (Result, error) {
	a := New(opts...)
	for {
		evt, err := iter.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Result{}, err
		}
		for _, cb := range a.Feed(ctx, evt) {
			if sink != nil {
				sink(cb)
			}
		}
		if a.done {
			break
		}
	}
	return a.Finish(), nil
}
