// Package conversation implements the conversation manager contract (spec
// §4.7): trimming history after every successful invocation, and recovering from a
// model-reported context window overflow.
package conversation

import (
	"errors"
	"fmt"

	"github.com/agentcore/agentcore/model"
)

// Agent is the minimal surface a Manager needs: direct, in-place access to
// the message history. The core agent facade satisfies this.
type Agent interface {
	History() model.Messages
	SetHistory(model.Messages)
}

// Manager is the conversation manager contract. Implementations may rewrite
// history in place; the core depends on no other behavior.
type Manager interface {
	// ApplyManagement runs once per successful invocation, after the event
	// loop has returned. It is not called between cycles, so an invocation
	// that appends several assistant messages triggers it only once.
	ApplyManagement(agent Agent)

	// ReduceContext runs when the model raises ContextWindowOverflow. It
	// must shrink history so a subsequent call is likely to fit, or return
	// ErrCannotReduce if it cannot.
	ReduceContext(agent Agent) error
}

// ErrCannotReduce is returned by ReduceContext when no further reduction is
// possible (spec §4.7 "If it cannot, it re-raises").
var ErrCannotReduce = errors.New("conversation: cannot reduce context further")

// SlidingWindow is the default Manager: keeps the WindowSize most recent
// messages, snapping the window boundary forward so no tool_use block is
// ever separated from its tool_result message (spec §4.7).
type SlidingWindow struct {
	// WindowSize is the target number of trailing messages to keep.
	WindowSize int

	// MinWindowSize is the floor ReduceContext will not cross; if snapping
	// would leave fewer messages than this, ReduceContext re-raises.
	MinWindowSize int
}

// NewSlidingWindow constructs a SlidingWindow with the given target and
// minimum sizes.
func NewSlidingWindow(windowSize, minWindowSize int) *SlidingWindow {
	return &SlidingWindow{WindowSize: windowSize, MinWindowSize: minWindowSize}
}

// ApplyManagement trims history to the trailing WindowSize messages,
// snapping forward to preserve tool_use/tool_result pairing.
func (w *SlidingWindow) ApplyManagement(agent Agent) {
	msgs := agent.History()
	if w.WindowSize <= 0 || len(msgs) <= w.WindowSize {
		return
	}
	trimmed, ok := snapTo(msgs, len(msgs)-w.WindowSize)
	if !ok {
		return
	}
	agent.SetHistory(trimmed)
}

// ReduceContext keeps the newest half of history (snapped forward to
// preserve tool_use/tool_result pairing); if the result would fall below
// MinWindowSize, it re-raises ErrCannotReduce instead of mutating history
// (spec §4.7). Retrying the model call is left to the caller.
func (w *SlidingWindow) ReduceContext(agent Agent) error {
	msgs := agent.History()
	target := len(msgs) / 2
	if target < w.minWindowSize() {
		return fmt.Errorf("%w: window of %d messages would fall below minimum %d", ErrCannotReduce, target, w.minWindowSize())
	}
	trimmed, ok := snapTo(msgs, len(msgs)-target)
	if !ok || len(trimmed) < w.minWindowSize() {
		return fmt.Errorf("%w: snapping to preserve tool_use/tool_result pairing left %d messages", ErrCannotReduce, len(trimmed))
	}
	agent.SetHistory(trimmed)
	return nil
}

func (w *SlidingWindow) minWindowSize() int {
	if w.MinWindowSize <= 0 {
		return 1
	}
	return w.MinWindowSize
}

// snapTo drops the leading `drop` messages from msgs, then walks the cut
// point forward until it does not land on a user message whose tool_result
// blocks answer an assistant message's tool_use blocks that would otherwise
// be dropped (spec §4.7 "window boundary is snapped forward until this
// holds"). Returns ok=false if no valid cut point exists before the end of
// history.
func snapTo(msgs model.Messages, drop int) (model.Messages, bool) {
	if drop <= 0 {
		return msgs, true
	}
	if drop >= len(msgs) {
		return nil, false
	}
	for start := drop; start < len(msgs); start++ {
		if isValidCut(msgs, start) {
			return msgs[start:], true
		}
	}
	return nil, false
}

// isValidCut reports whether starting the retained window at index start
// leaves no dangling tool_result: true unless msgs[start] is a user message
// that contains tool_result blocks (which would then be missing their
// matching tool_use).
func isValidCut(msgs model.Messages, start int) bool {
	if start == 0 || start >= len(msgs) {
		return true
	}
	msg := msgs[start]
	if msg.Role != model.RoleUser {
		return true
	}
	for _, block := range msg.Content {
		if block.ToolResult != nil {
			return false
		}
	}
	return true
}
