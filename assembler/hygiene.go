package assembler

import (
	"strings"

	"github.com/agentcore/agentcore/model"
)

// blankTextPlaceholder is substituted for blank text blocks in assistant
// messages that contain no tool_use blocks (spec §4.2).
const blankTextPlaceholder = "[blank text]"

// Hygiene applies the pre-send blank-text policy to a single assistant
// message, as specified in spec §4.2: if the message contains at least one
// tool_use block, blank text blocks are dropped entirely (providers reject
// messages with empty parts, but the tool-call structure must survive
// untouched); if it has no tool_use blocks, blank text blocks are replaced
// with the literal placeholder so no text part is sent empty. A message with
// no content blocks at all is returned with no content blocks.
//
// Hygiene is idempotent: Hygiene(Hygiene(m)) == Hygiene(m) (spec §8,
// invariant 9), since a second pass sees only non-blank text (either
// original content or the placeholder, neither of which is blank) and
// dropped blocks stay dropped.
func Hygiene(msg model.Message) model.Message {
	if msg.Role != model.RoleAssistant {
		return msg
	}
	hasToolUse := false
	for _, c := range msg.Content {
		if c.ToolUse != nil {
			hasToolUse = true
			break
		}
	}

	out := make([]model.ContentBlock, 0, len(msg.Content))
	for _, c := range msg.Content {
		if !c.IsText() || strings.TrimSpace(c.Text) != "" {
			out = append(out, c)
			continue
		}
		// c is blank text.
		if hasToolUse {
			continue // dropped
		}
		out = append(out, model.TextBlock(blankTextPlaceholder))
	}
	return model.Message{Role: msg.Role, Content: out}
}

// HygieneHistory applies Hygiene to every assistant message in msgs,
// returning a new slice. Non-assistant messages pass through unchanged.
// Callers apply this to history immediately before each model call, not
// inside the assembler itself (spec §4.2).
func HygieneHistory(msgs model.Messages) model.Messages {
	out := make(model.Messages, len(msgs))
	for i, m := range msgs {
		out[i] = Hygiene(m)
	}
	return out
}
