package assembler

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agentcore/agentcore/model"
)

// genMessage builds an arbitrary assistant or user message from a handful of
// blank/non-blank text blocks and an optional tool_use block, covering the
// cases Hygiene branches on.
func genMessage() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(model.RoleAssistant, model.RoleUser),
		gen.SliceOfN(3, gen.OneConstOf("", "   ", "hello", "\t")),
		gen.Bool(),
	).Map(func(vs []any) model.Message {
		role := vs[0].(model.Role)
		texts := vs[1].([]string)
		hasToolUse := vs[2].(bool)

		var content []model.ContentBlock
		for _, txt := range texts {
			content = append(content, model.TextBlock(txt))
		}
		if hasToolUse {
			content = append(content, model.ToolUseBlock("call-1", "tool", map[string]any{}))
		}
		return model.Message{Role: role, Content: content}
	})
}

// TestHygieneIdempotentProperty verifies spec invariant 9: Hygiene(Hygiene(m))
// == Hygiene(m) for any message.
func TestHygieneIdempotentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Hygiene is idempotent", prop.ForAll(
		func(msg model.Message) bool {
			once := Hygiene(msg)
			twice := Hygiene(once)
			return messagesEqual(once, twice)
		},
		genMessage(),
	))

	properties.Property("Hygiene never leaves a blank text block behind", prop.ForAll(
		func(msg model.Message) bool {
			out := Hygiene(msg)
			if out.Role != model.RoleAssistant {
				return true
			}
			for _, c := range out.Content {
				if c.IsText() && strings.TrimSpace(c.Text) == "" {
					return false
				}
			}
			return true
		},
		genMessage(),
	))

	properties.TestingRun(t)
}

func messagesEqual(a, b model.Message) bool {
	if a.Role != b.Role || len(a.Content) != len(b.Content) {
		return false
	}
	for i := range a.Content {
		if a.Content[i].Text != b.Content[i].Text {
			return false
		}
		if (a.Content[i].ToolUse == nil) != (b.Content[i].ToolUse == nil) {
			return false
		}
	}
	return true
}
