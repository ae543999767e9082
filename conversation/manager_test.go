package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/agentcore/model"
)

type fakeAgent struct{ messages model.Messages }

func (a *fakeAgent) History() model.Messages    { return a.messages }
func (a *fakeAgent) SetHistory(m model.Messages) { a.messages = m }

func pairedHistory(n int) model.Messages {
	var msgs model.Messages
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			model.Message{Role: model.RoleUser, Content: []model.ContentBlock{model.TextBlock("hi")}},
			model.Message{Role: model.RoleAssistant, Content: []model.ContentBlock{model.ToolUseBlock("t1", "echo", nil)}},
			model.Message{Role: model.RoleUser, Content: []model.ContentBlock{model.ToolResultBlock("t1", model.ToolResultStatusSuccess, model.TextBlock("ok"))}},
		)
	}
	return msgs
}

func TestApplyManagementNoopUnderWindow(t *testing.T) {
	w := NewSlidingWindow(100, 1)
	agent := &fakeAgent{messages: pairedHistory(2)}
	w.ApplyManagement(agent)
	require.Len(t, agent.messages, 6)
}

func TestApplyManagementTrimsPreservingPairing(t *testing.T) {
	w := NewSlidingWindow(4, 1)
	agent := &fakeAgent{messages: pairedHistory(3)}
	w.ApplyManagement(agent)
	require.True(t, len(agent.messages) <= 6)
	for i, msg := range agent.messages {
		if msg.Role == model.RoleUser {
			for _, b := range msg.Content {
				if b.ToolResult != nil {
					require.Greater(t, i, 0, "tool_result must not be the first retained message")
				}
			}
		}
	}
}

func TestReduceContextErrorsBelowMinimum(t *testing.T) {
	w := NewSlidingWindow(100, 10)
	agent := &fakeAgent{messages: pairedHistory(2)}
	err := w.ReduceContext(agent)
	require.ErrorIs(t, err, ErrCannotReduce)
}

func TestReduceContextHalvesWindow(t *testing.T) {
	w := NewSlidingWindow(100, 1)
	agent := &fakeAgent{messages: pairedHistory(10)}
	before := len(agent.messages)
	err := w.ReduceContext(agent)
	require.NoError(t, err)
	require.Less(t, len(agent.messages), before)
}
