package inmem

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentcore/agentcore/model"
)

type fakeHandle struct {
	id      string
	state   json.RawMessage
	cmState json.RawMessage
}

func (h *fakeHandle) AgentID() string { return h.id }
func (h *fakeHandle) MarshalState() (json.RawMessage, error) { return h.state, nil }
func (h *fakeHandle) UnmarshalState(raw json.RawMessage) error {
	h.state = raw
	return nil
}
func (h *fakeHandle) MarshalConversationManagerState() (json.RawMessage, error) { return h.cmState, nil }
func (h *fakeHandle) UnmarshalConversationManagerState(raw json.RawMessage) error {
	h.cmState = raw
	return nil
}

func TestAppendMessageAssignsDenseIDs(t *testing.T) {
	m := New()
	ctx := context.Background()
	handle := &fakeHandle{id: "agent-1"}
	require.NoError(t, m.Initialize(ctx, "sess-1", handle))

	id0, err := m.AppendMessage(ctx, "sess-1", handle, model.Message{Role: model.RoleUser})
	require.NoError(t, err)
	id1, err := m.AppendMessage(ctx, "sess-1", handle, model.Message{Role: model.RoleAssistant})
	require.NoError(t, err)
	require.Equal(t, 0, id0)
	require.Equal(t, 1, id1)
}

func TestSyncAgentRoundTripsState(t *testing.T) {
	m := New()
	ctx := context.Background()
	handle := &fakeHandle{id: "agent-1", state: json.RawMessage(`{"k":1}`)}
	require.NoError(t, m.Initialize(ctx, "sess-1", handle))
	require.NoError(t, m.SyncAgent(ctx, "sess-1", handle))

	reloaded := &fakeHandle{id: "agent-1"}
	require.NoError(t, m.Initialize(ctx, "sess-1", reloaded))
	require.JSONEq(t, `{"k":1}`, string(reloaded.state))
}

func TestRedactMessageOverwritesContent(t *testing.T) {
	m := New()
	ctx := context.Background()
	handle := &fakeHandle{id: "agent-1"}
	require.NoError(t, m.Initialize(ctx, "sess-1", handle))
	id, err := m.AppendMessage(ctx, "sess-1", handle, model.Message{Role: model.RoleUser, Content: []model.ContentBlock{model.TextBlock("secret")}})
	require.NoError(t, err)

	require.NoError(t, m.RedactMessage(ctx, "sess-1", id, model.Message{Role: model.RoleUser, Content: []model.ContentBlock{model.TextBlock("[redacted]")}}))

	sr := m.sessions["sess-1"]
	ar := sr.agents["agent-1"]
	require.NotNil(t, ar.messages[id].RedactMessage)
	require.Equal(t, "[redacted]", ar.messages[id].RedactMessage.Content[0].Text)
}
