// Package session defines the four-method session manager contract (spec
// §6) and the backend-independent logical schema persisted by it. The core
// depends only on the Manager interface; concrete backends are external
// collaborators (sessionstore/redis is one).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/agentcore/agentcore/model"
)

type (
	// Session is the durable, top-level conversational container.
	Session struct {
		SessionID   string
		SessionType string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Agent is the persisted state of one agent within a session: its
	// scratchpad state plus the conversation manager's own opaque state
	// (spec §4.7, §9 "conversation_manager_state is opaque to the core").
	Agent struct {
		AgentID                  string
		State                    json.RawMessage
		ConversationManagerState json.RawMessage
		CreatedAt                time.Time
		UpdatedAt                time.Time
	}

	// Message is one persisted history entry. MessageID is a dense,
	// monotonic index per agent within a session. RedactMessage, when
	// non-nil, is the replacement content written by RedactMessage and
	// takes precedence over Message for any caller reading history back.
	Message struct {
		MessageID     int
		Message       model.Message
		RedactMessage *model.Message
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

// SessionTypeAgent is the only SessionType the core constructs (spec §6
// "session_type=AGENT").
const SessionTypeAgent = "AGENT"

var (
	// ErrSessionNotFound is returned by Manager implementations when a
	// session has not been initialized.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrMessageNotFound is returned when RedactMessage targets an unknown
	// message ID.
	ErrMessageNotFound = errors.New("session: message not found")
)

// AgentHandle is the minimal read surface a Manager needs to persist and
// restore agent-scoped state (spec §6, §3 AgentState/conversation_manager_state).
type AgentHandle interface {
	AgentID() string
	MarshalState() (json.RawMessage, error)
	UnmarshalState(json.RawMessage) error
	MarshalConversationManagerState() (json.RawMessage, error)
	UnmarshalConversationManagerState(json.RawMessage) error
}

// Manager is the session manager contract (spec §6): four operations the
// core calls at well-defined lifecycle points. The core never reads or
// writes the backing store directly.
type Manager interface {
	// Initialize loads (or creates) the session and agent record, restoring
	// agent.State and conversation_manager_state onto handle.
	Initialize(ctx context.Context, sessionID string, handle AgentHandle) error

	// AppendMessage persists msg as the next dense index for handle's
	// agent, returning the assigned message ID.
	AppendMessage(ctx context.Context, sessionID string, handle AgentHandle, msg model.Message) (int, error)

	// SyncAgent persists handle's current State and
	// ConversationManagerState.
	SyncAgent(ctx context.Context, sessionID string, handle AgentHandle) error

	// RedactMessage overwrites the persisted content for messageID with
	// redacted, preserving the message's identifier and position.
	RedactMessage(ctx context.Context, sessionID string, messageID int, redacted model.Message) error
}
