// Package inmem provides an in-memory implementation of session.Manager.
//
// It is intended for tests and local development; production deployments
// should use a durable backend (for example sessionstore/redis).
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/agentcore/agentcore/model"
	"github.com/agentcore/agentcore/session"
)

type sessionRecord struct {
	session.Session
	agents map[string]*agentRecord
}

type agentRecord struct {
	session.Agent
	messages []session.Message
}

// Manager is an in-memory implementation of session.Manager. Safe for
// concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*sessionRecord
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{sessions: make(map[string]*sessionRecord)}
}

// Initialize implements session.Manager.
func (m *Manager) Initialize(_ context.Context, sessionID string, handle session.AgentHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	sr, ok := m.sessions[sessionID]
	if !ok {
		sr = &sessionRecord{
			Session: session.Session{
				SessionID:   sessionID,
				SessionType: session.SessionTypeAgent,
				CreatedAt:   now,
				UpdatedAt:   now,
			},
			agents: make(map[string]*agentRecord),
		}
		m.sessions[sessionID] = sr
	}

	ar, ok := sr.agents[handle.AgentID()]
	if !ok {
		ar = &agentRecord{Agent: session.Agent{
			AgentID:   handle.AgentID(),
			CreatedAt: now,
			UpdatedAt: now,
		}}
		sr.agents[handle.AgentID()] = ar
		return nil
	}

	if ar.State != nil {
		if err := handle.UnmarshalState(ar.State); err != nil {
			return err
		}
	}
	if ar.ConversationManagerState != nil {
		if err := handle.UnmarshalConversationManagerState(ar.ConversationManagerState); err != nil {
			return err
		}
	}
	return nil
}

// AppendMessage implements session.Manager.
func (m *Manager) AppendMessage(_ context.Context, sessionID string, handle session.AgentHandle, msg model.Message) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ar, err := m.agent(sessionID, handle.AgentID())
	if err != nil {
		return 0, err
	}
	id := len(ar.messages)
	now := time.Now().UTC()
	ar.messages = append(ar.messages, session.Message{
		MessageID: id,
		Message:   msg,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return id, nil
}

// SyncAgent implements session.Manager.
func (m *Manager) SyncAgent(_ context.Context, sessionID string, handle session.AgentHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ar, err := m.agent(sessionID, handle.AgentID())
	if err != nil {
		return err
	}
	state, err := handle.MarshalState()
	if err != nil {
		return err
	}
	cmState, err := handle.MarshalConversationManagerState()
	if err != nil {
		return err
	}
	ar.State = state
	ar.ConversationManagerState = cmState
	ar.UpdatedAt = time.Now().UTC()
	return nil
}

// RedactMessage implements session.Manager.
func (m *Manager) RedactMessage(_ context.Context, sessionID string, messageID int, redacted model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sr, ok := m.sessions[sessionID]
	if !ok {
		return session.ErrSessionNotFound
	}
	for _, ar := range sr.agents {
		for i := range ar.messages {
			if ar.messages[i].MessageID == messageID {
				redactedCopy := redacted
				ar.messages[i].RedactMessage = &redactedCopy
				ar.messages[i].UpdatedAt = time.Now().UTC()
				return nil
			}
		}
	}
	return session.ErrMessageNotFound
}

func (m *Manager) agent(sessionID, agentID string) (*agentRecord, error) {
	sr, ok := m.sessions[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	ar, ok := sr.agents[agentID]
	if !ok {
		ar = &agentRecord{Agent: session.Agent{AgentID: agentID}}
		sr.agents[agentID] = ar
	}
	return ar, nil
}
