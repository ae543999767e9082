// Package redis is a session.Manager backend over Redis: agent state and
// conversation manager state live in one JSON-encoded string value per
// agent, message history lives in a
// list keyed by session and agent so MessageID can double as the list
// index.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agentcore/agentcore/model"
	"github.com/agentcore/agentcore/session"
)

// Config configures the Redis-backed session.Manager.
type Config struct {
	Addr      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// DefaultConfig returns sane local-development defaults.
func DefaultConfig() Config {
	return Config{
		Addr:      "localhost:6379",
		KeyPrefix: "agentcore:session:",
		TTL:       24 * time.Hour,
	}
}

// Manager is a session.Manager backed by a Redis client.
type Manager struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New connects to Redis and returns a Manager, or an error if the initial
// ping fails.
func New(cfg Config) (*Manager, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("sessionstore/redis: connect: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultConfig().KeyPrefix
	}
	return &Manager{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// Close releases the underlying Redis connection.
func (m *Manager) Close() error { return m.client.Close() }

type agentRecord struct {
	State                    json.RawMessage `json:"state,omitempty"`
	ConversationManagerState json.RawMessage `json:"conversation_manager_state,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

func (m *Manager) sessionKey(sessionID string) string { return m.prefix + sessionID }

func (m *Manager) agentsSetKey(sessionID string) string { return m.prefix + sessionID + ":agents" }

func (m *Manager) agentKey(sessionID, agentID string) string {
	return m.prefix + sessionID + ":agent:" + agentID
}

func (m *Manager) messagesKey(sessionID, agentID string) string {
	return m.prefix + sessionID + ":agent:" + agentID + ":messages"
}

// Initialize implements session.Manager.
func (m *Manager) Initialize(ctx context.Context, sessionID string, handle session.AgentHandle) error {
	now := time.Now().UTC()

	created, err := m.client.SetNX(ctx, m.sessionKey(sessionID), now.Format(time.RFC3339Nano), m.ttl).Result()
	if err != nil {
		return fmt.Errorf("sessionstore/redis: initialize session: %w", err)
	}
	_ = created

	agentID := handle.AgentID()
	if err := m.client.SAdd(ctx, m.agentsSetKey(sessionID), agentID).Err(); err != nil {
		return fmt.Errorf("sessionstore/redis: register agent: %w", err)
	}

	raw, err := m.client.Get(ctx, m.agentKey(sessionID, agentID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		rec := agentRecord{CreatedAt: now, UpdatedAt: now}
		return m.putAgentRecord(ctx, sessionID, agentID, rec)
	}
	if err != nil {
		return fmt.Errorf("sessionstore/redis: load agent: %w", err)
	}

	var rec agentRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("sessionstore/redis: decode agent record: %w", err)
	}
	if rec.State != nil {
		if err := handle.UnmarshalState(rec.State); err != nil {
			return err
		}
	}
	if rec.ConversationManagerState != nil {
		if err := handle.UnmarshalConversationManagerState(rec.ConversationManagerState); err != nil {
			return err
		}
	}
	return nil
}

// AppendMessage implements session.Manager.
func (m *Manager) AppendMessage(ctx context.Context, sessionID string, handle session.AgentHandle, msg model.Message) (int, error) {
	key := m.messagesKey(sessionID, handle.AgentID())
	now := time.Now().UTC()

	length, err := m.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("sessionstore/redis: message length: %w", err)
	}
	id := int(length)

	entry := session.Message{MessageID: id, Message: msg, CreatedAt: now, UpdatedAt: now}
	data, err := json.Marshal(entry)
	if err != nil {
		return 0, err
	}
	if err := m.client.RPush(ctx, key, data).Err(); err != nil {
		return 0, fmt.Errorf("sessionstore/redis: append message: %w", err)
	}
	if m.ttl > 0 {
		m.client.Expire(ctx, key, m.ttl)
	}
	return id, nil
}

// SyncAgent implements session.Manager.
func (m *Manager) SyncAgent(ctx context.Context, sessionID string, handle session.AgentHandle) error {
	agentID := handle.AgentID()

	raw, err := m.client.Get(ctx, m.agentKey(sessionID, agentID)).Bytes()
	var rec agentRecord
	switch {
	case errors.Is(err, goredis.Nil):
		rec = agentRecord{CreatedAt: time.Now().UTC()}
	case err != nil:
		return fmt.Errorf("sessionstore/redis: load agent: %w", err)
	default:
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("sessionstore/redis: decode agent record: %w", err)
		}
	}

	state, err := handle.MarshalState()
	if err != nil {
		return err
	}
	cmState, err := handle.MarshalConversationManagerState()
	if err != nil {
		return err
	}
	rec.State = state
	rec.ConversationManagerState = cmState
	rec.UpdatedAt = time.Now().UTC()
	return m.putAgentRecord(ctx, sessionID, agentID, rec)
}

// RedactMessage implements session.Manager. It scans every agent registered
// against the session looking for messageID at its list index, mirroring
// the scan the in-memory backend performs.
func (m *Manager) RedactMessage(ctx context.Context, sessionID string, messageID int, redacted model.Message) error {
	agentIDs, err := m.client.SMembers(ctx, m.agentsSetKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("sessionstore/redis: list agents: %w", err)
	}
	if len(agentIDs) == 0 {
		return session.ErrSessionNotFound
	}

	for _, agentID := range agentIDs {
		key := m.messagesKey(sessionID, agentID)
		raw, err := m.client.LIndex(ctx, key, int64(messageID)).Bytes()
		if errors.Is(err, goredis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("sessionstore/redis: read message: %w", err)
		}

		var entry session.Message
		if err := json.Unmarshal(raw, &entry); err != nil {
			return fmt.Errorf("sessionstore/redis: decode message: %w", err)
		}
		if entry.MessageID != messageID {
			continue
		}

		redactedCopy := redacted
		entry.RedactMessage = &redactedCopy
		entry.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := m.client.LSet(ctx, key, int64(messageID), data).Err(); err != nil {
			return fmt.Errorf("sessionstore/redis: write redaction: %w", err)
		}
		return nil
	}
	return session.ErrMessageNotFound
}

func (m *Manager) putAgentRecord(ctx context.Context, sessionID, agentID string, rec agentRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, m.agentKey(sessionID, agentID), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("sessionstore/redis: store agent: %w", err)
	}
	return nil
}
