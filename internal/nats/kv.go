package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
)

// DefaultBucket is the key-value bucket holding chat sessions.
const DefaultBucket = "chat_sessions"

// SessionStore keeps one KV entry per session, keyed by session id. Writes
// are conditioned on the revision that was read, so a concurrent turn on the
// same session fails with store.ErrConflict instead of overwriting it.
type SessionStore struct {
	conn *Conn
	kv   jetstream.KeyValue
	now  func() time.Time
}

// NewSessionStore opens the bucket, creating it when missing.
func NewSessionStore(ctx context.Context, conn *Conn, bucket string) (*SessionStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	kv, err := conn.Bucket(ctx, bucket)
	if err != nil {
		return nil, err
	}

	return &SessionStore{
		conn: conn,
		kv:   kv,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *SessionStore) Name() string { return "nats" }

func (s *SessionStore) GetByID(ctx context.Context, id string) (*model.ChatSession, error) {
	sess, _, err := s.get(ctx, id)
	return sess, err
}

func (s *SessionStore) get(ctx context.Context, id string) (*model.ChatSession, uint64, error) {
	if !validKey(id) {
		return nil, 0, nil
	}

	entry, err := s.kv.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("nats GetByID: %w", err)
	}

	sess, err := decode(entry.Value())
	if err != nil {
		return nil, 0, err
	}
	return sess, entry.Revision(), nil
}

func (s *SessionStore) Create(ctx context.Context, category model.Category, messages []model.Message, userID string) (*model.ChatSession, error) {
	if err := store.CheckCategory(category); err != nil {
		return nil, err
	}

	now := s.now()
	sess := &model.ChatSession{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Category:  category,
		Messages:  model.CloneMessages(messages),
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	if _, err := s.kv.Create(ctx, sess.ID, data); err != nil {
		return nil, fmt.Errorf("nats Create: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) AppendAndSave(ctx context.Context, id string, messages []model.Message) (*model.ChatSession, error) {
	current, revision, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, store.ErrNotFound
	}

	current.Messages = model.CloneMessages(messages)
	current.UpdatedAt = store.Touch(current.UpdatedAt, s.now())

	data, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	if _, err := s.kv.Update(ctx, id, data, revision); err != nil {
		if isWrongRevision(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrConflict, id)
		}
		return nil, fmt.Errorf("nats AppendAndSave: %w", err)
	}
	return current, nil
}

// ListByOwner scans the bucket. Sessions are not indexed by owner, so the
// cost grows with the bucket.
func (s *SessionStore) ListByOwner(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	out := make([]*model.ChatSession, 0)
	if userID == "" {
		return out, nil
	}

	keys, err := s.kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("nats ListByOwner: %w", err)
	}

	for _, key := range keys {
		sess, _, err := s.get(ctx, key)
		if err != nil {
			return nil, err
		}
		if sess != nil && sess.UserID == userID {
			out = append(out, sess)
		}
	}

	store.SortByUpdatedDesc(out)
	return out, nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	if !s.conn.Connected() {
		return errors.New("NATS not connected")
	}
	if _, err := s.kv.Status(ctx); err != nil {
		return fmt.Errorf("nats ping: %w", err)
	}
	return nil
}

// Close releases the connection the store was opened with.
func (s *SessionStore) Close() error {
	s.conn.Close()
	return nil
}

func isWrongRevision(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

func decode(data []byte) (*model.ChatSession, error) {
	var sess model.ChatSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if sess.Messages == nil {
		sess.Messages = make([]model.Message, 0)
	}
	return &sess, nil
}

// validKey reports whether id can be a KV key. Anything else cannot name a
// stored session.
func validKey(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '=', r == '.', r == '/':
		default:
			return false
		}
	}
	return id[0] != '.' && id[len(id)-1] != '.'
}
