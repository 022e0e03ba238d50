package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capitalize-ai/curator-chat/internal/model"
)

// MemoryStore keeps sessions in process memory. It is the fallback when no
// durable backend is available; everything is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.ChatSession
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.ChatSession),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*model.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return sess.Clone(), nil
}

func (s *MemoryStore) Create(ctx context.Context, category model.Category, messages []model.Message, userID string) (*model.ChatSession, error) {
	if err := CheckCategory(category); err != nil {
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

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	return sess.Clone(), nil
}

func (s *MemoryStore) AppendAndSave(ctx context.Context, id string, messages []model.Message) (*model.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := sess.Clone()
	updated.Messages = model.CloneMessages(messages)
	updated.UpdatedAt = Touch(sess.UpdatedAt, s.now())
	s.sessions[id] = updated

	return updated.Clone(), nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.ChatSession, 0)
	if userID == "" {
		return result, nil
	}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			result = append(result, sess.Clone())
		}
	}

	SortByUpdatedDesc(result)
	return result, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op; there is nothing to release.
func (s *MemoryStore) Close() error { return nil }

// SortByUpdatedDesc orders sessions most recently updated first. Ties keep a
// stable order by id so listings are deterministic.
func SortByUpdatedDesc(sessions []*model.ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].UpdatedAt.Equal(sessions[j].UpdatedAt) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
}
