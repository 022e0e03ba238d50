// Package redis stores chat sessions in Redis. Each session is a JSON string;
// a sorted set per owner, scored by updatedAt, backs the owner listing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
)

// Config holds the Redis connection settings.
type Config struct {
	Addr      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store is the Redis session store.
type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// Open connects and pings Redis.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, errors.New("address is required for redis store")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "curator"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{
		client: client,
		prefix: cfg.KeyPrefix,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

func (s *Store) ownerKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:sessions", s.prefix, userID)
}

func (s *Store) Name() string { return "redis" }

func (s *Store) GetByID(ctx context.Context, id string) (*model.ChatSession, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GetByID: %w", err)
	}
	return decode(data)
}

func (s *Store) Create(ctx context.Context, category model.Category, messages []model.Message, userID string) (*model.ChatSession, error) {
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

	if err := s.write(ctx, sess); err != nil {
		return nil, fmt.Errorf("redis Create: %w", err)
	}
	return sess, nil
}

func (s *Store) AppendAndSave(ctx context.Context, id string, messages []model.Message) (*model.ChatSession, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, store.ErrNotFound
	}

	current.Messages = model.CloneMessages(messages)
	current.UpdatedAt = store.Touch(current.UpdatedAt, s.now())

	if err := s.write(ctx, current); err != nil {
		return nil, fmt.Errorf("redis AppendAndSave: %w", err)
	}
	return current, nil
}

func (s *Store) ListByOwner(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	out := make([]*model.ChatSession, 0)
	if userID == "" {
		return out, nil
	}

	ids, err := s.client.ZRevRange(ctx, s.ownerKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ListByOwner: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.sessionKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis ListByOwner: %w", err)
	}

	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		sess, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}

	// Scores have millisecond resolution; settle ties on the full timestamp.
	store.SortByUpdatedDesc(out)
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// write stores the document and its owner index entry atomically.
func (s *Store) write(ctx context.Context, sess *model.ChatSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(sess.ID), data, 0)
		if sess.UserID != "" {
			pipe.ZAdd(ctx, s.ownerKey(sess.UserID), redis.Z{
				Score:  float64(sess.UpdatedAt.UnixMilli()),
				Member: sess.ID,
			})
		}
		return nil
	})
	return err
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
