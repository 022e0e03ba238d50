// Package firestore stores each chat session as one Firestore document with
// the messages embedded as an array.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
)

// DefaultCollection holds chat session documents.
const DefaultCollection = "chatSessions"

// Config selects the project and collection.
type Config struct {
	ProjectID       string
	CredentialsFile string
	Collection      string
}

// Store is the document session store.
type Store struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// Open creates a Firestore client. FIRESTORE_EMULATOR_HOST is honoured by the
// client library.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("project ID is required for firestore store")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{
		client:     client,
		collection: cfg.Collection,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

type sessionDoc struct {
	UserID    string          `firestore:"userId,omitempty"`
	Category  string          `firestore:"category"`
	Messages  []model.Message `firestore:"messages"`
	CreatedAt time.Time       `firestore:"createdAt"`
	UpdatedAt time.Time       `firestore:"updatedAt"`
}

func (d *sessionDoc) toSession(id string) *model.ChatSession {
	msgs := d.Messages
	if msgs == nil {
		msgs = make([]model.Message, 0)
	}
	return &model.ChatSession{
		ID:        id,
		UserID:    d.UserID,
		Category:  model.Category(d.Category),
		Messages:  msgs,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (s *Store) sessions() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *Store) Name() string { return "firestore" }

func (s *Store) GetByID(ctx context.Context, id string) (*model.ChatSession, error) {
	if !validDocID(id) {
		return nil, nil
	}

	snap, err := s.sessions().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore GetByID: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetByID decode: %w", err)
	}
	return doc.toSession(snap.Ref.ID), nil
}

func (s *Store) Create(ctx context.Context, category model.Category, messages []model.Message, userID string) (*model.ChatSession, error) {
	if err := store.CheckCategory(category); err != nil {
		return nil, err
	}

	now := s.now()
	id := uuid.Must(uuid.NewV7()).String()
	doc := sessionDoc{
		UserID:    userID,
		Category:  string(category),
		Messages:  model.CloneMessages(messages),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.sessions().Doc(id).Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("firestore Create: %w", err)
	}
	return doc.toSession(id), nil
}

func (s *Store) AppendAndSave(ctx context.Context, id string, messages []model.Message) (*model.ChatSession, error) {
	if !validDocID(id) {
		return nil, store.ErrNotFound
	}

	ref := s.sessions().Doc(id)
	var saved *model.ChatSession

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return store.ErrNotFound
			}
			return err
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}

		doc.Messages = model.CloneMessages(messages)
		doc.UpdatedAt = store.Touch(doc.UpdatedAt, s.now())

		if err := tx.Update(ref, []firestore.Update{
			{Path: "messages", Value: doc.Messages},
			{Path: "updatedAt", Value: doc.UpdatedAt},
		}); err != nil {
			return err
		}

		saved = doc.toSession(id)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("firestore AppendAndSave: %w", err)
	}
	return saved, nil
}

func (s *Store) ListByOwner(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	out := make([]*model.ChatSession, 0)
	if userID == "" {
		return out, nil
	}

	iter := s.sessions().
		Where("userId", "==", userID).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListByOwner: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode sessionDoc: %w", err)
		}
		out = append(out, doc.toSession(snap.Ref.ID))
	}

	store.SortByUpdatedDesc(out)
	return out, nil
}

// Ping reads at most one document to confirm the backend answers.
func (s *Store) Ping(ctx context.Context) error {
	iter := s.sessions().Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore ping: %w", err)
	}
	return nil
}

// validDocID reports whether id can name a document in the collection.
func validDocID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.Contains(id, "/")
}

func (s *Store) Close() error {
	return s.client.Close()
}
