// Package postgres stores chat sessions in PostgreSQL, one row per session
// with the message sequence in a jsonb column.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
)

//go:embed migrations.sql
var migrations string

const sessionColumns = `id, user_id, category, messages, created_at, updated_at`

// Store is the relational session store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects with a lib/pq connection string or URL, verifies the
// connection and applies the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required for postgres store")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migrations); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) GetByID(ctx context.Context, id string) (*model.ChatSession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = $1`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres GetByID: %w", err)
	}
	return sess, nil
}

func (s *Store) Create(ctx context.Context, category model.Category, messages []model.Message, userID string) (*model.ChatSession, error) {
	if err := store.CheckCategory(category); err != nil {
		return nil, err
	}

	data, err := encodeMessages(messages)
	if err != nil {
		return nil, err
	}

	now := s.now()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO chat_sessions (id, user_id, category, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+sessionColumns,
		uuid.Must(uuid.NewV7()).String(),
		nullable(userID),
		string(category),
		data,
		now,
	)

	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("postgres Create: %w", err)
	}
	return sess, nil
}

func (s *Store) AppendAndSave(ctx context.Context, id string, messages []model.Message) (*model.ChatSession, error) {
	data, err := encodeMessages(messages)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE chat_sessions
		SET messages = $1, updated_at = GREATEST(updated_at, $2)
		WHERE id = $3
		RETURNING `+sessionColumns,
		data,
		s.now(),
		id,
	)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres AppendAndSave: %w", err)
	}
	return sess, nil
}

func (s *Store) ListByOwner(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres ListByOwner: %w", err)
	}
	defer rows.Close()

	sessions := make([]*model.ChatSession, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres ListByOwner scan: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres ListByOwner: %w", err)
	}

	return sessions, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*model.ChatSession, error) {
	var (
		sess     model.ChatSession
		userID   sql.NullString
		category string
		raw      []byte
	)

	if err := row.Scan(&sess.ID, &userID, &category, &raw, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return nil, err
	}

	sess.UserID = userID.String
	sess.Category = model.Category(category)
	sess.CreatedAt = sess.CreatedAt.UTC()
	sess.UpdatedAt = sess.UpdatedAt.UTC()

	sess.Messages = make([]model.Message, 0)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &sess.Messages); err != nil {
			return nil, fmt.Errorf("decoding messages: %w", err)
		}
	}

	return &sess, nil
}

// encodeMessages returns the jsonb parameter as text; lib/pq would send a
// []byte as bytea.
func encodeMessages(messages []model.Message) (string, error) {
	data, err := json.Marshal(model.CloneMessages(messages))
	if err != nil {
		return "", fmt.Errorf("encoding messages: %w", err)
	}
	return string(data), nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
