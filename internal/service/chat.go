// Package service provides the chat turn orchestration and reply generation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/capitalize-ai/curator-chat/internal/catalog"
	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/store"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
	"github.com/capitalize-ai/curator-chat/pkg/metrics"
)

var tracer = otel.Tracer("github.com/capitalize-ai/curator-chat/internal/service")

// ErrInvalidInput is returned when a turn is rejected before any mutation.
var ErrInvalidInput = errors.New("invalid input")

// ErrForbidden is returned when an authenticated caller touches a session
// owned by someone else.
var ErrForbidden = errors.New("session belongs to another user")

// Generator produces the assistant reply for a turn.
type Generator interface {
	Generate(ctx context.Context, userMessage string, category model.Category, history []model.Message) (string, error)
}

// TurnInput is one inbound user message.
type TurnInput struct {
	Text     string
	Category model.Category
	// SessionID continues an existing session. Empty or unknown ids start a
	// new one.
	SessionID string
	UserID    string
	// Caller is the authenticated identity, if any. Guest sessions stay open
	// to anyone holding the id.
	Caller string
}

// ChatService runs chat turns against a session store.
type ChatService struct {
	store     store.Store
	generator Generator
	logger    *logger.Logger
	now       func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(s store.Store, gen Generator, log *logger.Logger) *ChatService {
	if log == nil {
		log = logger.Global()
	}
	return &ChatService{
		store:     s,
		generator: gen,
		logger:    log,
		now:       time.Now,
	}
}

// HandleTurn appends one user message and the generated reply to a session,
// creating the session when needed, and persists both in one write.
func (s *ChatService) HandleTurn(ctx context.Context, in TurnInput) (*model.ChatResponse, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if in.Category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if _, err := catalog.Lookup(in.Category); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	ctx, span := tracer.Start(ctx, "chat.HandleTurn")
	defer span.End()

	sess, created, err := s.resolveSession(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolve session")
		return nil, err
	}

	// The category is fixed at creation; later turns follow the session.
	category := sess.Category
	span.SetAttributes(
		attribute.String("session.id", sess.ID),
		attribute.String("category", string(category)),
		attribute.Bool("session.created", created),
	)

	messages := model.CloneMessages(sess.Messages)
	messages = append(messages, s.newMessage(in.Text, model.SenderUser, category))
	phase := PhaseFor(len(messages))

	reply, err := s.generator.Generate(ctx, in.Text, category, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate")
		return nil, fmt.Errorf("generating reply: %w", err)
	}

	aiMsg := s.newMessage(reply, model.SenderAI, category)
	messages = append(messages, aiMsg)

	if _, err := s.store.AppendAndSave(ctx, sess.ID, messages); err != nil {
		s.logger.Error("failed to save chat turn",
			zap.String("session_id", sess.ID),
			zap.String("backend", s.store.Name()),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "save turn")
		return nil, fmt.Errorf("saving session %s: %w", sess.ID, err)
	}

	metrics.RecordTurn(string(category), string(phase))

	return &model.ChatResponse{
		Message:   &aiMsg,
		SessionID: sess.ID,
	}, nil
}

func (s *ChatService) resolveSession(ctx context.Context, in TurnInput) (*model.ChatSession, bool, error) {
	if in.SessionID != "" {
		sess, err := s.store.GetByID(ctx, in.SessionID)
		if err != nil {
			return nil, false, fmt.Errorf("loading session %s: %w", in.SessionID, err)
		}
		if sess != nil {
			if !CanAccess(sess, in.Caller) {
				return nil, false, fmt.Errorf("session %s: %w", sess.ID, ErrForbidden)
			}
			return sess, false, nil
		}
		s.logger.Debug("session not found, starting a new one", zap.String("session_id", in.SessionID))
	}

	sess, err := s.store.Create(ctx, in.Category, nil, in.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("creating session: %w", err)
	}

	metrics.RecordSessionCreated(string(in.Category))
	s.logger.Info("chat session created",
		zap.String("session_id", sess.ID),
		zap.String("category", string(in.Category)),
		zap.Bool("guest", in.UserID == ""),
	)

	return sess, true, nil
}

func (s *ChatService) newMessage(content string, sender model.Sender, category model.Category) model.Message {
	return model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Content:   content,
		Sender:    sender,
		Timestamp: s.now().UTC().Truncate(time.Millisecond),
		Category:  category,
	}
}

// CanAccess reports whether caller may read or continue sess. Anonymous
// callers and guest sessions are not checked.
func CanAccess(sess *model.ChatSession, caller string) bool {
	return caller == "" || sess.UserID == "" || sess.UserID == caller
}

// GetSession returns the session with the given id, or nil if there is none.
func (s *ChatService) GetSession(ctx context.Context, id string) (*model.ChatSession, error) {
	if id == "" {
		return nil, nil
	}
	return s.store.GetByID(ctx, id)
}

// ListUserSessions returns the user's sessions, most recently updated first.
func (s *ChatService) ListUserSessions(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.ListByOwner(ctx, userID)
}

// Categories lists the categories a session can be started in.
func (s *ChatService) Categories() []model.CategoryInfo {
	return catalog.List()
}

// Ping checks the session store.
func (s *ChatService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
