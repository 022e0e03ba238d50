// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/curator-chat/internal/middleware"
	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/internal/service"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
)

// ChatService is the orchestration the chat endpoints expose.
type ChatService interface {
	HandleTurn(ctx context.Context, in service.TurnInput) (*model.ChatResponse, error)
	GetSession(ctx context.Context, id string) (*model.ChatSession, error)
	ListUserSessions(ctx context.Context, userID string) ([]*model.ChatSession, error)
	Categories() []model.CategoryInfo
}

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	service ChatService
	logger  *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		logger:  log,
	}
}

// Send handles POST /api/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateChatRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// An identified caller owns the session regardless of the body.
	caller := middleware.GetUserID(ctx)
	if caller != "" {
		req.UserID = caller
	}

	resp, err := h.service.HandleTurn(ctx, service.TurnInput{
		Text:      req.Message,
		Category:  req.Category,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Caller:    caller,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid chat request")
			return
		}
		if errors.Is(err, service.ErrForbidden) {
			writeError(w, http.StatusForbidden, "Chat session belongs to another user")
			return
		}
		h.requestLogger(r).Error("chat turn failed",
			zap.String("session_id", req.SessionID),
			zap.String("category", string(req.Category)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to process chat message")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/chat/{sessionId}
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionId")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.service.GetSession(ctx, sessionID)
	if err != nil {
		h.requestLogger(r).Error("failed to get chat session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to get chat session")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "Chat session not found")
		return
	}
	if !service.CanAccess(sess, middleware.GetUserID(ctx)) {
		writeError(w, http.StatusForbidden, "Chat session belongs to another user")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

func (h *ChatHandler) requestLogger(r *http.Request) *logger.Logger {
	ctx := r.Context()
	return h.logger.WithRequest(middleware.GetCorrelationID(ctx), middleware.GetUserID(ctx))
}

func validateChatRequest(req *model.ChatRequest) error {
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		return err
	}
	if err := middleware.ValidateCategory(req.Category); err != nil {
		return err
	}
	if err := middleware.ValidateSessionID(req.SessionID); err != nil {
		return err
	}
	return middleware.ValidateUserID(req.UserID)
}
