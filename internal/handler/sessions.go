package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/curator-chat/internal/middleware"
)

// ListUserSessions handles GET /api/user/{userId}/chats
func (h *ChatHandler) ListUserSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userId")

	if userID == "" {
		writeError(w, http.StatusBadRequest, "user ID is required")
		return
	}
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Identified callers only see their own sessions.
	if caller := middleware.GetUserID(ctx); caller != "" && caller != userID {
		writeError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	sessions, err := h.service.ListUserSessions(ctx, userID)
	if err != nil {
		h.requestLogger(r).Error("failed to list user chat sessions",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Failed to get user chat sessions")
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Categories handles GET /api/categories
func (h *ChatHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Categories())
}
