package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/synapdocs/docqa/internal/middleware"
	"github.com/synapdocs/docqa/internal/model"
	"github.com/synapdocs/docqa/pkg/logger"
)

// AdminHandler handles thread and document administration.
type AdminHandler struct {
	provider Provider
	logger   *logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(provider Provider, log *logger.Logger) *AdminHandler {
	return &AdminHandler{provider: provider, logger: log}
}

// DeleteThread handles DELETE /api/v1/threads/{id}
//
// Removes all persisted conversation state for the thread. Idempotent:
// deleting an unknown thread succeeds.
func (h *AdminHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.provider.Acquire(ctx)
	if err != nil {
		h.logger.Error("engine acquisition failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	if err := res.Store.Delete(ctx, threadID); err != nil {
		h.logger.Error("thread deletion failed", zap.String("thread_id", threadID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete thread")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": "thread state deleted",
	})
}

// ListMessages handles GET /api/v1/threads/{id}/messages
func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.provider.Acquire(ctx)
	if err != nil {
		h.logger.Error("engine acquisition failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	st, err := res.Store.Load(ctx, threadID)
	if err != nil {
		h.logger.Error("thread load failed", zap.String("thread_id", threadID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	writeJSON(w, http.StatusOK, model.ListMessagesResponse{
		ThreadID: threadID,
		Messages: st.Messages,
	})
}

// DeleteDocument handles DELETE /api/v1/documents?source=NAME
//
// Removes all retrievable passages scoped to (owner, source).
func (h *AdminHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	source := r.URL.Query().Get("source")
	if err := middleware.ValidateDocumentName(source); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ownerID := middleware.GetOwnerID(ctx)
	if ownerID == "" {
		ownerID = r.URL.Query().Get("owner_id")
	}
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	res, err := h.provider.Acquire(ctx)
	if err != nil {
		h.logger.Error("engine acquisition failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	if err := res.Documents.DeleteDocument(ctx, ownerID, source); err != nil {
		h.logger.Error("document deletion failed",
			zap.String("owner_id", ownerID),
			zap.String("source", source),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": "document deleted",
	})
}
