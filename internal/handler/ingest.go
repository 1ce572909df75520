package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/synapdocs/docqa/internal/middleware"
	"github.com/synapdocs/docqa/internal/model"
	"github.com/synapdocs/docqa/pkg/logger"
)

// IngestHandler handles document ingestion.
type IngestHandler struct {
	provider Provider
	logger   *logger.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(provider Provider, log *logger.Logger) *IngestHandler {
	return &IngestHandler{provider: provider, logger: log}
}

// Ingest handles POST /api/v1/documents
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ownerID := middleware.GetOwnerID(ctx); ownerID != "" {
		req.OwnerID = ownerID
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	if err := middleware.ValidateIngestRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.provider.Acquire(ctx)
	if err != nil {
		h.logger.Error("engine acquisition failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	result, err := res.Documents.Ingest(ctx, req.OwnerID, req.Source, req.Content)
	if err != nil {
		h.logger.Error("ingestion failed",
			zap.String("owner_id", req.OwnerID),
			zap.String("source", req.Source),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "failed to ingest document")
		return
	}

	if result.Duplicate {
		writeJSON(w, http.StatusOK, model.IngestResponse{
			Source:    req.Source,
			Message:   "document already exists, upload skipped",
			Duplicate: true,
		})
		return
	}

	h.logger.Info("document ingested",
		zap.String("owner_id", req.OwnerID),
		zap.String("source", req.Source),
		zap.Int("chunks", result.Chunks),
	)
	writeJSON(w, http.StatusCreated, model.IngestResponse{
		Source:  req.Source,
		Chunks:  result.Chunks,
		Message: "document ingested",
	})
}
