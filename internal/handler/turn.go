package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/synapdocs/docqa/internal/engine"
	"github.com/synapdocs/docqa/internal/middleware"
	"github.com/synapdocs/docqa/internal/model"
	"github.com/synapdocs/docqa/pkg/logger"
)

// TurnHandler handles blocking question/answer turns.
type TurnHandler struct {
	provider Provider
	logger   *logger.Logger
}

// NewTurnHandler creates a new turn handler.
func NewTurnHandler(provider Provider, log *logger.Logger) *TurnHandler {
	return &TurnHandler{provider: provider, logger: log}
}

// Ask handles POST /api/v1/turns
func (h *TurnHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := resolveTurnInput(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.provider.Acquire(ctx)
	if err != nil {
		h.logger.Error("engine acquisition failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	answer, err := res.Engine.RunTurn(ctx, input)
	if err != nil {
		turnErr := engine.AsError(err)
		writeError(w, turnStatus(turnErr), turnErr.UserMessage())
		return
	}

	writeJSON(w, http.StatusOK, model.TurnResponse{Answer: answer})
}

// resolveTurnInput validates the request and pins the owner to the
// authenticated identity when one is present. The token, not the payload,
// decides whose documents are searched.
func resolveTurnInput(r *http.Request, req *model.TurnRequest) (model.TurnInput, error) {
	if ownerID := middleware.GetOwnerID(r.Context()); ownerID != "" {
		req.OwnerID = ownerID
	}
	if err := middleware.ValidateTurnRequest(req); err != nil {
		return model.TurnInput{}, err
	}
	return model.TurnInput{
		Question:         req.Question,
		ThreadID:         req.ThreadID,
		OwnerID:          req.OwnerID,
		AllowedDocuments: req.AllowedDocuments,
	}, nil
}

func turnStatus(err *engine.Error) int {
	switch err.Kind {
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
