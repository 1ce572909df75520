package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synapdocs/docqa/internal/engine"
	"github.com/synapdocs/docqa/internal/model"
	"github.com/synapdocs/docqa/pkg/logger"
	"github.com/synapdocs/docqa/pkg/metrics"
)

const heartbeatInterval = 15 * time.Second

// StreamHandler handles SSE streaming turns.
type StreamHandler struct {
	provider      Provider
	limiter       *streamLimiter
	streamTimeout time.Duration
	logger        *logger.Logger
}

// NewStreamHandler creates a new stream handler. streamTimeout is the hard
// wall-clock bound on one turn's full generation stream.
func NewStreamHandler(provider Provider, streamTimeout time.Duration, maxStreams, maxPerOwner int, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		provider:      provider,
		limiter:       newStreamLimiter(maxStreams, maxPerOwner),
		streamTimeout: streamTimeout,
		logger:        log,
	}
}

// Ask handles POST /api/v1/turns/stream
//
// The response is a text/event-stream of token events terminated by exactly
// one done or error event.
func (h *StreamHandler) Ask(w http.ResponseWriter, r *http.Request) {
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

	if !h.limiter.acquire(input.OwnerID) {
		writeError(w, http.StatusTooManyRequests, "too many concurrent streams")
		return
	}
	defer h.limiter.release(input.OwnerID)

	res, err := h.provider.Acquire(r.Context())
	if err != nil {
		h.logger.Error("engine acquisition failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sw := &sseWriter{w: w, flusher: flusher}
	sw.comment("ok")

	// Hard wall-clock bound on the whole turn, including generation.
	ctx, cancel := context.WithTimeout(r.Context(), h.streamTimeout)
	defer cancel()

	// Heartbeats keep proxies from dropping the connection while the
	// engine is still retrieving and grading, before the first token.
	firstToken := make(chan struct{})
	var firstTokenOnce sync.Once
	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-firstToken:
				return
			case <-ticker.C:
				sw.send("heartbeat", model.HeartbeatEvent{Timestamp: time.Now().UTC()})
			}
		}
	}()

	_, runErr := res.Engine.RunTurnStream(ctx, input, func(token string, index int) error {
		firstTokenOnce.Do(func() { close(firstToken) })
		// A disconnected client cancels ctx; stop upstream consumption
		// rather than generating into the void.
		if err := ctx.Err(); err != nil {
			return err
		}
		return sw.send("token", model.TokenEvent{Token: token, Index: index})
	})

	firstTokenOnce.Do(func() { close(firstToken) })
	<-heartbeatDone

	if runErr != nil {
		if errors.Is(r.Context().Err(), context.Canceled) {
			h.logger.Info("stream client disconnected", zap.String("thread_id", input.ThreadID))
			return
		}
		turnErr := engine.AsError(runErr)
		h.logger.Error("stream turn failed",
			zap.String("thread_id", input.ThreadID),
			zap.String("kind", string(turnErr.Kind)),
			zap.Error(turnErr.Err),
		)
		code := model.ErrorCodeInternal
		if turnErr.Kind == engine.KindTimeout {
			code = model.ErrorCodeTimeout
		}
		sw.send("error", model.ErrorEvent{Code: code, Message: turnErr.UserMessage()})
		return
	}

	sw.send("done", model.DoneEvent{Done: true})
}

// sseWriter serializes event writes; heartbeats and tokens come from
// different goroutines.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (sw *sseWriter) send(event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()
	fmt.Fprintf(sw.w, "event: %s\n", event)
	fmt.Fprintf(sw.w, "data: %s\n\n", jsonData)
	sw.flusher.Flush()
	return nil
}

// comment writes an SSE comment line, committing the response early.
func (sw *sseWriter) comment(text string) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	fmt.Fprintf(sw.w, ": %s\n\n", text)
	sw.flusher.Flush()
}

// streamLimiter enforces global and per-owner concurrent stream caps.
type streamLimiter struct {
	mu          sync.Mutex
	active      int
	perOwner    map[string]int
	max         int
	maxPerOwner int
}

func newStreamLimiter(max, maxPerOwner int) *streamLimiter {
	return &streamLimiter{
		perOwner:    make(map[string]int),
		max:         max,
		maxPerOwner: maxPerOwner,
	}
}

func (l *streamLimiter) acquire(ownerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active >= l.max || l.perOwner[ownerID] >= l.maxPerOwner {
		return false
	}
	l.active++
	l.perOwner[ownerID]++
	return true
}

func (l *streamLimiter) release(ownerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active--
	l.perOwner[ownerID]--
	if l.perOwner[ownerID] <= 0 {
		delete(l.perOwner, ownerID)
	}
}
