package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/synapdocs/docqa/internal/engine"
	"github.com/synapdocs/docqa/internal/llm"
	"github.com/synapdocs/docqa/internal/middleware"
	"github.com/synapdocs/docqa/internal/model"
	"github.com/synapdocs/docqa/internal/retriever"
	"github.com/synapdocs/docqa/internal/session"
	"github.com/synapdocs/docqa/pkg/logger"
)

type memStore struct {
	states map[string]model.ConversationState
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]model.ConversationState)}
}

func (s *memStore) Load(_ context.Context, threadID string) (model.ConversationState, error) {
	if st, ok := s.states[threadID]; ok {
		return st, nil
	}
	return model.NewConversationState(), nil
}

func (s *memStore) Commit(_ context.Context, threadID string, st model.ConversationState) error {
	s.states[threadID] = st
	return nil
}

func (s *memStore) Delete(_ context.Context, threadID string) error {
	delete(s.states, threadID)
	return nil
}

func (s *memStore) Ping(_ context.Context) error { return nil }
func (s *memStore) Close() error                 { return nil }

type fixedRetriever struct {
	passages []model.Passage
	err      error
	filters  []model.RetrievalFilter
}

func (r *fixedRetriever) Retrieve(_ context.Context, _ string, filter model.RetrievalFilter) ([]model.Passage, error) {
	r.filters = append(r.filters, filter)
	return r.passages, r.err
}

type cannedLLM struct {
	responses []string
	err       error
	calls     int
}

func (c *cannedLLM) Complete(_ context.Context, _ *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return c.next()
}

func (c *cannedLLM) CompleteStream(_ context.Context, _ *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	resp, err := c.next()
	if err != nil {
		return nil, err
	}
	for i, token := range strings.SplitAfter(resp.Content, " ") {
		if err := callback(token, i); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (c *cannedLLM) Name() string { return "canned" }

func (c *cannedLLM) next() (*llm.CompletionResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if c.calls > len(c.responses) {
		return nil, fmt.Errorf("unexpected llm call %d", c.calls)
	}
	return &llm.CompletionResponse{Content: c.responses[c.calls-1]}, nil
}

type stubDocs struct {
	result    retriever.IngestResult
	ingestErr error
	deleteErr error

	ingested [][3]string
	deleted  [][2]string
}

func (d *stubDocs) Ingest(_ context.Context, ownerID, source, content string) (retriever.IngestResult, error) {
	d.ingested = append(d.ingested, [3]string{ownerID, source, content})
	return d.result, d.ingestErr
}

func (d *stubDocs) DeleteDocument(_ context.Context, ownerID, source string) error {
	d.deleted = append(d.deleted, [2]string{ownerID, source})
	return d.deleteErr
}

type stubProvider struct {
	res *session.Resources
	err error
}

func (p *stubProvider) Acquire(_ context.Context) (*session.Resources, error) {
	return p.res, p.err
}

func nopLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// testProvider wires a real engine over in-memory collaborators.
func testProvider(store *memStore, ret *fixedRetriever, client llm.Client, docs *stubDocs) *stubProvider {
	return &stubProvider{res: &session.Resources{
		Engine:    engine.New(store, ret, client, nopLogger()),
		Store:     store,
		Documents: docs,
	}}
}

func happyProvider() *stubProvider {
	return testProvider(
		newMemStore(),
		&fixedRetriever{passages: []model.Passage{{Text: "Refunds take 30 days.", Source: "policy.md"}}},
		&cannedLLM{responses: []string{`{"binary_score": "yes"}`, "Refunds take 30 days."}},
		&stubDocs{},
	)
}

func postJSON(path, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func asOwner(r *http.Request, ownerID string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.OwnerIDKey, ownerID)
	return r.WithContext(ctx)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestTurnAsk_HappyPath(t *testing.T) {
	h := NewTurnHandler(happyProvider(), nopLogger())

	w := httptest.NewRecorder()
	r := asOwner(postJSON("/api/v1/turns", `{"question":"what is the refund policy?","thread_id":"t1"}`), "owner-1")
	h.Ask(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[model.TurnResponse](t, w)
	require.Equal(t, "Refunds take 30 days.", resp.Answer)
}

func TestTurnAsk_OwnerPinnedToToken(t *testing.T) {
	ret := &fixedRetriever{passages: []model.Passage{{Text: "x", Source: "a.md"}}}
	p := testProvider(newMemStore(), ret,
		&cannedLLM{responses: []string{`{"binary_score": "yes"}`, "answer"}}, &stubDocs{})
	h := NewTurnHandler(p, nopLogger())

	w := httptest.NewRecorder()
	r := asOwner(postJSON("/api/v1/turns", `{"question":"q?","thread_id":"t1","owner_id":"spoofed"}`), "real-owner")
	h.Ask(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "real-owner", ret.filters[0].OwnerID)
}

func TestTurnAsk_InvalidBody(t *testing.T) {
	h := NewTurnHandler(happyProvider(), nopLogger())

	w := httptest.NewRecorder()
	h.Ask(w, postJSON("/api/v1/turns", `not-json`))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTurnAsk_ValidationRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "missing question", body: `{"thread_id":"t1"}`},
		{name: "blank question", body: `{"question":"   ","thread_id":"t1"}`},
		{name: "missing thread", body: `{"question":"q?"}`},
		{name: "question too long", body: fmt.Sprintf(`{"question":%q,"thread_id":"t1"}`, strings.Repeat("a", 4001))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewTurnHandler(happyProvider(), nopLogger())
			w := httptest.NewRecorder()
			h.Ask(w, asOwner(postJSON("/api/v1/turns", tc.body), "owner-1"))
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestTurnAsk_TimeoutMapsTo504(t *testing.T) {
	p := testProvider(newMemStore(),
		&fixedRetriever{passages: []model.Passage{{Text: "x", Source: "a.md"}}},
		&cannedLLM{err: fmt.Errorf("llm: %w", context.DeadlineExceeded)}, &stubDocs{})
	h := NewTurnHandler(p, nopLogger())

	w := httptest.NewRecorder()
	h.Ask(w, asOwner(postJSON("/api/v1/turns", `{"question":"q?","thread_id":"t1"}`), "owner-1"))

	require.Equal(t, http.StatusGatewayTimeout, w.Code)
	body := decodeBody[map[string]string](t, w)
	require.Equal(t, "response took too long", body["error"])
}

func TestTurnAsk_CollaboratorFailureIsOpaque(t *testing.T) {
	p := testProvider(newMemStore(),
		&fixedRetriever{err: errors.New("connection refused to 10.0.0.5:6333")},
		&cannedLLM{}, &stubDocs{})
	h := NewTurnHandler(p, nopLogger())

	w := httptest.NewRecorder()
	h.Ask(w, asOwner(postJSON("/api/v1/turns", `{"question":"q?","thread_id":"t1"}`), "owner-1"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody[map[string]string](t, w)
	require.Equal(t, "something went wrong processing your question", body["error"])
	require.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestTurnAsk_ProviderUnavailable(t *testing.T) {
	h := NewTurnHandler(&stubProvider{err: errors.New("init failed")}, nopLogger())

	w := httptest.NewRecorder()
	h.Ask(w, asOwner(postJSON("/api/v1/turns", `{"question":"q?","thread_id":"t1"}`), "owner-1"))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
