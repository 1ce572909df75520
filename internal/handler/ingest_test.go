package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapdocs/docqa/internal/model"
	"github.com/synapdocs/docqa/internal/retriever"
	"github.com/synapdocs/docqa/internal/session"
)

func docsProvider(docs *stubDocs) *stubProvider {
	return &stubProvider{res: &session.Resources{
		Store:     newMemStore(),
		Documents: docs,
	}}
}

func TestIngest_HappyPath(t *testing.T) {
	docs := &stubDocs{result: retriever.IngestResult{Chunks: 4}}
	h := NewIngestHandler(docsProvider(docs), nopLogger())

	w := httptest.NewRecorder()
	r := asOwner(postJSON("/api/v1/documents", `{"source":"policy.md","content":"Refunds are issued within thirty days."}`), "owner-1")
	h.Ingest(w, r)

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody[model.IngestResponse](t, w)
	require.Equal(t, "policy.md", resp.Source)
	require.Equal(t, 4, resp.Chunks)

	require.Len(t, docs.ingested, 1)
	require.Equal(t, "owner-1", docs.ingested[0][0])
	require.Equal(t, "policy.md", docs.ingested[0][1])
}

func TestIngest_DuplicateReportsSkip(t *testing.T) {
	docs := &stubDocs{result: retriever.IngestResult{Duplicate: true}}
	h := NewIngestHandler(docsProvider(docs), nopLogger())

	w := httptest.NewRecorder()
	r := asOwner(postJSON("/api/v1/documents", `{"source":"policy.md","content":"text"}`), "owner-1")
	h.Ingest(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[model.IngestResponse](t, w)
	require.True(t, resp.Duplicate)
	require.Equal(t, "document already exists, upload skipped", resp.Message)
}

func TestIngest_ValidationRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "missing source", body: `{"content":"text"}`},
		{name: "missing content", body: `{"source":"a.md"}`},
		{name: "blank content", body: `{"source":"a.md","content":"  "}`},
		{name: "invalid json", body: `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewIngestHandler(docsProvider(&stubDocs{}), nopLogger())
			w := httptest.NewRecorder()
			h.Ingest(w, asOwner(postJSON("/api/v1/documents", tc.body), "owner-1"))
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestIngest_RequiresOwner(t *testing.T) {
	h := NewIngestHandler(docsProvider(&stubDocs{}), nopLogger())

	w := httptest.NewRecorder()
	h.Ingest(w, postJSON("/api/v1/documents", `{"source":"a.md","content":"text"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngest_IndexFailure(t *testing.T) {
	docs := &stubDocs{ingestErr: errors.New("vector store write failed")}
	h := NewIngestHandler(docsProvider(docs), nopLogger())

	w := httptest.NewRecorder()
	r := asOwner(postJSON("/api/v1/documents", `{"source":"a.md","content":"text"}`), "owner-1")
	h.Ingest(w, r)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
