package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapdocs/docqa/internal/model"
)

func validTurnRequest() *model.TurnRequest {
	return &model.TurnRequest{
		Question: "what is the refund policy?",
		ThreadID: "thread-1",
		OwnerID:  "owner-1",
	}
}

func TestValidateTurnRequest(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*model.TurnRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(r *model.TurnRequest) {}},
		{name: "valid with documents", mutate: func(r *model.TurnRequest) {
			r.AllowedDocuments = []string{"a.md", "b.md"}
		}},
		{name: "empty question", mutate: func(r *model.TurnRequest) { r.Question = "" }, wantErr: "question is required"},
		{name: "whitespace question", mutate: func(r *model.TurnRequest) { r.Question = "  \n " }, wantErr: "question is required"},
		{name: "question too long", mutate: func(r *model.TurnRequest) {
			r.Question = strings.Repeat("a", 4001)
		}, wantErr: "question too long"},
		{name: "invalid utf8", mutate: func(r *model.TurnRequest) {
			r.Question = string([]byte{0xff, 0xfe})
		}, wantErr: "valid UTF-8"},
		{name: "missing thread", mutate: func(r *model.TurnRequest) { r.ThreadID = "" }, wantErr: "thread_id is required"},
		{name: "thread too long", mutate: func(r *model.TurnRequest) {
			r.ThreadID = strings.Repeat("t", 101)
		}, wantErr: "thread_id exceeds"},
		{name: "too many documents", mutate: func(r *model.TurnRequest) {
			r.AllowedDocuments = make([]string, 101)
			for i := range r.AllowedDocuments {
				r.AllowedDocuments[i] = "doc.md"
			}
		}, wantErr: "too many documents"},
		{name: "blank document name", mutate: func(r *model.TurnRequest) {
			r.AllowedDocuments = []string{"a.md", "  "}
		}, wantErr: "document names must be non-empty"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validTurnRequest()
			tc.mutate(req)
			err := ValidateTurnRequest(req)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestValidateDocumentName(t *testing.T) {
	require.NoError(t, ValidateDocumentName("handbook.pdf"))
	require.Error(t, ValidateDocumentName(""))
	require.Error(t, ValidateDocumentName("   "))
	require.Error(t, ValidateDocumentName(strings.Repeat("x", 257)))
}

func TestValidateIngestRequest(t *testing.T) {
	cases := []struct {
		name    string
		req     model.IngestRequest
		wantErr bool
	}{
		{name: "valid", req: model.IngestRequest{Source: "a.md", Content: "some text"}},
		{name: "missing source", req: model.IngestRequest{Content: "some text"}, wantErr: true},
		{name: "missing content", req: model.IngestRequest{Source: "a.md"}, wantErr: true},
		{name: "oversized content", req: model.IngestRequest{Source: "a.md", Content: strings.Repeat("x", (5<<20)+1)}, wantErr: true},
		{name: "invalid utf8 content", req: model.IngestRequest{Source: "a.md", Content: string([]byte{0xff, 0xfe})}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateIngestRequest(&tc.req)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
