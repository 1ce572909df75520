package model

// TurnRequest is the inbound payload for one question/answer exchange.
type TurnRequest struct {
	Question         string   `json:"question"`
	ThreadID         string   `json:"thread_id"`
	OwnerID          string   `json:"owner_id"`
	AllowedDocuments []string `json:"allowed_documents"`
	Stream           bool     `json:"stream,omitempty"`
}

// TurnInput is the validated, immutable input to one engine run.
type TurnInput struct {
	Question         string
	ThreadID         string
	OwnerID          string
	AllowedDocuments []string
}

// TurnResponse is the blocking-mode answer.
type TurnResponse struct {
	Answer string `json:"answer"`
}

// ListMessagesResponse returns a thread's persisted history.
type ListMessagesResponse struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`
}

// IngestRequest carries a document for indexing. Content is the extracted
// text of the document; binary extraction happens client-side or in the
// upload handler.
type IngestRequest struct {
	OwnerID string `json:"owner_id"`
	Source  string `json:"source"`
	Content string `json:"content"`
}

// IngestResponse reports the outcome of an ingestion.
type IngestResponse struct {
	Source    string `json:"source"`
	Chunks    int    `json:"chunks,omitempty"`
	Message   string `json:"message"`
	Duplicate bool   `json:"duplicate,omitempty"`
}
