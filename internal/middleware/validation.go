package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/synapdocs/docqa/internal/model"
)

const (
	maxQuestionLength = 4000
	maxDocuments      = 100
	maxIDLength       = 100
	maxIngestBytes    = 5 << 20
)

// ValidateTurnRequest checks an inbound turn before the state machine runs.
// These messages are safe to disclose to the caller.
func ValidateTurnRequest(req *model.TurnRequest) error {
	if strings.TrimSpace(req.Question) == "" {
		return errors.New("question is required")
	}
	if len(req.Question) > maxQuestionLength {
		return errors.New("question too long, maximum 4000 characters")
	}
	if !utf8.ValidString(req.Question) {
		return errors.New("question must be valid UTF-8")
	}
	if err := ValidateThreadID(req.ThreadID); err != nil {
		return err
	}
	if len(req.AllowedDocuments) > maxDocuments {
		return errors.New("too many documents, maximum 100")
	}
	for _, doc := range req.AllowedDocuments {
		if strings.TrimSpace(doc) == "" {
			return errors.New("document names must be non-empty")
		}
	}
	return nil
}

// ValidateThreadID validates a thread identifier.
func ValidateThreadID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("thread_id is required")
	}
	if len(id) > maxIDLength {
		return errors.New("thread_id exceeds maximum length")
	}
	return nil
}

// ValidateDocumentName validates a document name.
func ValidateDocumentName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("document name is required")
	}
	if len(name) > 256 {
		return errors.New("document name exceeds maximum length")
	}
	return nil
}

// ValidateIngestRequest checks a document ingestion payload.
func ValidateIngestRequest(req *model.IngestRequest) error {
	if err := ValidateDocumentName(req.Source); err != nil {
		return err
	}
	if strings.TrimSpace(req.Content) == "" {
		return errors.New("content is required")
	}
	if len(req.Content) > maxIngestBytes {
		return errors.New("content exceeds maximum size")
	}
	if !utf8.ValidString(req.Content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}
