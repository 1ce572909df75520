package model

const (
	// defaultK is the retrieval size when no documents are scoped.
	defaultK = 5
	// perDocumentK scales retrieval size with corpus breadth.
	perDocumentK = 5
	// maxK caps retrieval cost regardless of corpus size.
	maxK = 20
)

// RetrievalFilter scopes one retrieval call to an owner and a document set.
// The filter is per-turn; the gateway it is passed to is shared.
type RetrievalFilter struct {
	OwnerID          string   `json:"owner_id"`
	AllowedDocuments []string `json:"allowed_documents"`
	K                int      `json:"k"`
}

// NewRetrievalFilter builds a filter for the given scope, deriving k as
// min(5 x number of documents, 20), with a default of 5 when the caller
// scopes no documents.
func NewRetrievalFilter(ownerID string, allowedDocuments []string) RetrievalFilter {
	return RetrievalFilter{
		OwnerID:          ownerID,
		AllowedDocuments: allowedDocuments,
		K:                DeriveK(len(allowedDocuments)),
	}
}

// DeriveK computes the retrieval result count for a document-set size.
func DeriveK(numDocuments int) int {
	if numDocuments == 0 {
		return defaultK
	}
	k := perDocumentK * numDocuments
	if k > maxK {
		return maxK
	}
	return k
}

// Passage is a unit of retrieved text with provenance. Passages live only
// for the duration of a turn.
type Passage struct {
	Text    string  `json:"text"`
	Source  string  `json:"source"`
	OwnerID string  `json:"owner_id"`
	Score   float32 `json:"score,omitempty"`
}
