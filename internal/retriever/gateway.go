// Package retriever provides owner-scoped passage retrieval and document
// ingestion over an embedded vector database.
package retriever

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/synapdocs/docqa/internal/model"
)

// Gateway wraps chromem-go with per-owner collections and disk persistence.
// The gateway is shared and long-lived; scoping lives entirely in the
// per-turn RetrievalFilter.
type Gateway struct {
	mu      sync.RWMutex
	db      *chromem.DB
	embedFn chromem.EmbeddingFunc
}

// New creates (or opens) the persistent vector store under dataDir/vectors/.
func New(dataDir string, embedFn chromem.EmbeddingFunc) (*Gateway, error) {
	db, err := chromem.NewPersistentDB(filepath.Join(dataDir, "vectors"), false)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return &Gateway{db: db, embedFn: embedFn}, nil
}

var collectionNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// collectionName returns the per-owner collection name. One collection per
// owner is the isolation boundary: a query can never touch another owner's
// vectors.
func collectionName(ownerID string) string {
	return "owner_" + collectionNameSanitizer.ReplaceAllString(ownerID, "_")
}

func (g *Gateway) getOrCreateCollection(ownerID string) (*chromem.Collection, error) {
	name := collectionName(ownerID)
	col := g.db.GetCollection(name, g.embedFn)
	if col == nil {
		var err error
		col, err = g.db.CreateCollection(name, nil, g.embedFn)
		if err != nil {
			return nil, fmt.Errorf("create collection for owner %q: %w", ownerID, err)
		}
	}
	return col, nil
}

// IngestResult reports the outcome of one ingestion.
type IngestResult struct {
	Chunks    int
	Duplicate bool
}

// Ingest chunks and indexes a document for an owner. A document already
// indexed under the same (owner, source) pair is skipped.
func (g *Gateway) Ingest(ctx context.Context, ownerID, source, content string) (IngestResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	col, err := g.getOrCreateCollection(ownerID)
	if err != nil {
		return IngestResult{}, err
	}

	if g.hasDocument(ctx, col, source) {
		return IngestResult{Duplicate: true}, nil
	}

	chunks := splitText(content)
	if len(chunks) == 0 {
		return IngestResult{}, fmt.Errorf("document %q has no extractable text", source)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("%s#%04d", source, i),
			Content: chunk,
			Metadata: map[string]string{
				"source":   source,
				"owner_id": ownerID,
			},
		}
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return IngestResult{}, fmt.Errorf("index document %q: %w", source, err)
	}
	return IngestResult{Chunks: len(chunks)}, nil
}

// hasDocument probes the collection for any chunk of the given source.
func (g *Gateway) hasDocument(ctx context.Context, col *chromem.Collection, source string) bool {
	if col.Count() == 0 {
		return false
	}
	results, err := col.Query(ctx, "duplicate-check", 1, map[string]string{"source": source}, nil)
	return err == nil && len(results) > 0
}

// Retrieve returns the filter's k top-ranked passages for the question
// across the allowed document set. Results never cross the filter's owner.
func (g *Gateway) Retrieve(ctx context.Context, question string, filter model.RetrievalFilter) ([]model.Passage, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	col := g.db.GetCollection(collectionName(filter.OwnerID), g.embedFn)
	if col == nil || col.Count() == 0 {
		return nil, nil
	}

	var hits []chromem.Result
	if len(filter.AllowedDocuments) == 0 {
		results, err := queryCollection(ctx, col, question, filter.K, nil)
		if err != nil {
			return nil, err
		}
		hits = results
	} else {
		for _, doc := range filter.AllowedDocuments {
			results, err := queryCollection(ctx, col, question, filter.K, map[string]string{"source": doc})
			if err != nil {
				return nil, err
			}
			hits = append(hits, results...)
		}
	}

	// Rank across documents; stable so ties keep their per-document order
	// within this call's result set.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > filter.K {
		hits = hits[:filter.K]
	}

	passages := make([]model.Passage, 0, len(hits))
	for _, r := range hits {
		passages = append(passages, model.Passage{
			Text:    r.Content,
			Source:  r.Metadata["source"],
			OwnerID: filter.OwnerID,
			Score:   r.Similarity,
		})
	}
	return passages, nil
}

// queryCollection steps k down when it exceeds the number of matching
// documents; chromem rejects nResults larger than the candidate set.
func queryCollection(ctx context.Context, col *chromem.Collection, query string, k int, where map[string]string) ([]chromem.Result, error) {
	if count := col.Count(); k > count {
		k = count
	}
	var results []chromem.Result
	var err error
	for attemptK := k; attemptK > 0; attemptK-- {
		results, err = col.Query(ctx, query, attemptK, where, nil)
		if err == nil {
			return results, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	return nil, nil
}

// DeleteDocument removes every chunk indexed under (owner, source).
func (g *Gateway) DeleteDocument(ctx context.Context, ownerID, source string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	col := g.db.GetCollection(collectionName(ownerID), g.embedFn)
	if col == nil {
		return nil
	}
	if err := col.Delete(ctx, map[string]string{"source": source}, nil); err != nil {
		return fmt.Errorf("delete document %q for owner %q: %w", source, ownerID, err)
	}
	return nil
}
