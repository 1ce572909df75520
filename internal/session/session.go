// Package session lazily constructs the engine's shared dependencies
// exactly once per process and repairs them when the store connection has
// gone away.
package session

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/synapdocs/docqa/internal/config"
	"github.com/synapdocs/docqa/internal/engine"
	"github.com/synapdocs/docqa/internal/llm"
	"github.com/synapdocs/docqa/internal/retriever"
	"github.com/synapdocs/docqa/internal/state"
	"github.com/synapdocs/docqa/pkg/logger"
)

// DocumentIndex is the ingestion/deletion surface of the retrieval gateway.
type DocumentIndex interface {
	Ingest(ctx context.Context, ownerID, source, content string) (retriever.IngestResult, error)
	DeleteDocument(ctx context.Context, ownerID, source string) error
}

// Resources are the process-wide shared handles behind one engine: the
// compiled state machine, the state store connection, and the retrieval
// gateway. There is no per-request engine.
type Resources struct {
	Engine    *engine.Engine
	Store     state.Store
	Documents DocumentIndex
}

// Manager guards single-flight construction of Resources. Concurrent
// callers during initialization block until the first initializer finishes;
// if it failed, the next caller retries initialization itself.
type Manager struct {
	cfg *config.Config
	log *logger.Logger

	mu  sync.RWMutex
	res *Resources
}

// NewManager creates a manager; nothing is constructed until Acquire.
func NewManager(cfg *config.Config, log *logger.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Acquire returns the shared resources, initializing or repairing them as
// needed.
func (m *Manager) Acquire(ctx context.Context) (*Resources, error) {
	m.mu.RLock()
	res := m.res
	m.mu.RUnlock()

	if res != nil && res.Store.Ping(ctx) == nil {
		return res, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have initialized (or repaired) while we waited.
	if m.res != nil {
		if m.res.Store.Ping(ctx) == nil {
			return m.res, nil
		}
		m.log.Warn("state store connection lost, rebuilding shared resources")
		m.res.Store.Close()
		m.res = nil
	}

	res, err := m.build()
	if err != nil {
		// Leave m.res nil so a later request retries cleanly.
		return nil, fmt.Errorf("initialize engine resources: %w", err)
	}
	m.res = res
	return res, nil
}

func (m *Manager) build() (*Resources, error) {
	store, err := state.NewSQLiteStore(m.cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	gateway, err := retriever.New(m.cfg.DataDir, m.embeddingFunc())
	if err != nil {
		store.Close()
		return nil, err
	}

	client, err := m.llmClient()
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Resources{
		Engine:    engine.New(store, gateway, client, m.log),
		Store:     store,
		Documents: gateway,
	}, nil
}

func (m *Manager) llmClient() (llm.Client, error) {
	if m.cfg.AnthropicAPIKey != "" {
		return llm.NewAnthropicClient(m.cfg.AnthropicAPIKey, m.cfg.GenerationModel)
	}
	if m.cfg.OpenAIAPIKey != "" {
		return llm.NewOpenAIClient(m.cfg.OpenAIAPIKey, m.cfg.GenerationModel)
	}
	return nil, fmt.Errorf("no LLM API key configured")
}

func (m *Manager) embeddingFunc() chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOpenAI(m.cfg.OpenAIAPIKey, chromem.EmbeddingModelOpenAI(m.cfg.EmbeddingModel))
}

// Healthy reports whether the shared resources, if already built, are
// still usable. A manager that has not initialized yet is healthy; init is
// lazy and should not be forced by a probe.
func (m *Manager) Healthy(ctx context.Context) error {
	m.mu.RLock()
	res := m.res
	m.mu.RUnlock()
	if res == nil {
		return nil
	}
	return res.Store.Ping(ctx)
}

// Close releases the shared resources, if they were ever built.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.res != nil {
		m.res.Store.Close()
		m.res = nil
	}
}
