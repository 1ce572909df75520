// Package state provides durable per-thread conversation state with atomic
// read-modify-write semantics.
package state

import (
	"context"

	"github.com/synapdocs/docqa/internal/model"
)

// Store is the persistence contract for conversation state. The engine's
// correctness does not depend on the storage schema; any adapter that
// honors these semantics works.
type Store interface {
	// Load returns the state for a thread, or the default empty state when
	// the thread has never been seen. It never fails for a missing thread.
	Load(ctx context.Context, threadID string) (model.ConversationState, error)

	// Commit atomically persists the full updated state for a turn. A
	// concurrent reader of the same thread sees either the previous state
	// or the new one, never a partial message list.
	Commit(ctx context.Context, threadID string, st model.ConversationState) error

	// Delete removes all persisted rows for a thread. Deleting a thread
	// that does not exist succeeds silently.
	Delete(ctx context.Context, threadID string) error

	// Ping reports whether the underlying connection is still usable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
