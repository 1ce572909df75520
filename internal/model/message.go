// Package model defines data structures for the document Q&A service.
package model

import (
	"time"
)

// Role represents the author of a conversation message.
type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
	RoleTool  Role = "tool"
)

// contextWindow is the number of trailing messages used as model context.
// A deliberate tradeoff: deeper history costs latency and tokens.
const contextWindow = 5

// Message is a single entry in a thread's history.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Source carries provenance for tool results (the document names the
	// content was retrieved from). Empty for human and AI messages.
	Source string `json:"source,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Window returns the most recent context-window slice of messages.
func Window(messages []Message) []Message {
	if len(messages) <= contextWindow {
		return messages
	}
	return messages[len(messages)-contextWindow:]
}

// LastHumanContent returns the content of the most recent human message,
// or the empty string when the history has none.
func LastHumanContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleHuman {
			return messages[i].Content
		}
	}
	return ""
}
