package model

// ConversationState is the persisted per-thread state. The engine is
// stateless between turns; everything that carries across turns lives here.
type ConversationState struct {
	Messages     []Message `json:"messages"`
	RewriteCount int       `json:"rewrite_count"`
}

// NewConversationState returns the default state for a thread with no
// history yet.
func NewConversationState() ConversationState {
	return ConversationState{RewriteCount: 0}
}
