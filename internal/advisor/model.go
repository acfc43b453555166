package advisor

import "context"

// Roles used in conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one message in the conversation.
type Turn struct {
	Role string
	Text string
}

// Model produces the next reply for a conversation. The last turn in history
// is the user message being answered.
type Model interface {
	Generate(ctx context.Context, history []Turn) (string, error)
}
