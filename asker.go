package mtgrules

import "context"

// Asker answers questions about the rules.
type Asker interface {
	// Ask returns a reply to a user question.
	Ask(ctx context.Context, question string) (string, error)
}
