package chat

import (
	"context"
	"time"

	"github.com/fwojciec/mtgrules"
)

// PlaceholderReply is returned for every question.
const PlaceholderReply = "I understand you're asking about Magic: The Gathering rules. This is a placeholder response - you'll need to integrate with your preferred LLM service to get actual rule assistance. I can help with rules questions, card interactions, tournament procedures, and more!"

// DefaultDelay simulates the assistant typing.
const DefaultDelay = 1500 * time.Millisecond

var _ mtgrules.Asker = (*PlaceholderAsker)(nil)

// PlaceholderAsker answers every question with PlaceholderReply after Delay.
type PlaceholderAsker struct {
	Delay time.Duration
}

// NewPlaceholderAsker creates a PlaceholderAsker with the given delay.
func NewPlaceholderAsker(delay time.Duration) *PlaceholderAsker {
	return &PlaceholderAsker{Delay: delay}
}

// Ask waits for Delay, or until ctx is done, and returns the placeholder.
func (a *PlaceholderAsker) Ask(ctx context.Context, question string) (string, error) {
	if a.Delay <= 0 {
		return PlaceholderReply, ctx.Err()
	}
	timer := time.NewTimer(a.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return PlaceholderReply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
