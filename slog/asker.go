package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mtgrules"
)

// Ensure LoggingAsker implements mtgrules.Asker.
var _ mtgrules.Asker = (*LoggingAsker)(nil)

// LoggingAsker wraps an Asker with logging. Question text is not logged.
type LoggingAsker struct {
	next   mtgrules.Asker
	logger *slog.Logger
}

// NewLoggingAsker creates a new LoggingAsker.
func NewLoggingAsker(next mtgrules.Asker, logger *slog.Logger) *LoggingAsker {
	return &LoggingAsker{next: next, logger: logger}
}

// Ask delegates to the wrapped asker and logs the exchange.
func (a *LoggingAsker) Ask(ctx context.Context, question string) (reply string, err error) {
	defer func(begin time.Time) {
		a.logger.Info("ask",
			"question_len", len(question),
			"reply_len", len(reply),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Ask(ctx, question)
}
