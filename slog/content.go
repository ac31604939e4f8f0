package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/mtgrules"
)

// Ensure LoggingContentService implements mtgrules.ContentService.
var _ mtgrules.ContentService = (*LoggingContentService)(nil)

// LoggingContentService wraps a ContentService with logging of document loads.
type LoggingContentService struct {
	next   mtgrules.ContentService
	logger *slog.Logger
}

// NewLoggingContentService creates a new LoggingContentService.
func NewLoggingContentService(next mtgrules.ContentService, logger *slog.Logger) *LoggingContentService {
	return &LoggingContentService{next: next, logger: logger}
}

// Rules delegates to the wrapped service and logs the load.
func (s *LoggingContentService) Rules(ctx context.Context) (doc *mtgrules.RuleDocument, err error) {
	defer func(begin time.Time) {
		attrs := []any{"document", "rules", "duration", time.Since(begin)}
		if doc != nil {
			attrs = append(attrs, "sections", len(doc.Sections), "variant", doc.Variant)
		}
		s.log(err, append(attrs, "err", err)...)
	}(time.Now())
	return s.next.Rules(ctx)
}

// Glossary delegates to the wrapped service and logs the load.
func (s *LoggingContentService) Glossary(ctx context.Context) (g *mtgrules.Glossary, err error) {
	defer func(begin time.Time) {
		attrs := []any{"document", "glossary", "duration", time.Since(begin)}
		if g != nil {
			attrs = append(attrs, "entries", len(g.Entries))
		}
		s.log(err, append(attrs, "err", err)...)
	}(time.Now())
	return s.next.Glossary(ctx)
}

// Index delegates to the wrapped service and logs the load.
func (s *LoggingContentService) Index(ctx context.Context) (idx *mtgrules.RulesIndex, err error) {
	defer func(begin time.Time) {
		attrs := []any{"document", "index", "duration", time.Since(begin)}
		if idx != nil {
			attrs = append(attrs, "sections", len(idx.Sections))
		}
		s.log(err, append(attrs, "err", err)...)
	}(time.Now())
	return s.next.Index(ctx)
}

// log reports failed loads at error level and the rest at debug level.
func (s *LoggingContentService) log(err error, attrs ...any) {
	if err != nil {
		s.logger.Error("content load", attrs...)
		return
	}
	s.logger.Debug("content load", attrs...)
}
