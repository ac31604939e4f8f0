package mock

import (
	"context"

	"github.com/fwojciec/mtgrules"
)

var _ mtgrules.ContentService = (*ContentService)(nil)

// ContentService is a mock implementation of mtgrules.ContentService.
type ContentService struct {
	RulesFn    func(ctx context.Context) (*mtgrules.RuleDocument, error)
	GlossaryFn func(ctx context.Context) (*mtgrules.Glossary, error)
	IndexFn    func(ctx context.Context) (*mtgrules.RulesIndex, error)
}

func (s *ContentService) Rules(ctx context.Context) (*mtgrules.RuleDocument, error) {
	return s.RulesFn(ctx)
}

func (s *ContentService) Glossary(ctx context.Context) (*mtgrules.Glossary, error) {
	return s.GlossaryFn(ctx)
}

func (s *ContentService) Index(ctx context.Context) (*mtgrules.RulesIndex, error) {
	return s.IndexFn(ctx)
}
