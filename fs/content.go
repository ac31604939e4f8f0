// Package fs provides file-based access to the static reference documents.
package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/mtgrules"
)

// Data file names.
const (
	RulesFile    = "rules.json"
	IndexFile    = "rules-index.json"
	GlossaryFile = "glossary.json"
)

// Ensure ContentStore implements mtgrules.ContentService at compile time.
var _ mtgrules.ContentService = (*ContentStore)(nil)

// memo holds a parsed document and the hash of the bytes it came from.
type memo[T any] struct {
	value T
	hash  uint64
	ok    bool
	stale bool
}

// ContentStore loads the data files from a directory. Each document is
// parsed once and memoized until Invalidate; a reload whose bytes hash the
// same as before keeps the already-parsed document.
type ContentStore struct {
	dir string

	mu       sync.Mutex
	rules    memo[*mtgrules.RuleDocument]
	glossary memo[*mtgrules.Glossary]
	index    memo[*mtgrules.RulesIndex]
}

// NewContentStore creates a ContentStore reading from dir.
func NewContentStore(dir string) *ContentStore {
	return &ContentStore{dir: dir}
}

// Rules returns the normalized rules document.
func (s *ContentStore) Rules(ctx context.Context) (*mtgrules.RuleDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return load(s.dir, RulesFile, &s.rules, mtgrules.ParseRules)
}

// Glossary returns the glossary document.
func (s *ContentStore) Glossary(ctx context.Context) (*mtgrules.Glossary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return load(s.dir, GlossaryFile, &s.glossary, mtgrules.ParseGlossary)
}

// Index returns the rules index. When the index file is missing it is
// derived from the rules document.
func (s *ContentStore) Index(ctx context.Context) (*mtgrules.RulesIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := load(s.dir, IndexFile, &s.index, mtgrules.ParseIndex)
	if mtgrules.ErrorCode(err) != mtgrules.ENOTFOUND {
		return idx, err
	}
	doc, err := load(s.dir, RulesFile, &s.rules, mtgrules.ParseRules)
	if err != nil {
		return nil, err
	}
	return mtgrules.BuildIndex(doc), nil
}

// Invalidate marks every memoized document stale so the next access
// re-reads its file.
func (s *ContentStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules.stale = true
	s.glossary.stale = true
	s.index.stale = true
}

func load[T any](dir, name string, m *memo[T], parse func([]byte) (T, error)) (T, error) {
	var zero T
	if m.ok && !m.stale {
		return m.value, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		*m = memo[T]{}
		return zero, mtgrules.Errorf(mtgrules.ENOTFOUND, "%s not found", name)
	}
	if err != nil {
		return zero, err
	}

	h := xxhash.Sum64(data)
	if m.ok && m.hash == h {
		m.stale = false
		return m.value, nil
	}

	v, err := parse(data)
	if err != nil {
		return zero, err
	}
	*m = memo[T]{value: v, hash: h, ok: true}
	return v, nil
}
