package mtgrules

import (
	"encoding/json"
	"strings"
)

// GlossaryEntry is a single glossary term and its definition.
type GlossaryEntry struct {
	Term string `json:"term"`
	Text string `json:"text"`
}

// Glossary is the decoded glossary.json document.
type Glossary struct {
	Entries []GlossaryEntry `json:"glossary"`
}

// ParseGlossary decodes a glossary.json document.
func ParseGlossary(data []byte) (*Glossary, error) {
	var raw struct {
		Entries *[]GlossaryEntry `json:"glossary"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Errorf(ESCHEMA, "invalid glossary JSON: %v", err)
	}
	if raw.Entries == nil {
		return nil, Errorf(ESCHEMA, "glossary document missing %q array", "glossary")
	}
	for i, e := range *raw.Entries {
		if e.Term == "" {
			return nil, Errorf(ESCHEMA, "glossary entry at position %d has no term", i)
		}
	}
	return &Glossary{Entries: *raw.Entries}, nil
}

// GlossaryQuery holds the two independent glossary filters. An empty field
// matches every entry.
type GlossaryQuery struct {
	Term string
	Text string
}

// FilterGlossary returns the entries whose term contains q.Term and whose
// definition contains q.Text, both compared case-insensitively. Order is
// preserved.
func FilterGlossary(entries []GlossaryEntry, q GlossaryQuery) []GlossaryEntry {
	term := strings.ToLower(q.Term)
	text := strings.ToLower(q.Text)

	results := make([]GlossaryEntry, 0, len(entries))
	for _, e := range entries {
		if term != "" && !strings.Contains(strings.ToLower(e.Term), term) {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(e.Text), text) {
			continue
		}
		results = append(results, e)
	}
	return results
}
