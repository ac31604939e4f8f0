package mtgrules

import (
	"regexp"
	"strings"
)

// Default preview sizes for an empty query, per schema variant.
const (
	FlatPreviewSize   = 10
	NestedPreviewSize = 3
)

// SearchOptions configures SearchRules.
type SearchOptions struct {
	// PreviewSize is the number of rules returned for an empty query.
	// Zero selects the default for the document's variant.
	PreviewSize int
}

// RuleMatch is a single rule search result.
type RuleMatch struct {
	Section         string    `json:"section"`
	SectionTitle    string    `json:"sectionTitle"`
	Subsection      string    `json:"subsection,omitempty"`
	SubsectionTitle string    `json:"subsectionTitle,omitempty"`
	Rule            string    `json:"rule"`
	Title           string    `json:"title,omitempty"`
	Text            string    `json:"text,omitempty"`
	Examples        []string  `json:"examples"`
	Subrules        []Subrule `json:"subrules"`

	// Partial is set when only a strict subset of the rule's subrules
	// matched; Subrules then holds just those.
	Partial bool `json:"isPartialMatch"`
}

func newRuleMatch(sec *Section, sub *Subsection, r *Rule, subrules []Subrule) RuleMatch {
	return RuleMatch{
		Section:         sec.Number,
		SectionTitle:    sec.Title,
		Subsection:      sub.Number,
		SubsectionTitle: sub.Title,
		Rule:            r.Number,
		Title:           r.Title,
		Text:            r.Text,
		Examples:        r.Examples,
		Subrules:        subrules,
	}
}

// previewSize returns the effective preview size for doc.
func (o SearchOptions) previewSize(doc *RuleDocument) int {
	if o.PreviewSize > 0 {
		return o.PreviewSize
	}
	if doc.Variant == VariantFlat {
		return FlatPreviewSize
	}
	return NestedPreviewSize
}

// SearchRules filters doc by query and returns matches in document order.
//
// A rule matches when its number contains the raw query (case-sensitive),
// its title or text contains the query (case-insensitive), or at least one
// subrule matches by the same criteria. An empty or whitespace-only query
// returns the first rules of the document as a preview.
func SearchRules(doc *RuleDocument, query string, opts SearchOptions) []RuleMatch {
	if doc == nil {
		return nil
	}

	if strings.TrimSpace(query) == "" {
		limit := opts.previewSize(doc)
		results := make([]RuleMatch, 0, limit)
		doc.walk(func(sec *Section, sub *Subsection, r *Rule) bool {
			if len(results) >= limit {
				return false
			}
			results = append(results, newRuleMatch(sec, sub, r, r.Subrules))
			return true
		})
		return results
	}

	lower := strings.ToLower(query)
	var results []RuleMatch
	doc.walk(func(sec *Section, sub *Subsection, r *Rule) bool {
		self := strings.Contains(r.Number, query) ||
			strings.Contains(strings.ToLower(r.Title), lower) ||
			strings.Contains(strings.ToLower(r.Text), lower)

		var matching []Subrule
		for _, sr := range r.Subrules {
			if strings.Contains(sr.Number, query) || strings.Contains(strings.ToLower(sr.Text), lower) {
				matching = append(matching, sr)
			}
		}

		switch {
		case self || (len(matching) > 0 && len(matching) == len(r.Subrules)):
			results = append(results, newRuleMatch(sec, sub, r, r.Subrules))
		case len(matching) > 0:
			m := newRuleMatch(sec, sub, r, matching)
			m.Partial = true
			results = append(results, m)
		}
		return true
	})
	return results
}

// Highlighter wraps query occurrences in Open and Close markers.
type Highlighter struct {
	Open  string
	Close string
}

// DefaultHighlighter emits HTML emphasis markers.
var DefaultHighlighter = Highlighter{Open: "<mark>", Close: "</mark>"}

// Highlight wraps every case-insensitive occurrence of query in text with
// HTML mark tags. The query is matched literally.
func Highlight(text, query string) string {
	return DefaultHighlighter.Highlight(text, query)
}

// Highlight wraps every case-insensitive occurrence of query in text.
// Text is returned unchanged when the query is empty or whitespace.
// Invalid UTF-8 in the query is dropped before matching.
func (h Highlighter) Highlight(text, query string) string {
	query = strings.ToValidUTF8(query, "")
	if strings.TrimSpace(query) == "" {
		return text
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(s string) string {
		return h.Open + s + h.Close
	})
}

// HighlightMatch returns a copy of m with title, text and subrule texts
// highlighted. The input match is not modified.
func (h Highlighter) HighlightMatch(m RuleMatch, query string) RuleMatch {
	out := m
	out.Title = h.Highlight(m.Title, query)
	out.Text = h.Highlight(m.Text, query)
	out.Subrules = make([]Subrule, len(m.Subrules))
	for i, sr := range m.Subrules {
		sr.Text = h.Highlight(sr.Text, query)
		out.Subrules[i] = sr
	}
	return out
}
