package mtgrules

import "encoding/json"

// IndexEntry is a navigable entry beneath an index section.
type IndexEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IndexSection is a top-level entry of the lightweight navigation index.
type IndexSection struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Subsections []IndexEntry `json:"subsections"`
}

// RulesIndex is the decoded rules-index.json document.
type RulesIndex struct {
	Sections []IndexSection `json:"sections"`
}

// ParseIndex decodes a rules-index.json document.
func ParseIndex(data []byte) (*RulesIndex, error) {
	var raw struct {
		Sections *[]IndexSection `json:"sections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Errorf(ESCHEMA, "invalid rules index JSON: %v", err)
	}
	if raw.Sections == nil {
		return nil, Errorf(ESCHEMA, "rules index missing %q array", "sections")
	}

	sections := *raw.Sections
	for i := range sections {
		if sections[i].ID == "" {
			return nil, Errorf(ESCHEMA, "index section at position %d has no id", i)
		}
		if sections[i].Subsections == nil {
			sections[i].Subsections = []IndexEntry{}
		}
	}
	return &RulesIndex{Sections: sections}, nil
}

// BuildIndex derives a navigation index from a rules document. Nested
// documents list their subsections; flat documents list their rules.
func BuildIndex(doc *RuleDocument) *RulesIndex {
	idx := &RulesIndex{Sections: make([]IndexSection, 0, len(doc.Sections))}
	for i := range doc.Sections {
		sec := &doc.Sections[i]
		entry := IndexSection{ID: sec.Number, Title: sec.Title, Subsections: []IndexEntry{}}
		if doc.Variant == VariantFlat {
			for _, r := range sec.Rules() {
				entry.Subsections = append(entry.Subsections, IndexEntry{ID: r.Number, Title: r.Title})
			}
		} else {
			for _, sub := range sec.Subsections {
				entry.Subsections = append(entry.Subsections, IndexEntry{ID: sub.Number, Title: sub.Title})
			}
		}
		idx.Sections = append(idx.Sections, entry)
	}
	return idx
}
