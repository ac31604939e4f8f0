package mtgrules

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SchemaVariant identifies which nesting layout a rules document uses.
type SchemaVariant string

// Supported rules document layouts. The nested layout is canonical; the
// flat layout is accepted as legacy input.
const (
	VariantFlat   SchemaVariant = "flat"
	VariantNested SchemaVariant = "nested"
)

// Subrule is the finest addressable rule statement (e.g. "100.1a").
type Subrule struct {
	Number   string   `json:"subrule"`
	Text     string   `json:"text"`
	Examples []string `json:"examples"`
}

// Rule is a numbered rule entry. Flat documents carry a Title; nested
// documents carry Text and Examples at the rule level.
type Rule struct {
	Number   string    `json:"rule"`
	Title    string    `json:"title,omitempty"`
	Text     string    `json:"text,omitempty"`
	Examples []string  `json:"examples"`
	Subrules []Subrule `json:"subrules"`
}

// Subsection groups rules within a section. Flat documents are normalized
// into a single implicit subsection with an empty number.
type Subsection struct {
	Number string `json:"subsection"`
	Title  string `json:"title"`
	Rules  []Rule `json:"rules"`
}

// Section is a top-level rule category.
type Section struct {
	Number      string       `json:"section"`
	Title       string       `json:"title"`
	Subsections []Subsection `json:"subsections"`
}

// Rules returns every rule in the section in document order.
func (s *Section) Rules() []Rule {
	var rules []Rule
	for _, sub := range s.Subsections {
		rules = append(rules, sub.Rules...)
	}
	return rules
}

// RuleDocument is the normalized in-memory rules tree. Both schema variants
// decode into the same shape; Variant records which one was read.
type RuleDocument struct {
	Variant  SchemaVariant
	Sections []Section
}

// Section returns the section with the given number.
func (d *RuleDocument) Section(number string) (*Section, bool) {
	for i := range d.Sections {
		if d.Sections[i].Number == number {
			return &d.Sections[i], true
		}
	}
	return nil, false
}

// FindRule returns the rule with the given number along with its section
// and subsection context. Returns ENOTFOUND if no rule has that number.
func (d *RuleDocument) FindRule(number string) (*RuleMatch, error) {
	var found *RuleMatch
	d.walk(func(sec *Section, sub *Subsection, r *Rule) bool {
		if r.Number != number {
			return true
		}
		m := newRuleMatch(sec, sub, r, r.Subrules)
		found = &m
		return false
	})
	if found == nil {
		return nil, Errorf(ENOTFOUND, "rule %q not found", number)
	}
	return found, nil
}

// RuleCount returns the total number of rule entries in the document.
func (d *RuleDocument) RuleCount() int {
	n := 0
	d.walk(func(*Section, *Subsection, *Rule) bool {
		n++
		return true
	})
	return n
}

// walk visits every rule in document order until fn returns false.
func (d *RuleDocument) walk(fn func(sec *Section, sub *Subsection, r *Rule) bool) {
	for i := range d.Sections {
		sec := &d.Sections[i]
		for j := range sec.Subsections {
			sub := &sec.Subsections[j]
			for k := range sub.Rules {
				if !fn(sec, sub, &sub.Rules[k]) {
					return
				}
			}
		}
	}
}

// rawRulesDocument is the wire shape of rules.json.
type rawRulesDocument struct {
	Sections *[]rawSection `json:"mtgrules"`
}

type rawSection struct {
	Section     string          `json:"section"`
	Title       string          `json:"title"`
	Rules       json.RawMessage `json:"rules"`
	Subsections json.RawMessage `json:"subsections"`
}

type rawSubsection struct {
	Subsection string    `json:"subsection"`
	Title      string    `json:"title"`
	Rules      []rawRule `json:"rules"`
}

type rawRule struct {
	Rule     string       `json:"rule"`
	Title    string       `json:"title"`
	Text     string       `json:"text"`
	Examples []string     `json:"examples"`
	Subrules []rawSubrule `json:"subrules"`
}

type rawSubrule struct {
	Subrule  string   `json:"subrule"`
	Text     string   `json:"text"`
	Examples []string `json:"examples"`
}

// ParseRules decodes a rules.json document. The schema variant is detected
// from the shape of each section (a "rules" array means flat, a
// "subsections" array means nested) and all sections must agree. Shape
// problems are reported as ESCHEMA rather than yielding empty results.
func ParseRules(data []byte) (*RuleDocument, error) {
	var raw rawRulesDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Errorf(ESCHEMA, "invalid rules JSON: %v", err)
	}
	if raw.Sections == nil {
		return nil, Errorf(ESCHEMA, "rules document missing %q array", "mtgrules")
	}

	doc := &RuleDocument{Sections: make([]Section, 0, len(*raw.Sections))}
	seen := make(map[string]bool)

	for i, rs := range *raw.Sections {
		if rs.Section == "" {
			return nil, Errorf(ESCHEMA, "section at position %d has no number", i)
		}
		if seen[rs.Section] {
			return nil, Errorf(ESCHEMA, "duplicate section %q", rs.Section)
		}
		seen[rs.Section] = true

		variant, err := detectVariant(rs)
		if err != nil {
			return nil, err
		}
		if doc.Variant == "" {
			doc.Variant = variant
		} else if doc.Variant != variant {
			return nil, Errorf(ESCHEMA, "section %q uses %s layout but document is %s", rs.Section, variant, doc.Variant)
		}

		sec := Section{Number: rs.Section, Title: rs.Title}
		switch variant {
		case VariantFlat:
			var rules []rawRule
			if err := json.Unmarshal(rs.Rules, &rules); err != nil {
				return nil, Errorf(ESCHEMA, "section %q: invalid rules: %v", rs.Section, err)
			}
			normalized, err := normalizeRules(rs.Section, rules)
			if err != nil {
				return nil, err
			}
			sec.Subsections = []Subsection{{Rules: normalized}}
		case VariantNested:
			var subs []rawSubsection
			if err := json.Unmarshal(rs.Subsections, &subs); err != nil {
				return nil, Errorf(ESCHEMA, "section %q: invalid subsections: %v", rs.Section, err)
			}
			sec.Subsections = make([]Subsection, 0, len(subs))
			seenSub := make(map[string]bool)
			for _, s := range subs {
				if s.Subsection == "" {
					return nil, Errorf(ESCHEMA, "section %q: subsection has no number", rs.Section)
				}
				if seenSub[s.Subsection] {
					return nil, Errorf(ESCHEMA, "section %q: duplicate subsection %q", rs.Section, s.Subsection)
				}
				seenSub[s.Subsection] = true
				normalized, err := normalizeRules(s.Subsection, s.Rules)
				if err != nil {
					return nil, err
				}
				sec.Subsections = append(sec.Subsections, Subsection{
					Number: s.Subsection,
					Title:  s.Title,
					Rules:  normalized,
				})
			}
		}
		doc.Sections = append(doc.Sections, sec)
	}

	// An empty document has no shape to inspect; treat it as canonical.
	if doc.Variant == "" {
		doc.Variant = VariantNested
	}

	return doc, nil
}

// detectVariant inspects which nesting array a raw section carries.
func detectVariant(rs rawSection) (SchemaVariant, error) {
	hasRules := isPresent(rs.Rules)
	hasSubsections := isPresent(rs.Subsections)
	switch {
	case hasRules && hasSubsections:
		return "", Errorf(ESCHEMA, "section %q has both %q and %q arrays", rs.Section, "rules", "subsections")
	case hasRules:
		return VariantFlat, nil
	case hasSubsections:
		return VariantNested, nil
	default:
		return "", Errorf(ESCHEMA, "section %q has neither %q nor %q array", rs.Section, "rules", "subsections")
	}
}

func isPresent(msg json.RawMessage) bool {
	trimmed := bytes.TrimSpace(msg)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func normalizeRules(parent string, raw []rawRule) ([]Rule, error) {
	rules := make([]Rule, 0, len(raw))
	seen := make(map[string]bool)
	for _, rr := range raw {
		if rr.Rule == "" {
			return nil, Errorf(ESCHEMA, "%q: rule has no number", parent)
		}
		if seen[rr.Rule] {
			return nil, Errorf(ESCHEMA, "%q: duplicate rule %q", parent, rr.Rule)
		}
		seen[rr.Rule] = true

		subrules := make([]Subrule, 0, len(rr.Subrules))
		seenSub := make(map[string]bool)
		for _, rs := range rr.Subrules {
			if rs.Subrule == "" {
				return nil, Errorf(ESCHEMA, "rule %q: subrule has no number", rr.Rule)
			}
			if seenSub[rs.Subrule] {
				return nil, Errorf(ESCHEMA, "rule %q: duplicate subrule %q", rr.Rule, rs.Subrule)
			}
			seenSub[rs.Subrule] = true
			subrules = append(subrules, Subrule{
				Number:   rs.Subrule,
				Text:     rs.Text,
				Examples: nonNil(rs.Examples),
			})
		}

		rules = append(rules, Rule{
			Number:   rr.Rule,
			Title:    rr.Title,
			Text:     rr.Text,
			Examples: nonNil(rr.Examples),
			Subrules: subrules,
		})
	}
	return rules, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// flatSectionJSON and nestedSectionJSON are the wire shapes written by
// MarshalJSON for each variant.
type flatSectionJSON struct {
	Section string `json:"section"`
	Title   string `json:"title"`
	Rules   []Rule `json:"rules"`
}

type nestedSectionJSON struct {
	Section     string       `json:"section"`
	Title       string       `json:"title"`
	Subsections []Subsection `json:"subsections"`
}

// MarshalJSON encodes the document in the layout of its own variant so that
// ParseRules(MarshalJSON(doc)) yields an equivalent document.
func (d *RuleDocument) MarshalJSON() ([]byte, error) {
	if d.Variant == VariantFlat {
		sections := make([]flatSectionJSON, 0, len(d.Sections))
		for i := range d.Sections {
			sec := &d.Sections[i]
			rules := sec.Rules()
			if rules == nil {
				rules = []Rule{}
			}
			sections = append(sections, flatSectionJSON{Section: sec.Number, Title: sec.Title, Rules: rules})
		}
		return json.Marshal(struct {
			Sections []flatSectionJSON `json:"mtgrules"`
		}{sections})
	}

	sections := make([]nestedSectionJSON, 0, len(d.Sections))
	for _, sec := range d.Sections {
		subs := sec.Subsections
		if subs == nil {
			subs = []Subsection{}
		}
		sections = append(sections, nestedSectionJSON{Section: sec.Number, Title: sec.Title, Subsections: subs})
	}
	return json.Marshal(struct {
		Sections []nestedSectionJSON `json:"mtgrules"`
	}{sections})
}

// Migrate converts a flat document into the canonical nested layout. Each
// flat rule (e.g. "100. General") becomes a subsection; its subrules are
// regrouped so that "100.1" becomes a rule and "100.1a" a subrule of it.
// A lettered subrule without a preceding parent becomes a rule of its own.
// Nested documents are returned unchanged.
func Migrate(doc *RuleDocument) *RuleDocument {
	if doc.Variant != VariantFlat {
		return doc
	}

	out := &RuleDocument{Variant: VariantNested, Sections: make([]Section, 0, len(doc.Sections))}
	for i := range doc.Sections {
		sec := &doc.Sections[i]
		nested := Section{Number: sec.Number, Title: sec.Title, Subsections: []Subsection{}}
		for _, r := range sec.Rules() {
			sub := Subsection{Number: r.Number, Title: r.Title, Rules: []Rule{}}
			for _, sr := range r.Subrules {
				parent := strings.TrimRight(sr.Number, "abcdefghijklmnopqrstuvwxyz")
				last := len(sub.Rules) - 1
				if parent != sr.Number && last >= 0 && sub.Rules[last].Number == parent {
					sub.Rules[last].Subrules = append(sub.Rules[last].Subrules, sr)
					continue
				}
				sub.Rules = append(sub.Rules, Rule{
					Number:   sr.Number,
					Text:     sr.Text,
					Examples: nonNil(sr.Examples),
					Subrules: []Subrule{},
				})
			}
			nested.Subsections = append(nested.Subsections, sub)
		}
		out.Sections = append(out.Sections, nested)
	}
	return out
}
