package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/mtgrules"
)

// terminalHighlighter marks matches in plain-text output.
var terminalHighlighter = mtgrules.Highlighter{Open: "**", Close: "**"}

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	if c.Preview < 0 {
		fmt.Fprintln(deps.Stderr, "error: preview must not be negative")
		return mtgrules.Errorf(mtgrules.EINVALID, "preview must not be negative")
	}

	doc, err := deps.Content.Rules(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	results := mtgrules.SearchRules(doc, c.Query, mtgrules.SearchOptions{PreviewSize: c.Preview})
	if len(results) == 0 {
		fmt.Fprintf(deps.Stdout, "No rules match %q.\n", c.Query)
		return nil
	}

	for _, m := range results {
		if c.Highlight {
			m = terminalHighlighter.HighlightMatch(m, c.Query)
		}
		printMatch(deps.Stdout, m)
	}

	if strings.TrimSpace(c.Query) == "" {
		fmt.Fprintf(deps.Stdout, "Showing first %d of %d rules.\n", len(results), doc.RuleCount())
		return nil
	}
	fmt.Fprintf(deps.Stdout, "%d matching rules.\n", len(results))
	return nil
}

func printMatch(w io.Writer, m mtgrules.RuleMatch) {
	path := m.Section + ". " + m.SectionTitle
	if m.Subsection != "" {
		path += " > " + m.Subsection + ". " + m.SubsectionTitle
	}
	header := m.Rule
	if m.Title != "" {
		header += " " + m.Title
	}
	if m.Partial {
		header += " (partial match)"
	}

	fmt.Fprintf(w, "%s  [%s]\n", header, path)
	if m.Text != "" {
		fmt.Fprintf(w, "    %s\n", m.Text)
	}
	for _, ex := range m.Examples {
		fmt.Fprintf(w, "    %s\n", ex)
	}
	for _, sr := range m.Subrules {
		fmt.Fprintf(w, "  %s %s\n", sr.Number, sr.Text)
	}
	fmt.Fprintln(w)
}
