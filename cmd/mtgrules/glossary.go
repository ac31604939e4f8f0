package main

import (
	"fmt"

	"github.com/fwojciec/mtgrules"
)

// Run executes the glossary command.
func (c *GlossaryCmd) Run(deps *Dependencies) error {
	g, err := deps.Content.Glossary(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	results := mtgrules.FilterGlossary(g.Entries, mtgrules.GlossaryQuery{Term: c.Term, Text: c.Text})
	for _, e := range results {
		fmt.Fprintf(deps.Stdout, "%s\n    %s\n\n", e.Term, e.Text)
	}
	fmt.Fprintf(deps.Stdout, "Showing %d of %d terms.\n", len(results), len(g.Entries))
	return nil
}
