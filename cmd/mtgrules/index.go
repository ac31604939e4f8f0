package main

import (
	"fmt"

	"github.com/fwojciec/mtgrules"
)

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	idx, err := deps.Content.Index(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	for _, sec := range idx.Sections {
		fmt.Fprintf(deps.Stdout, "%s. %s\n", sec.ID, sec.Title)
		for _, sub := range sec.Subsections {
			fmt.Fprintf(deps.Stdout, "  %s %s\n", sub.ID, sub.Title)
		}
	}
	return nil
}
