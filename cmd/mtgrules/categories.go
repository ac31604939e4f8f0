package main

import (
	"fmt"

	"github.com/fwojciec/mtgrules"
)

// Run executes the categories command.
func (c *CategoriesCmd) Run(deps *Dependencies) error {
	if c.ID == "" {
		return c.list(deps)
	}

	category, err := mtgrules.CategoryByID(c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s. Use 'mtgrules categories' to see available categories.\n", mtgrules.ErrorMessage(err))
		return err
	}

	doc, err := deps.Content.Rules(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", mtgrules.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%s. %s\n%s\n\n", category.ID, category.Title, category.Description)
	sec, ok := doc.Section(category.ID)
	if !ok || len(sec.Rules()) == 0 {
		fmt.Fprintln(deps.Stdout, "No rules in this category.")
		return nil
	}
	for _, r := range sec.Rules() {
		line := r.Number
		if r.Title != "" {
			line += " " + r.Title
		}
		if r.Text != "" {
			line += " " + r.Text
		}
		fmt.Fprintln(deps.Stdout, line)
	}
	return nil
}

func (c *CategoriesCmd) list(deps *Dependencies) error {
	// Counts are best-effort; the category list itself is fixed.
	doc, err := deps.Content.Rules(deps.Ctx)
	if err != nil {
		deps.Logger.Warn("rule counts unavailable", "err", err)
	}

	for _, category := range mtgrules.Categories() {
		count := 0
		if doc != nil {
			if sec, ok := doc.Section(category.ID); ok {
				count = len(sec.Rules())
			}
		}
		fmt.Fprintf(deps.Stdout, "%s  %-32s %4d rules  %s\n", category.ID, category.Title, count, category.Description)
	}
	return nil
}
