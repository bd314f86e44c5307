package main

import (
	"fmt"
	"strings"

	"github.com/oceanraster/docsearch-mcp/internal/searchindex"
)

// Run executes the grep command.
func (c *GrepCmd) Run(deps *Dependencies) error {
	category := searchindex.Category(strings.ToLower(c.Category))
	if category != "" && !category.Valid() {
		return fmt.Errorf("unknown category %q (want page, section or function)", c.Category)
	}
	if c.Text == "" && c.Page == "" && c.Title == "" && category == "" {
		return fmt.Errorf("text or at least one filter is required")
	}

	doc, err := searchindex.ParseFile(c.IndexFile)
	if err != nil {
		return err
	}

	matches := searchindex.NewCatalog(doc).Search(searchindex.Query{
		Text:          c.Text,
		Page:          c.Page,
		Title:         c.Title,
		Category:      category,
		Limit:         c.Limit,
		CaseSensitive: c.CaseSensitive,
	})

	if len(matches) == 0 {
		fmt.Fprintln(deps.Stdout, "No matches.")
		return nil
	}

	for _, m := range matches {
		location := m.Entry.Location
		if location == "" {
			location = "/"
		}
		fmt.Fprintf(deps.Stdout, "%d  %s  %s > %s\n", m.Index, location, m.Entry.Page, m.Entry.Title)
		if m.Snippet != "" {
			fmt.Fprintf(deps.Stdout, "    %s\n", m.Snippet)
		}
	}
	return nil
}
