package main

import (
	"fmt"

	"github.com/oceanraster/docsearch-mcp/internal/searchindex"
)

// Run executes the pages command.
func (c *PagesCmd) Run(deps *Dependencies) error {
	doc, err := searchindex.ParseFile(c.IndexFile)
	if err != nil {
		return err
	}

	for _, p := range searchindex.NewCatalog(doc).Pages() {
		location := p.Location
		if location == "" {
			location = "/"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  (%d entries)\n", p.Title, location, p.Entries)

		if !c.Sections {
			continue
		}
		for _, s := range p.Sections {
			fmt.Fprintf(deps.Stdout, "  # %s\n", s)
		}
		for _, f := range p.Functions {
			fmt.Fprintf(deps.Stdout, "  ƒ %s\n", f)
		}
	}
	return nil
}
