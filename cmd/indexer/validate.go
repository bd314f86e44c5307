package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/oceanraster/docsearch-mcp/internal/searchindex"
)

// ErrInvalidIndex is returned when the file breaks the index schema.
var ErrInvalidIndex = errors.New("search index is invalid")

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	data, err := os.ReadFile(c.IndexFile)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", c.IndexFile, err)
	}

	if err := searchindex.Validate(data); err != nil {
		var verr *searchindex.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for _, v := range verr.Violations {
			fmt.Fprintf(deps.Stderr, "%s: %s\n", v.Path, v.Message)
		}
		return fmt.Errorf("%w: %d error(s)", ErrInvalidIndex, len(verr.Violations))
	}

	doc, err := searchindex.Parse(data)
	if err != nil {
		return err
	}
	catalog := searchindex.NewCatalog(doc)
	fmt.Fprintf(deps.Stdout, "✓ %s is valid: %d entries across %d pages\n", c.IndexFile, catalog.Len(), len(catalog.Pages()))
	return nil
}
