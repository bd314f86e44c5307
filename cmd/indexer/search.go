package main

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/oceanraster/docsearch-mcp/internal/indexing"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	filter := indexing.Filter{
		Text:     c.Query,
		Page:     c.Page,
		Category: c.Category,
		Title:    c.Title,
	}
	if _, err := indexing.BuildQuery(filter); err != nil {
		return err
	}

	index, err := bleve.Open(c.IndexDir)
	if err != nil {
		return fmt.Errorf("failed to open index at %q: %w", c.IndexDir, err)
	}
	defer index.Close()

	if filter.Page != "" {
		if filter.Page, err = resolvePage(index, filter.Page); err != nil {
			return err
		}
	}
	q, err := indexing.BuildQuery(filter)
	if err != nil {
		return err
	}

	req := bleve.NewSearchRequest(q)
	if c.Limit > 0 {
		req.Size = c.Limit
	}
	req.Fields = []string{"*"}

	res, err := index.SearchInContext(deps.Ctx, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(res.Hits) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}

	for _, hit := range res.Hits {
		chunk := indexing.ChunkFromHit(hit)
		fmt.Fprintf(deps.Stdout, "%.3f  %s  %s\n", hit.Score, chunk.Breadcrumb, chunk.URL)
	}
	fmt.Fprintf(deps.Stdout, "%d of %d results\n", len(res.Hits), res.Total)
	return nil
}

// resolvePage maps a page name to the indexed page title, ignoring case
func resolvePage(index bleve.Index, page string) (string, error) {
	dict, err := index.FieldDict(indexing.FieldPage)
	if err != nil {
		return "", fmt.Errorf("failed to read page titles: %w", err)
	}
	defer dict.Close()

	for {
		entry, err := dict.Next()
		if err != nil {
			return "", fmt.Errorf("failed to read page titles: %w", err)
		}
		if entry == nil {
			return page, nil
		}
		if strings.EqualFold(entry.Term, page) {
			return entry.Term, nil
		}
	}
}
