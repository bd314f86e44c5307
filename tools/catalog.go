package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oceanraster/docsearch-mcp/internal/indexing"
	"github.com/oceanraster/docsearch-mcp/internal/searchindex"
)

// ListDocumentationPagesInput defines input for list_documentation_pages tool
type ListDocumentationPagesInput struct{}

// ListDocumentationPagesOutput defines output for list_documentation_pages tool
type ListDocumentationPagesOutput struct {
	Pages   []PageInfo `json:"pages"`
	Entries int        `json:"entries"`
}

// PageInfo is a page summary with its site URL
type PageInfo struct {
	Title     string   `json:"title"`
	Location  string   `json:"location"`
	URL       string   `json:"url"`
	Sections  []string `json:"sections,omitempty"`
	Functions []string `json:"functions,omitempty"`
	Entries   int      `json:"entries"`
}

// GetDocumentationSectionInput defines input for get_documentation_section tool
type GetDocumentationSectionInput struct {
	Location string `json:"location" jsonschema:"Location of a heading, docstring or page, e.g. 'literated/ECCO_example/#Read-the-data-into-a-RasterStack'"`
}

// GetDocumentationSectionOutput defines output for get_documentation_section tool
type GetDocumentationSectionOutput struct {
	Section searchindex.SectionView `json:"section"`
	URL     string                  `json:"url"`
}

// GrepDocumentationInput defines input for grep_documentation tool
type GrepDocumentationInput struct {
	Text          string `json:"text,omitempty" jsonschema:"Literal text to find in entry text or titles (optional when a filter is given)"`
	Page          string `json:"page,omitempty" jsonschema:"Exact page title, case-insensitive (optional)"`
	Title         string `json:"title,omitempty" jsonschema:"Part of the section title, case-insensitive (optional)"`
	Category      string `json:"category,omitempty" jsonschema:"Restrict to 'page', 'section' or 'function' (optional)"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"Match text case-sensitively (optional, defaults to false)"`
	MaxResults    int    `json:"max_results,omitempty" jsonschema:"Maximum number of matches (optional, defaults to 10, max 20)"`
}

// GrepMatch is a grep result with its site URL
type GrepMatch struct {
	Entry   searchindex.Entry `json:"entry"`
	Index   int               `json:"index"`
	Snippet string            `json:"snippet,omitempty"`
	URL     string            `json:"url"`
}

// GrepDocumentationOutput defines output for grep_documentation tool
type GrepDocumentationOutput struct {
	Matches   []GrepMatch `json:"matches"`
	Text      string      `json:"text"`
	Truncated bool        `json:"truncated"`
}

// loadCatalog parses the docs file and publishes its catalog
func loadCatalog(docsPath string) error {
	doc, err := searchindex.ParseFile(docsPath)
	if err != nil {
		return err
	}
	indexMgr.catalog.Store(searchindex.NewCatalog(doc))
	return nil
}

// currentCatalog returns the published catalog, loading it from the local
// docs or the embedded copy on first use
func currentCatalog() (*searchindex.Catalog, error) {
	if c := indexMgr.catalog.Load(); c != nil {
		return c, nil
	}

	docsPath := filepath.Join(dataDir, docsFile)
	if _, err := os.Stat(docsPath); err == nil {
		err := loadCatalog(docsPath)
		if err == nil {
			return indexMgr.catalog.Load(), nil
		}
		log.Printf("Warning: Local docs unreadable (%v), using embedded copy", err)
	}

	data, err := defaultDataProvider.ReadFile(embeddedDocsDir + "/search_index.js")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded search index: %w", err)
	}
	doc, err := searchindex.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded search index: %w", err)
	}

	c := searchindex.NewCatalog(doc)
	indexMgr.catalog.CompareAndSwap(nil, c)
	return indexMgr.catalog.Load(), nil
}

// ListDocumentationPages lists pages with their sections and docstrings
func ListDocumentationPages(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentationPagesInput) (*mcp.CallToolResult, ListDocumentationPagesOutput, error) {
	c, err := currentCatalog()
	if err != nil {
		return nil, ListDocumentationPagesOutput{}, err
	}

	pages := make([]PageInfo, 0, len(c.Pages()))
	for _, p := range c.Pages() {
		pages = append(pages, PageInfo{
			Title:     p.Title,
			Location:  p.Location,
			URL:       indexing.JoinURL(siteURL, p.Location),
			Sections:  p.Sections,
			Functions: p.Functions,
			Entries:   p.Entries,
		})
	}

	return nil, ListDocumentationPagesOutput{Pages: pages, Entries: c.Len()}, nil
}

// GetDocumentationSection returns the full text at a location
func GetDocumentationSection(ctx context.Context, req *mcp.CallToolRequest, input GetDocumentationSectionInput) (*mcp.CallToolResult, GetDocumentationSectionOutput, error) {
	c, err := currentCatalog()
	if err != nil {
		return nil, GetDocumentationSectionOutput{}, err
	}

	location := strings.TrimPrefix(strings.TrimSpace(input.Location), siteURL+"/")
	view, err := c.Section(location)
	if err != nil {
		if errors.Is(err, searchindex.ErrNotFound) {
			return nil, GetDocumentationSectionOutput{}, fmt.Errorf("%w: %q (use list_documentation_pages to see valid locations)", searchindex.ErrNotFound, input.Location)
		}
		return nil, GetDocumentationSectionOutput{}, err
	}

	return nil, GetDocumentationSectionOutput{Section: view, URL: indexing.JoinURL(siteURL, view.Location)}, nil
}

// GrepDocumentation scans entries for literal text
func GrepDocumentation(ctx context.Context, req *mcp.CallToolRequest, input GrepDocumentationInput) (*mcp.CallToolResult, GrepDocumentationOutput, error) {
	c, err := currentCatalog()
	if err != nil {
		return nil, GrepDocumentationOutput{}, err
	}

	category := searchindex.Category(strings.ToLower(input.Category))
	if category != "" && !category.Valid() {
		return nil, GrepDocumentationOutput{}, fmt.Errorf("unknown category %q (want page, section or function)", input.Category)
	}
	if input.Text == "" && input.Page == "" && input.Title == "" && category == "" {
		return nil, GrepDocumentationOutput{}, fmt.Errorf("text or at least one filter is required")
	}

	limit := input.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	if limit > maxResultsCap {
		limit = maxResultsCap
	}

	// One extra match tells us whether the result was cut
	found := c.Search(searchindex.Query{
		Text:          input.Text,
		Page:          input.Page,
		Title:         input.Title,
		Category:      category,
		Limit:         limit + 1,
		CaseSensitive: input.CaseSensitive,
	})

	output := GrepDocumentationOutput{Text: input.Text, Matches: []GrepMatch{}}
	if len(found) > limit {
		found = found[:limit]
		output.Truncated = true
	}
	for _, m := range found {
		output.Matches = append(output.Matches, GrepMatch{Entry: m.Entry, Index: m.Index, Snippet: m.Snippet, URL: indexing.JoinURL(siteURL, m.Entry.Location)})
	}

	return nil, output, nil
}

// RegisterCatalogTools registers the entry-level lookup tools
func RegisterCatalogTools(server *mcp.Server) error {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_documentation_pages",
			Description: "List documentation pages with their section headings and documented functions. Use the returned locations with get_documentation_section.",
		},
		ListDocumentationPages,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_documentation_section",
			Description: "Return the full text under a heading, a function docstring, or a whole page, given its location from search or list results.",
		},
		GetDocumentationSection,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "grep_documentation",
			Description: "Literal substring search over documentation entries, filtered by page, section title or category. Use for exact function names, code fragments and identifiers; results keep document order with snippets.",
		},
		GrepDocumentation,
	)

	return nil
}
