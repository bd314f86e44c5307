package searchindex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const snippetRadius = 60

// PageSummary describes one documentation page.
type PageSummary struct {
	Title     string   `json:"title"`
	Location  string   `json:"location"`
	Sections  []string `json:"sections,omitempty"`
	Functions []string `json:"functions,omitempty"`
	Entries   int      `json:"entries"`
}

// SectionView is the text under one heading, one docstring, or a whole page.
type SectionView struct {
	Location string   `json:"location"`
	Page     string   `json:"page"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Entries  int      `json:"entries"`
}

// Query filters a linear scan of the catalog.
type Query struct {
	Text          string   // substring of Text or Title; empty matches everything
	Page          string   // exact page title, case-insensitive
	Title         string   // substring of the section title, case-insensitive
	Category      Category // exact category
	Limit         int      // <= 0 means no limit
	CaseSensitive bool     // Text matching against entry text and title
}

// Match is a single search result.
type Match struct {
	Entry   Entry  `json:"entry"`
	Index   int    `json:"index"`
	Snippet string `json:"snippet,omitempty"`
}

// Catalog is a read-only view over a parsed index.
// It is safe for concurrent use once built.
type Catalog struct {
	entries []Entry
	pages   []PageSummary
}

// NewCatalog builds a catalog. The document is not copied; callers must not
// modify it afterwards.
func NewCatalog(doc *Document) *Catalog {
	c := &Catalog{entries: doc.Docs}

	byTitle := make(map[string]int)
	for _, e := range doc.Docs {
		idx, ok := byTitle[e.Page]
		if !ok {
			path, _ := SplitLocation(e.Location)
			c.pages = append(c.pages, PageSummary{Title: e.Page, Location: path})
			idx = len(c.pages) - 1
			byTitle[e.Page] = idx
		}

		p := &c.pages[idx]
		p.Entries++
		switch e.Category {
		case CategorySection:
			p.Sections = append(p.Sections, e.Title)
		case CategoryFunction:
			p.Functions = append(p.Functions, e.Title)
		}
	}

	return c
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Pages returns the pages in the order they first appear.
func (c *Catalog) Pages() []PageSummary { return c.pages }

// Section resolves a location.
//
// A heading location yields the heading plus the page text that follows it up
// to the next heading or docstring. A docstring location yields the docstring.
// A bare page location yields all page text of that page.
func (c *Catalog) Section(location string) (SectionView, error) {
	for i, e := range c.entries {
		if e.Location != location {
			continue
		}

		switch {
		case e.IsHeading():
			return c.sectionAt(i), nil
		case e.Category == CategoryFunction:
			return SectionView{
				Location: e.Location,
				Page:     e.Page,
				Title:    e.Title,
				Category: e.Category,
				Text:     e.Text,
				Entries:  1,
			}, nil
		}
	}

	// Anchors are matched ignoring case, e.g. "#package-workings"
	if path, anchor := SplitLocation(location); anchor != "" {
		for i, e := range c.entries {
			if !e.IsHeading() {
				continue
			}
			if p, _ := SplitLocation(e.Location); p == path && strings.EqualFold(Anchor(e.Title), anchor) {
				return c.sectionAt(i), nil
			}
		}
	}

	var parts []string
	var view SectionView
	for _, e := range c.entries {
		if e.Location != location || e.Category != CategoryPage {
			continue
		}
		if view.Entries == 0 {
			view = SectionView{Location: location, Page: e.Page, Title: e.Page, Category: CategoryPage}
		}
		view.Entries++
		if strings.TrimSpace(e.Text) != "" {
			parts = append(parts, e.Text)
		}
	}
	if view.Entries == 0 {
		return SectionView{}, fmt.Errorf("%w: %s", ErrNotFound, location)
	}

	view.Text = strings.Join(parts, "\n\n")
	return view, nil
}

func (c *Catalog) sectionAt(i int) SectionView {
	head := c.entries[i]
	view := SectionView{
		Location: head.Location,
		Page:     head.Page,
		Title:    head.Title,
		Category: CategorySection,
		Entries:  1,
	}

	var parts []string
	for _, e := range c.entries[i+1:] {
		if e.Page != head.Page || e.Category != CategoryPage {
			break
		}
		view.Entries++
		if strings.TrimSpace(e.Text) != "" {
			parts = append(parts, e.Text)
		}
	}

	view.Text = strings.Join(parts, "\n\n")
	return view
}

// Search scans every entry in order. No match is not an error: the result is
// simply empty.
func (c *Catalog) Search(q Query) []Match {
	needle := q.Text
	if !q.CaseSensitive {
		needle = strings.ToLower(needle)
	}
	titleNeedle := strings.ToLower(q.Title)

	matches := []Match{}
	for i, e := range c.entries {
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		if q.Page != "" && !strings.EqualFold(e.Page, q.Page) {
			continue
		}
		if titleNeedle != "" && !strings.Contains(strings.ToLower(e.Title), titleNeedle) {
			continue
		}

		snippet, ok := matchEntry(e, needle, q.CaseSensitive)
		if !ok {
			continue
		}

		matches = append(matches, Match{Entry: e, Index: i, Snippet: snippet})
		if q.Limit > 0 && len(matches) >= q.Limit {
			break
		}
	}

	return matches
}

func matchEntry(e Entry, needle string, caseSensitive bool) (string, bool) {
	if needle == "" {
		return snippet(e.Text, 0, 0), true
	}

	text, title := e.Text, e.Title
	if !caseSensitive {
		text, title = strings.ToLower(text), strings.ToLower(title)
	}

	if pos := strings.Index(text, needle); pos >= 0 {
		// Lowercasing can change byte lengths; fall back to the start of the text.
		if len(text) != len(e.Text) {
			return snippet(e.Text, 0, 0), true
		}
		return snippet(e.Text, pos, len(needle)), true
	}
	if strings.Contains(title, needle) {
		return snippet(e.Text, 0, 0), true
	}
	return "", false
}

// snippet returns the text around [pos, pos+n) trimmed to rune boundaries.
func snippet(text string, pos, n int) string {
	start := pos - snippetRadius
	if start < 0 {
		start = 0
	}
	end := pos + n + snippetRadius
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	out := strings.Join(strings.Fields(text[start:end]), " ")
	if start > 0 {
		out = "…" + out
	}
	if end < len(text) {
		out += "…"
	}
	return out
}
