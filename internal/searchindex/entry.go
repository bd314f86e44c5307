// Package searchindex reads the search index that Documenter writes next to a
// rendered documentation site and answers simple lookups over it.
//
// The index is a flat list of entries. A "section" entry marks a heading, the
// "page" entries that follow it carry the prose and code of that heading, and
// "function" entries hold rendered docstrings.
package searchindex

import "errors"

// Category classifies an entry in the index.
type Category string

const (
	CategoryPage     Category = "page"
	CategorySection  Category = "section"
	CategoryFunction Category = "function"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryPage, CategorySection, CategoryFunction:
		return true
	}
	return false
}

var (
	// ErrEmptyIndex is returned when the document has no docs array.
	ErrEmptyIndex = errors.New("search index has no docs")

	// ErrNotFound is returned when a location does not resolve to an entry.
	ErrNotFound = errors.New("section not found")
)

// Entry is a single record of the search index.
type Entry struct {
	Location string   `json:"location"` // URL path relative to the site root, with optional #anchor
	Page     string   `json:"page"`     // Display title of the page
	Title    string   `json:"title"`    // Section title (equals Page for plain page text)
	Text     string   `json:"text"`     // Rendered prose or code
	Category Category `json:"category"`
}

// IsHeading reports whether the entry marks a section heading.
func (e Entry) IsHeading() bool {
	return e.Category == CategorySection
}

// Document is the body of a search index file.
type Document struct {
	Docs []Entry `json:"docs"`
}
