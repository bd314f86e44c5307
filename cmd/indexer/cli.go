package main

import (
	"context"
	"io"
)

// Dependencies holds the writers and context for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Build    BuildCmd    `cmd:"" help:"Build a Bleve index from a search_index.js file"`
	Search   SearchCmd   `cmd:"" help:"Full-text search over a built index"`
	Grep     GrepCmd     `cmd:"" help:"Literal search over a search_index.js file"`
	Pages    PagesCmd    `cmd:"" help:"List pages, sections and documented functions"`
	Validate ValidateCmd `cmd:"" help:"Check a search_index.js file against the index schema"`
}

// BuildCmd is the "build" subcommand.
type BuildCmd struct {
	IndexFile string `arg:"" help:"Path to search_index.js" type:"existingfile"`
	IndexDir  string `arg:"" help:"Output directory for the Bleve index"`
	SiteURL   string `name:"site-url" default:"${site_url}" help:"Documentation root used for result links"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	IndexDir string `arg:"" help:"Bleve index directory" type:"existingdir"`
	Query    string `arg:"" optional:"" help:"Search text"`
	Page     string `help:"Page title, case-insensitive"`
	Category string `help:"Restrict to page, section or function"`
	Title    string `help:"Words that must appear in the section title"`
	Limit    int    `short:"n" default:"10" help:"Maximum number of results"`
}

// GrepCmd is the "grep" subcommand.
type GrepCmd struct {
	IndexFile     string `arg:"" help:"Path to search_index.js" type:"existingfile"`
	Text          string `arg:"" optional:"" help:"Literal text to find"`
	Page          string `help:"Page title, case-insensitive"`
	Title         string `help:"Part of the section title, case-insensitive"`
	Category      string `help:"Restrict to page, section or function"`
	CaseSensitive bool   `short:"s" help:"Match text case-sensitively"`
	Limit         int    `short:"n" default:"0" help:"Maximum number of matches (0 for all)"`
}

// PagesCmd is the "pages" subcommand.
type PagesCmd struct {
	IndexFile string `arg:"" help:"Path to search_index.js" type:"existingfile"`
	Sections  bool   `help:"Also list section headings and functions"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	IndexFile string `arg:"" help:"Path to search_index.js" type:"existingfile"`
}
