package tools

import (
	"embed"
	"io/fs"
)

// The Documenter search index ships inside the binary so the server can
// build its search index offline on first run.
//
//go:embed data/docs/*
var embeddedFS embed.FS

// embeddedDataProvider serves DataProvider reads from embed.FS.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates a production DataProvider that uses embedded files.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

func (p *embeddedDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	return p.fs.ReadDir(name)
}

var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
