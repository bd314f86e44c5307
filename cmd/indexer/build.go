package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/oceanraster/docsearch-mcp/internal/indexing"
)

// Run executes the build command.
func (c *BuildCmd) Run(deps *Dependencies) error {
	logger := log.New(deps.Stderr, "", log.LstdFlags)
	start := time.Now()

	logger.Printf("Documentation Indexer v%d", indexing.IndexSchemaVersion)
	logger.Printf("Parsing search index: %s", c.IndexFile)

	chunks, err := indexing.ParseDocumentation(c.IndexFile, c.SiteURL)
	if err != nil {
		return fmt.Errorf("failed to parse search index: %w", err)
	}

	totalTokens, oversized := 0, 0
	for _, chunk := range chunks {
		totalTokens += chunk.TokenCount
		if chunk.TokenCount > indexing.MaxChunkTokens {
			oversized++
		}
	}
	avgTokens := 0
	if len(chunks) > 0 {
		avgTokens = totalTokens / len(chunks)
	}
	logger.Printf("✓ Parsed %d chunks (avg: %d tokens, %d oversized)", len(chunks), avgTokens, oversized)

	if err := os.RemoveAll(c.IndexDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.IndexDir), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	index, err := bleve.New(c.IndexDir, indexing.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = indexing.BatchIndex(index, chunks, func(done int) {
		logger.Printf("  Indexed %d/%d chunks...", done, len(chunks))
	})
	if err != nil {
		index.Close()
		return err
	}
	if err := index.Close(); err != nil {
		return fmt.Errorf("failed to close index: %w", err)
	}

	versionFile := filepath.Join(filepath.Dir(c.IndexDir), ".index_version")
	if err := os.WriteFile(versionFile, []byte(fmt.Sprintf("%d", indexing.IndexSchemaVersion)), 0644); err != nil {
		logger.Printf("Warning: Failed to write version file: %v", err)
	}

	logger.Printf("✓ Indexing complete in %v", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(deps.Stdout, "Indexed %d chunks into %s (schema v%d)\n", len(chunks), c.IndexDir, indexing.IndexSchemaVersion)
	return nil
}
