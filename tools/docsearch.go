package tools

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oceanraster/docsearch-mcp/internal/indexing"
	"github.com/oceanraster/docsearch-mcp/internal/searchindex"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxResults = 10
	maxResultsCap     = 20
	downloadTimeout   = 30 * time.Second

	docsFile         = "docs/search_index.js"
	cacheMetaFile    = "docs/cache.meta"
	indexDir         = "search/index"
	indexVersionFile = "search/.index_version"

	embeddedDocsDir = "data/docs"
)

// SearchResult represents a search result with score
type SearchResult struct {
	Chunk indexing.DocChunk `json:"chunk"`
	Score float64           `json:"score"`
}

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Full-text search query, e.g. 'conservative temperature' or 'depth_to_pressure'"`
	Page       string `json:"page,omitempty" jsonschema:"Restrict to a page title, e.g. 'Home' or 'ECCO model output' (optional)"`
	Category   string `json:"category,omitempty" jsonschema:"Restrict to 'page', 'section' or 'function' (optional)"`
	Title      string `json:"title,omitempty" jsonschema:"Restrict to sections whose title matches these words (optional)"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10, max 20)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Results    []SearchResult `json:"results"`
	Query      string         `json:"query"`
	TotalHits  int            `json:"total_hits"`
	SourceURLs []string       `json:"source_urls"`
}

// RefreshDocumentationIndexInput defines input for refresh_documentation_index tool
type RefreshDocumentationIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Force re-download and re-indexing (optional, defaults to false)"`
}

// RefreshDocumentationIndexOutput defines output for refresh_documentation_index tool
type RefreshDocumentationIndexOutput struct {
	Updated       bool      `json:"updated"`
	LastUpdate    time.Time `json:"last_update"`
	ChunksIndexed int       `json:"chunks_indexed"`
	Message       string    `json:"message"`
}

// indexHolder manages concurrent access to the Bleve index and the entry catalog
type indexHolder struct {
	// current holds the active index pointer (atomic access for lock-free reads)
	current atomic.Pointer[Index]

	// catalog is swapped together with current on refresh
	catalog atomic.Pointer[searchindex.Catalog]

	// refreshMu prevents concurrent refresh operations
	// NOT used for searches - they are lock-free via atomic pointer
	refreshMu sync.Mutex

	// wg tracks in-flight search operations for graceful cleanup of old indexes
	wg sync.WaitGroup
}

var indexMgr = &indexHolder{}

// lazyInit collapses concurrent first-use initializations into one
var lazyInit singleflight.Group

// InitializeDocSearch opens the local index, or builds one from the local
// docs, or from the embedded search index on first run.
func InitializeDocSearch() error {
	startTime := time.Now()
	log.Printf("Initializing documentation search...")

	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}

	indexPath := filepath.Join(dataDir, indexDir)
	docsPath := filepath.Join(dataDir, docsFile)

	// Strategy 1: open the index from a previous run
	if _, err := os.Stat(indexPath); err == nil {
		if v := getIndexVersion(); v != indexing.IndexSchemaVersion {
			log.Printf("Index schema version mismatch (have: v%d, want: v%d), rebuilding...", v, indexing.IndexSchemaVersion)
			removeIndex()
		} else if index, err := bleve.Open(indexPath); err == nil {
			if err := loadCatalog(docsPath); err != nil {
				index.Close()
				log.Printf("Warning: Local docs unreadable (%v), rebuilding...", err)
				removeIndex()
			} else {
				wrapped := NewBleveIndexWrapper(index)
				indexMgr.current.Store(&wrapped)
				count, _ := wrapped.DocCount()
				log.Printf("✓ Documentation search initialized (%d chunks, local index v%d) in %v",
					count, indexing.IndexSchemaVersion, time.Since(startTime).Round(time.Millisecond))

				if needsRefresh() {
					log.Printf("ℹ️  Local documentation is older than %v. Consider using refresh_documentation_index to update.", cacheTTL)
				}
				return nil
			}
		} else {
			log.Printf("Warning: Local index corrupted (%v), rebuilding...", err)
			removeIndex()
		}
	}

	// Strategy 2: build from local docs, extracting the embedded copy if needed
	if _, err := os.Stat(docsPath); err != nil {
		log.Printf("No local documentation found, extracting embedded search index...")
		if err := extractEmbeddedDocs(); err != nil {
			return fmt.Errorf("failed to extract embedded docs: %w", err)
		}
	}

	if err := rebuildFromDocs(docsPath); err != nil {
		return err
	}

	log.Printf("✓ Documentation search initialized in %v", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// rebuildFromDocs parses the docs file, indexes it and swaps both the index and the catalog
func rebuildFromDocs(docsPath string) error {
	doc, err := searchindex.ParseFile(docsPath)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	chunks := indexing.BuildChunks(doc.Docs, siteURL)
	log.Printf("Parsed %d entries into %d chunks (avg: %d tokens, %d over limit)",
		len(doc.Docs), len(chunks), averageTokens(chunks), countOversized(chunks))

	if err := indexChunks(chunks); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	indexMgr.catalog.Store(searchindex.NewCatalog(doc))
	return nil
}

func removeIndex() {
	os.RemoveAll(filepath.Join(dataDir, indexDir))
	os.Remove(filepath.Join(dataDir, indexVersionFile))
}

// getIndexVersion reads the current index schema version from disk
func getIndexVersion() int {
	data, err := os.ReadFile(filepath.Join(dataDir, indexVersionFile))
	if err != nil {
		return 0
	}

	version := 0
	fmt.Sscanf(string(data), "%d", &version)
	return version
}

// writeIndexVersion writes the current index schema version to disk
func writeIndexVersion() error {
	versionPath := filepath.Join(dataDir, indexVersionFile)
	os.MkdirAll(filepath.Dir(versionPath), 0755)
	return os.WriteFile(versionPath, []byte(fmt.Sprintf("%d", indexing.IndexSchemaVersion)), 0644)
}

// extractEmbeddedDocs copies the embedded search index and cache metadata to local storage
func extractEmbeddedDocs() error {
	docsPath := filepath.Join(dataDir, "docs")
	if err := os.MkdirAll(docsPath, 0755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	if err := extractEmbeddedDir(embeddedDocsDir, docsPath); err != nil {
		return err
	}

	log.Printf("✓ Embedded docs extracted to %s", docsPath)
	return nil
}

// extractEmbeddedDir recursively extracts files from embedded FS to local filesystem
func extractEmbeddedDir(embedPath, localPath string) error {
	entries, err := defaultDataProvider.ReadDir(embedPath)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", embedPath, err)
	}

	for _, entry := range entries {
		// embed.FS paths always use forward slashes
		embeddedFile := embedPath + "/" + entry.Name()
		localFile := filepath.Join(localPath, entry.Name())

		if entry.IsDir() {
			if err := os.MkdirAll(localFile, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", localFile, err)
			}
			if err := extractEmbeddedDir(embeddedFile, localFile); err != nil {
				return err
			}
			continue
		}

		data, err := defaultDataProvider.ReadFile(embeddedFile)
		if err != nil {
			return fmt.Errorf("failed to read embedded file %s: %w", embeddedFile, err)
		}
		if err := os.WriteFile(localFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", localFile, err)
		}
	}

	return nil
}

// needsRefresh checks if documentation cache needs refreshing
func needsRefresh() bool {
	info, err := os.Stat(filepath.Join(dataDir, cacheMetaFile))
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > cacheTTL
}

// downloadDocumentation downloads and validates the search index before
// replacing the local copy
func downloadDocumentation(ctx context.Context) error {
	log.Printf("Downloading search index from %s", indexURL)

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := searchindex.Validate(data); err != nil {
		return fmt.Errorf("downloaded search index rejected: %w", err)
	}
	doc, err := searchindex.Parse(data)
	if err != nil {
		return fmt.Errorf("downloaded search index rejected: %w", err)
	}

	docsPath := filepath.Join(dataDir, "docs")
	if err := os.MkdirAll(docsPath, 0755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}

	// Stored in the script form Documenter emits, whatever form was served
	fullPath := filepath.Join(dataDir, docsFile)
	tmpPath := fullPath + ".tmp"
	if err := writeDocs(tmpPath, doc); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace docs: %w", err)
	}

	meta := fmt.Sprintf("last_update: %s\nsource: %s\n", time.Now().Format(time.RFC3339), indexURL)
	if err := os.WriteFile(filepath.Join(dataDir, cacheMetaFile), []byte(meta), 0644); err != nil {
		return fmt.Errorf("failed to write meta file: %w", err)
	}

	log.Printf("Search index downloaded successfully (%d bytes)", len(data))
	return nil
}

func writeDocs(path string, doc *searchindex.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := searchindex.Encode(f, doc, true); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// averageTokens calculates the average token count across chunks
func averageTokens(chunks []indexing.DocChunk) int {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, chunk := range chunks {
		total += chunk.TokenCount
	}
	return total / len(chunks)
}

// countOversized counts chunks that exceed the maximum token limit
func countOversized(chunks []indexing.DocChunk) int {
	count := 0
	for _, chunk := range chunks {
		if chunk.TokenCount > indexing.MaxChunkTokens {
			count++
		}
	}
	return count
}

// indexChunks builds a new Bleve index in a temp location, moves it into
// place and swaps the global pointer
func indexChunks(chunks []indexing.DocChunk) error {
	startTime := time.Now()
	indexPath := filepath.Join(dataDir, indexDir)
	tempIndexPath := filepath.Join(dataDir, indexDir+".tmp")

	// Clean up any leftover temp index from previous crash
	os.RemoveAll(tempIndexPath)

	if err := os.MkdirAll(filepath.Dir(tempIndexPath), 0755); err != nil {
		return fmt.Errorf("failed to create temp index directory: %w", err)
	}

	newIndex, err := bleve.New(tempIndexPath, indexing.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create temp index: %w", err)
	}

	if err := indexing.BatchIndex(newIndex, chunks, nil); err != nil {
		newIndex.Close()
		os.RemoveAll(tempIndexPath)
		return err
	}

	if err := newIndex.Close(); err != nil {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to close temp index: %w", err)
	}

	// The old index directory may still be open; on POSIX its files stay
	// readable until the background close below.
	if err := os.RemoveAll(indexPath); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempIndexPath, indexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to rename temp index: %w", err)
	}

	finalIndex, err := bleve.Open(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open new index: %w", err)
	}

	wrapped := NewBleveIndexWrapper(finalIndex)
	oldIndexPtr := indexMgr.current.Swap(&wrapped)
	searchCache.invalidate()

	// Graceful cleanup of old index in background
	go func(oldPtr *Index) {
		if oldPtr == nil {
			return
		}

		// Wait for all in-flight searches on old index to complete
		indexMgr.wg.Wait()

		old := *oldPtr
		if err := old.Close(); err != nil {
			log.Printf("Warning: Error closing old index: %v", err)
		}
	}(oldIndexPtr)

	log.Printf("✓ Indexed %d chunks in %v, searches now using new index",
		len(chunks), time.Since(startTime).Round(time.Millisecond))

	if err := writeIndexVersion(); err != nil {
		log.Printf("Warning: Failed to write index version: %v", err)
	}

	return nil
}

// refreshDocumentationIndex downloads and re-indexes documentation
func refreshDocumentationIndex(ctx context.Context, force bool) error {
	startTime := time.Now()

	if !force && !needsRefresh() {
		log.Printf("Documentation cache is fresh, skipping refresh")
		return nil
	}

	// Serialize refresh operations (prevent concurrent refreshes)
	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	// Another goroutine may have refreshed while we were waiting
	if !force && !needsRefresh() {
		log.Printf("Documentation was refreshed by another goroutine, skipping")
		return nil
	}

	log.Printf("Starting documentation refresh (force=%v)...", force)

	// Released by CloseDocSearch on exit
	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire lock for refresh: %w", err)
	}

	if err := downloadDocumentation(ctx); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if err := rebuildFromDocs(filepath.Join(dataDir, docsFile)); err != nil {
		return err
	}

	log.Printf("✓ Documentation refresh completed in %v", time.Since(startTime).Round(time.Millisecond))
	return nil
}

// buildSearchQuery resolves the page name against the catalog and builds
// the Bleve query
func buildSearchQuery(input SearchDocumentationInput) (query.Query, error) {
	page := input.Page
	if c := indexMgr.catalog.Load(); c != nil && page != "" {
		page = canonicalPage(c, page)
	}

	return indexing.BuildQuery(indexing.Filter{
		Text:     input.Query,
		Page:     page,
		Category: input.Category,
		Title:    input.Title,
	})
}

// canonicalPage maps a page name to its exact title, ignoring case
func canonicalPage(c *searchindex.Catalog, page string) string {
	for _, p := range c.Pages() {
		if strings.EqualFold(p.Title, page) {
			return p.Title
		}
	}
	return page
}

// SearchDocumentation runs a full-text search over the documentation index
func SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}

	// The key's generation is read before the index pointer, so a result
	// from a replaced index is only ever stored under a retired generation.
	cacheKey := searchCache.key(input, maxResults)
	if cached, ok := searchCache.get(cacheKey); ok {
		return nil, cached, nil
	}

	// Track in-flight searches for graceful cleanup (MUST be before Load)
	indexMgr.wg.Add(1)
	defer indexMgr.wg.Done()

	indexPtr := indexMgr.current.Load()
	if indexPtr == nil {
		_, err, _ := lazyInit.Do("init", func() (interface{}, error) {
			if indexMgr.current.Load() != nil {
				return nil, nil
			}
			log.Printf("Doc index not initialized, initializing now...")
			return nil, InitializeDocSearch()
		})
		if err != nil {
			return nil, SearchDocumentationOutput{}, fmt.Errorf("failed to initialize documentation index: %w", err)
		}
		indexPtr = indexMgr.current.Load()
		if indexPtr == nil {
			return nil, SearchDocumentationOutput{}, fmt.Errorf("index still nil after initialization")
		}
	}
	index := *indexPtr

	q, err := buildSearchQuery(input)
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}

	searchReq := bleve.NewSearchRequest(q)
	searchReq.Size = maxResults
	searchReq.Fields = []string{"*"}

	searchResults, err := index.Search(ctx, searchReq)
	if err != nil {
		return nil, SearchDocumentationOutput{}, fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		results = append(results, SearchResult{
			Chunk: indexing.ChunkFromHit(hit),
			Score: hit.Score,
		})
	}

	output := SearchDocumentationOutput{
		Results:    results,
		Query:      input.Query,
		TotalHits:  int(searchResults.Total),
		SourceURLs: []string{siteURL},
	}
	searchCache.add(cacheKey, output)

	return nil, output, nil
}

// RefreshDocumentationIndex re-downloads and re-indexes the documentation
func RefreshDocumentationIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationIndexInput) (*mcp.CallToolResult, RefreshDocumentationIndexOutput, error) {
	output := RefreshDocumentationIndexOutput{}

	if !input.Force && !needsRefresh() {
		if info, err := os.Stat(filepath.Join(dataDir, cacheMetaFile)); err == nil {
			output.LastUpdate = info.ModTime()
			output.Message = fmt.Sprintf("Cache is fresh (last updated: %s)", info.ModTime().Format(time.RFC3339))
			return nil, output, nil
		}
	}

	if err := refreshDocumentationIndex(ctx, input.Force); err != nil {
		return nil, output, fmt.Errorf("refresh failed: %w", err)
	}

	if indexPtr := indexMgr.current.Load(); indexPtr != nil {
		count, _ := (*indexPtr).DocCount()
		output.ChunksIndexed = int(count)
	}

	output.Updated = true
	output.LastUpdate = time.Now()
	output.Message = fmt.Sprintf("Documentation refreshed successfully, %d chunks indexed", output.ChunksIndexed)

	return nil, output, nil
}

// RegisterDocSearchTools registers documentation search tools
func RegisterDocSearchTools(server *mcp.Server) error {
	if err := InitializeDocSearch(); err != nil {
		log.Printf("Warning: Documentation search initialization failed: %v", err)
		log.Printf("Documentation search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Full-text search over the OceanRasterConversions.jl documentation (TEOS-10 conversion of practical salinity and potential temperature rasters). Filter by page, category (page, section, function) or section title. Returns ranked section-level chunks with URLs.",
		},
		SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation_index",
			Description: fmt.Sprintf("Re-download the documentation search index and rebuild the local search index (skipped if local copy is newer than %v unless force is set)", cacheTTL),
		},
		RefreshDocumentationIndex,
	)

	return nil
}

// CloseDocSearch closes the documentation search index and releases the lock
func CloseDocSearch() error {
	var closeErr error

	// Atomically swap index to nil (prevents new searches)
	if indexPtr := indexMgr.current.Swap(nil); indexPtr != nil {
		indexMgr.wg.Wait()

		index := *indexPtr
		if closeErr = index.Close(); closeErr != nil {
			log.Printf("Error closing doc index: %v", closeErr)
		} else {
			log.Printf("✓ Doc index closed successfully")
		}
	}
	indexMgr.catalog.Store(nil)
	searchCache.invalidate()

	// Always attempt to release inter-process lock, even if close failed
	if err := releaseLock(); err != nil {
		log.Printf("Error releasing lock: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
