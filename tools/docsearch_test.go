package tools

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/oceanraster/docsearch-mcp/internal/indexing"
	"github.com/oceanraster/docsearch-mcp/internal/searchindex"
)

func embeddedIndexBytes(t *testing.T) []byte {
	t.Helper()
	data, err := NewEmbeddedDataProvider().ReadFile(embeddedDocsDir + "/search_index.js")
	if err != nil {
		t.Fatalf("Failed to read embedded index: %v", err)
	}
	return data
}

// useMemIndex installs an in-memory index and catalog built from the
// embedded search index
func useMemIndex(t *testing.T) {
	t.Helper()

	doc, err := searchindex.Parse(embeddedIndexBytes(t))
	if err != nil {
		t.Fatalf("Failed to parse embedded index: %v", err)
	}

	mem, err := bleve.NewMemOnly(indexing.NewIndexMapping())
	if err != nil {
		t.Fatalf("Failed to create mem index: %v", err)
	}
	if err := indexing.BatchIndex(mem, indexing.BuildChunks(doc.Docs, siteURL), nil); err != nil {
		t.Fatalf("Failed to index chunks: %v", err)
	}

	wrapped := NewBleveIndexWrapper(mem)
	oldIndex := indexMgr.current.Swap(&wrapped)
	oldCatalog := indexMgr.catalog.Swap(searchindex.NewCatalog(doc))
	searchCache.invalidate()
	t.Cleanup(func() {
		searchCache.invalidate()
		indexMgr.current.Store(oldIndex)
		indexMgr.catalog.Store(oldCatalog)
		mem.Close()
	})
}

// useTempDataDir points the package at an empty data dir with a fresh holder
func useTempDataDir(t *testing.T) string {
	t.Helper()

	oldDataDir, oldIndexURL := dataDir, indexURL
	dataDir = t.TempDir()
	oldIndex := indexMgr.current.Swap(nil)
	oldCatalog := indexMgr.catalog.Swap(nil)
	t.Cleanup(func() {
		CloseDocSearch()
		dataDir, indexURL = oldDataDir, oldIndexURL
		indexMgr.current.Store(oldIndex)
		indexMgr.catalog.Store(oldCatalog)
	})
	return dataDir
}

func TestBuildSearchQuery(t *testing.T) {
	useMemIndex(t)

	tests := []struct {
		name    string
		input   SearchDocumentationInput
		wantErr bool
	}{
		{"query only", SearchDocumentationInput{Query: "absolute salinity"}, false},
		{"filter only", SearchDocumentationInput{Category: "function"}, false},
		{"query and filters", SearchDocumentationInput{Query: "density", Page: "home", Title: "convert"}, false},
		{"uppercase category", SearchDocumentationInput{Category: "FUNCTION"}, false},
		{"unknown category", SearchDocumentationInput{Query: "density", Category: "chapter"}, true},
		{"empty", SearchDocumentationInput{Query: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildSearchQuery(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("buildSearchQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanonicalPage(t *testing.T) {
	doc, err := searchindex.Parse(embeddedIndexBytes(t))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	c := searchindex.NewCatalog(doc)

	if got := canonicalPage(c, "ecco MODEL output"); got != "ECCO model output" {
		t.Errorf("canonicalPage = %q, want %q", got, "ECCO model output")
	}
	if got := canonicalPage(c, "Elsewhere"); got != "Elsewhere" {
		t.Errorf("unknown pages should pass through, got %q", got)
	}
}

func TestSearchDocumentation(t *testing.T) {
	useMemIndex(t)
	ctx := context.Background()

	t.Run("free text", func(t *testing.T) {
		_, out, err := SearchDocumentation(ctx, nil, SearchDocumentationInput{Query: "conservative temperature"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(out.Results) == 0 {
			t.Fatal("Expected results for conservative temperature")
		}
		if out.TotalHits < len(out.Results) {
			t.Errorf("TotalHits %d smaller than results %d", out.TotalHits, len(out.Results))
		}
		for _, r := range out.Results {
			if r.Chunk.URL == "" || r.Score <= 0 {
				t.Errorf("Result missing URL or score: %+v", r)
			}
		}
	})

	t.Run("category filter", func(t *testing.T) {
		_, out, err := SearchDocumentation(ctx, nil, SearchDocumentationInput{Category: "function", MaxResults: 20})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(out.Results) != 6 {
			t.Errorf("Expected 6 function chunks, got %d", len(out.Results))
		}
		for _, r := range out.Results {
			if r.Chunk.Category != "function" {
				t.Errorf("Expected only functions, got %s", r.Chunk.Category)
			}
		}
	})

	t.Run("page filter ignores case", func(t *testing.T) {
		_, out, err := SearchDocumentation(ctx, nil, SearchDocumentationInput{Query: "salinity", Page: "ecco model output"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(out.Results) == 0 {
			t.Fatal("Expected results on the ECCO page")
		}
		for _, r := range out.Results {
			if r.Chunk.Page != "ECCO model output" {
				t.Errorf("Expected only ECCO chunks, got page %q", r.Chunk.Page)
			}
		}
	})

	t.Run("title filter by function name", func(t *testing.T) {
		_, out, err := SearchDocumentation(ctx, nil, SearchDocumentationInput{Query: "pressure", Category: "function", Title: "depth_to_pressure"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(out.Results) != 1 || out.Results[0].Chunk.Title != "OceanRasterConversions.depth_to_pressure" {
			t.Errorf("Expected the depth_to_pressure docstring, got %+v", out.Results)
		}
	})

	t.Run("max results capped", func(t *testing.T) {
		_, out, err := SearchDocumentation(ctx, nil, SearchDocumentationInput{Query: "raster salinity temperature density", MaxResults: 100})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(out.Results) > maxResultsCap {
			t.Errorf("Expected at most %d results, got %d", maxResultsCap, len(out.Results))
		}
	})

	t.Run("no hits is empty", func(t *testing.T) {
		_, out, err := SearchDocumentation(ctx, nil, SearchDocumentationInput{Query: "kubernetes"})
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if out.Results == nil || len(out.Results) != 0 {
			t.Errorf("Expected empty non-nil results, got %v", out.Results)
		}
	})
}

func TestSearchDocumentation_MockIndex(t *testing.T) {
	mock := newMockIndex(1)
	idx := Index(mock)
	old := indexMgr.current.Swap(&idx)
	searchCache.invalidate()
	defer func() {
		indexMgr.current.Store(old)
		searchCache.invalidate()
	}()

	_, out, err := SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "salinity"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(out.Results) != 0 || out.TotalHits != 100 {
		t.Errorf("Expected no hits and total 100 from mock, got %d hits, total %d", len(out.Results), out.TotalHits)
	}

	mock.searchError = fmt.Errorf("disk on fire")
	searchCache.invalidate()
	if _, _, err := SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "salinity"}); err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("Expected wrapped search error, got %v", err)
	}

	mock.searchError = nil
	searchCache.invalidate()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := SearchDocumentation(ctx, nil, SearchDocumentationInput{Query: "salinity"}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestSearchDocumentation_CacheAcrossSwap(t *testing.T) {
	original := indexMgr.current.Load()
	searchCache.invalidate()
	defer func() {
		indexMgr.current.Store(original)
		searchCache.invalidate()
	}()

	input := SearchDocumentationInput{Query: "salinity"}

	for round := 0; round < 50; round++ {
		oldMock := newMockIndex(1)
		oldMock.docCount = 1
		oldIdx := Index(oldMock)
		indexMgr.current.Store(&oldIdx)
		searchCache.invalidate()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					SearchDocumentation(context.Background(), nil, input)
				}
			}()
		}

		newMock := newMockIndex(2)
		newMock.docCount = 2
		newIdx := Index(newMock)
		indexMgr.current.Swap(&newIdx)
		searchCache.invalidate()

		wg.Wait()

		_, out, err := SearchDocumentation(context.Background(), nil, input)
		if err != nil {
			t.Fatalf("round %d: search failed: %v", round, err)
		}
		if out.TotalHits != 2 {
			t.Fatalf("round %d: served result of replaced index (total %d)", round, out.TotalHits)
		}
	}
}

func TestSearchDocumentation_ConcurrentLazyInit(t *testing.T) {
	useTempDataDir(t)
	searchCache.invalidate()

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	const callers = 10
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, out, err := SearchDocumentation(context.Background(), nil, SearchDocumentationInput{Query: "salinity"})
			if err == nil && len(out.Results) == 0 {
				err = fmt.Errorf("no results after lazy init")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent search failed: %v", err)
		}
	}
	if n := strings.Count(logs.String(), "✓ Indexed "); n != 1 {
		t.Errorf("Expected index to be built once, built %d times", n)
	}
	if indexMgr.current.Load() == nil || indexMgr.catalog.Load() == nil {
		t.Error("Expected index and catalog after lazy init")
	}
}

func TestInitializeDocSearch_ColdStart(t *testing.T) {
	dir := useTempDataDir(t)

	if err := InitializeDocSearch(); err != nil {
		t.Fatalf("InitializeDocSearch failed: %v", err)
	}

	for _, name := range []string{docsFile, indexDir, indexVersionFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s after cold start: %v", name, err)
		}
	}
	if getIndexVersion() != indexing.IndexSchemaVersion {
		t.Errorf("Expected index version %d, got %d", indexing.IndexSchemaVersion, getIndexVersion())
	}

	indexPtr := indexMgr.current.Load()
	if indexPtr == nil {
		t.Fatal("Index should be loaded after cold start")
	}
	if count, _ := (*indexPtr).DocCount(); count == 0 {
		t.Error("Expected indexed chunks after cold start")
	}
	if c := indexMgr.catalog.Load(); c == nil || c.Len() != 44 {
		t.Error("Expected catalog with 44 entries after cold start")
	}

	// Second start reuses the index on disk
	if err := CloseDocSearch(); err != nil {
		t.Fatalf("CloseDocSearch failed: %v", err)
	}
	if err := InitializeDocSearch(); err != nil {
		t.Fatalf("warm InitializeDocSearch failed: %v", err)
	}
	if indexMgr.current.Load() == nil {
		t.Error("Index should be loaded after warm start")
	}
}

func TestInitializeDocSearch_VersionMismatchRebuilds(t *testing.T) {
	dir := useTempDataDir(t)

	if err := InitializeDocSearch(); err != nil {
		t.Fatalf("InitializeDocSearch failed: %v", err)
	}
	if err := CloseDocSearch(); err != nil {
		t.Fatalf("CloseDocSearch failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, indexVersionFile), []byte("0"), 0644); err != nil {
		t.Fatalf("Failed to write version: %v", err)
	}

	if err := InitializeDocSearch(); err != nil {
		t.Fatalf("InitializeDocSearch after mismatch failed: %v", err)
	}
	if getIndexVersion() != indexing.IndexSchemaVersion {
		t.Errorf("Expected version rewritten to %d, got %d", indexing.IndexSchemaVersion, getIndexVersion())
	}
}

func TestRefreshDocumentationIndex(t *testing.T) {
	dir := useTempDataDir(t)
	index := embeddedIndexBytes(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(index)
	}))
	defer srv.Close()
	indexURL = srv.URL + "/search_index.js"

	if err := InitializeDocSearch(); err != nil {
		t.Fatalf("InitializeDocSearch failed: %v", err)
	}

	_, out, err := RefreshDocumentationIndex(context.Background(), nil, RefreshDocumentationIndexInput{Force: true})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if !out.Updated || out.ChunksIndexed == 0 {
		t.Errorf("Expected an update with chunks, got %+v", out)
	}

	meta, err := os.ReadFile(filepath.Join(dir, cacheMetaFile))
	if err != nil {
		t.Fatalf("cache.meta missing after refresh: %v", err)
	}
	if !strings.Contains(string(meta), srv.URL) {
		t.Errorf("cache.meta should record the source, got %q", meta)
	}

	// Fresh cache skips the download
	_, out, err = RefreshDocumentationIndex(context.Background(), nil, RefreshDocumentationIndexInput{})
	if err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if out.Updated {
		t.Error("Expected fresh cache to skip refresh")
	}
}

func TestRefreshDocumentationIndex_StoresScriptForm(t *testing.T) {
	dir := useTempDataDir(t)

	body, err := searchindex.StripScript(embeddedIndexBytes(t))
	if err != nil {
		t.Fatalf("StripScript failed: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()
	indexURL = srv.URL + "/search_index.json"

	if err := refreshDocumentationIndex(context.Background(), true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	stored, err := os.ReadFile(filepath.Join(dir, docsFile))
	if err != nil {
		t.Fatalf("docs missing after refresh: %v", err)
	}
	if !strings.HasPrefix(string(stored), "var "+searchindex.JSVariable+" = ") {
		t.Errorf("Expected script form on disk, got prefix %q", stored[:20])
	}
	doc, err := searchindex.Parse(stored)
	if err != nil || len(doc.Docs) != 44 {
		t.Errorf("Stored docs should parse back to 44 entries, got err=%v", err)
	}
}

func TestRefreshDocumentationIndex_RejectsInvalidDownload(t *testing.T) {
	dir := useTempDataDir(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `var documenterSearchIndex = {"docs": {}}`)
	}))
	defer srv.Close()
	indexURL = srv.URL

	if err := InitializeDocSearch(); err != nil {
		t.Fatalf("InitializeDocSearch failed: %v", err)
	}
	before, _ := os.ReadFile(filepath.Join(dir, docsFile))

	if err := refreshDocumentationIndex(context.Background(), true); err == nil {
		t.Fatal("Expected invalid download to be rejected")
	}

	after, _ := os.ReadFile(filepath.Join(dir, docsFile))
	if string(before) != string(after) {
		t.Error("Local docs must not change when the download is rejected")
	}
}

func TestRefreshDocumentationIndex_HTTPError(t *testing.T) {
	useTempDataDir(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()
	indexURL = srv.URL

	if err := downloadDocumentation(context.Background()); err == nil {
		t.Error("Expected error on 404")
	}
}

func TestNeedsRefresh(t *testing.T) {
	dir := useTempDataDir(t)

	if !needsRefresh() {
		t.Error("Missing cache.meta should need refresh")
	}

	os.MkdirAll(filepath.Join(dir, "docs"), 0755)
	if err := os.WriteFile(filepath.Join(dir, cacheMetaFile), []byte("last_update: now\n"), 0644); err != nil {
		t.Fatalf("Failed to write cache.meta: %v", err)
	}
	if needsRefresh() {
		t.Error("Fresh cache.meta should not need refresh")
	}
}

func TestAverageTokensAndOversized(t *testing.T) {
	chunks := []indexing.DocChunk{
		{TokenCount: 100},
		{TokenCount: indexing.MaxChunkTokens + 1},
	}
	if got := averageTokens(chunks); got != (100+indexing.MaxChunkTokens+1)/2 {
		t.Errorf("averageTokens = %d", got)
	}
	if got := countOversized(chunks); got != 1 {
		t.Errorf("countOversized = %d, want 1", got)
	}
	if averageTokens(nil) != 0 {
		t.Error("averageTokens(nil) should be 0")
	}
}

// --- Pure Unit Tests for Concurrency ---
// These tests verify the thread-safe atomic pointer swap implementation
// using mocks (no filesystem, no external dependencies)

func TestIndexHolderConcurrentReads(t *testing.T) {
	// Test that multiple goroutines can safely read from indexHolder
	// Using mock index (pure unit test - no filesystem)

	mockIdx := newMockIndex(1)
	idx := Index(mockIdx)

	// Create indexHolder and store the mock index
	holder := &indexHolder{}
	holder.current.Store(&idx)

	// Launch 50 concurrent goroutines that read the index
	const numReaders = 50
	errChan := make(chan error, numReaders)
	doneChan := make(chan bool, numReaders)

	for i := 0; i < numReaders; i++ {
		go func(id int) {
			defer func() { doneChan <- true }()

			holder.wg.Add(1)
			defer holder.wg.Done()

			// Load index atomically
			indexPtr := holder.current.Load()
			if indexPtr == nil {
				errChan <- fmt.Errorf("goroutine %d: got nil index", id)
				return
			}

			// Verify we can access the index
			index := *indexPtr
			count, err := index.DocCount()
			if err != nil {
				errChan <- fmt.Errorf("goroutine %d: DocCount failed: %v", id, err)
				return
			}

			// Verify count is valid
			if count != 100 { // Mock returns 100
				errChan <- fmt.Errorf("goroutine %d: expected 100, got %d", id, count)
			}
		}(i)
	}

	// Wait for all goroutines to finish
	for i := 0; i < numReaders; i++ {
		<-doneChan
	}
	close(errChan)

	// Check for errors
	for err := range errChan {
		t.Error(err)
	}

	// Verify WaitGroup drained
	holder.wg.Wait() // Should return immediately
}

func TestIndexHolderAtomicSwap(t *testing.T) {
	// Test that atomic swap works correctly (pure unit test with mocks)

	// Create two mock indexes
	mock1 := newMockIndex(1)
	mock2 := newMockIndex(2)
	idx1 := Index(mock1)
	idx2 := Index(mock2)

	// Create indexHolder with first index
	holder := &indexHolder{}
	holder.current.Store(&idx1)

	// Verify we have index1
	ptr1 := holder.current.Load()
	if ptr1 == nil {
		t.Fatal("First load returned nil")
	}

	// Verify it's idx1
	if *ptr1 != idx1 {
		t.Error("Expected idx1")
	}

	// Swap to index2
	oldPtr := holder.current.Swap(&idx2)
	if oldPtr == nil {
		t.Fatal("Swap returned nil for old index")
	}

	// Verify old pointer was idx1
	if *oldPtr != idx1 {
		t.Error("Old pointer should be idx1")
	}

	// Verify we now have index2
	ptr2 := holder.current.Load()
	if ptr2 == nil {
		t.Fatal("Second load returned nil")
	}

	// Verify it's idx2
	if *ptr2 != idx2 {
		t.Error("Expected idx2")
	}

	// Verify old and new pointers are different
	if ptr1 == ptr2 {
		t.Error("Old and new pointers should be different")
	}
}

func TestIndexHolderRefreshMutexSerialization(t *testing.T) {
	// Test that refreshMu properly serializes concurrent operations
	holder := &indexHolder{}

	const numGoroutines = 10
	counter := 0
	doneChan := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer func() { doneChan <- true }()

			holder.refreshMu.Lock()
			defer holder.refreshMu.Unlock()

			// Critical section: increment counter
			oldCounter := counter
			// Simulate some work
			for j := 0; j < 1000; j++ {
				_ = j * j
			}
			counter = oldCounter + 1
		}()
	}

	// Wait for all goroutines
	for i := 0; i < numGoroutines; i++ {
		<-doneChan
	}

	// Verify counter was incremented exactly numGoroutines times
	if counter != numGoroutines {
		t.Errorf("Expected counter=%d, got %d (mutex not properly serializing)", numGoroutines, counter)
	}
}

func TestIndexHolderWaitGroupTracking(t *testing.T) {
	// Test that WaitGroup properly tracks in-flight operations
	holder := &indexHolder{}

	const numOperations = 100
	doneChan := make(chan bool, numOperations)

	// Launch operations
	for i := 0; i < numOperations; i++ {
		holder.wg.Add(1)
		go func() {
			defer holder.wg.Done()
			defer func() { doneChan <- true }()

			// Simulate some work
			for j := 0; j < 100; j++ {
				_ = j * j
			}
		}()
	}

	// Wait for all operations to complete
	holder.wg.Wait()

	// Verify all goroutines finished
	completedCount := 0
	for i := 0; i < numOperations; i++ {
		select {
		case <-doneChan:
			completedCount++
		default:
			// Should not happen - all should be done
		}
	}

	if completedCount != numOperations {
		t.Errorf("Expected %d completed operations, got %d", numOperations, completedCount)
	}
}

func TestIndexHolderConcurrentSwapAndRead(t *testing.T) {
	// Test concurrent swaps and reads (stress test with mocks - pure unit test)
	// This test verifies that atomic swaps work correctly under high concurrency

	// Create initial mock index
	mockIdx := newMockIndex(0)
	idx := Index(mockIdx)

	// Create indexHolder
	holder := &indexHolder{}
	holder.current.Store(&idx)

	errChan := make(chan error, 100)
	doneChan := make(chan bool, 100)

	// Launch readers (20 goroutines, 5 iterations each - reduced for stability)
	const numReaders = 20
	const iterations = 5

	for i := 0; i < numReaders; i++ {
		go func(id int) {
			defer func() { doneChan <- true }()

			for j := 0; j < iterations; j++ {
				holder.wg.Add(1)
				indexPtr := holder.current.Load()

				if indexPtr == nil {
					holder.wg.Done()
					errChan <- fmt.Errorf("reader %d iteration %d: got nil", id, j)
					return
				}

				// Try to access the index
				index := *indexPtr
				_, err := index.DocCount()
				holder.wg.Done()

				if err != nil && err.Error() != "index closed" {
					// Allow "index closed" errors during swap (expected race)
					errChan <- fmt.Errorf("reader %d iteration %d: %v", id, j, err)
					return
				}
			}
		}(i)
	}

	// Launch swapper (simulates refresh with 3 swaps - reduced)
	go func() {
		defer func() { doneChan <- true }()

		for i := 0; i < 3; i++ {
			// Create new mock index
			newMock := newMockIndex(i + 1)
			newIdx := Index(newMock)

			// Swap atomically
			_ = holder.current.Swap(&newIdx)

			// Note: In production, cleanup happens in background
			// Here we skip cleanup to avoid WaitGroup misuse in test
		}
	}()

	// Wait for all goroutines (readers + 1 swapper)
	for i := 0; i < numReaders+1; i++ {
		<-doneChan
	}

	// Close error channel after all goroutines finish
	close(errChan)

	// Check errors
	for err := range errChan {
		t.Error(err)
	}

	// Final wait to ensure all ops completed
	holder.wg.Wait()
}
