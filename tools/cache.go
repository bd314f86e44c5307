package tools

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	resultCacheSize = 256
	resultCacheTTL  = 10 * time.Minute
)

// resultCache memoizes search_documentation outputs. Keys carry the index
// generation, so entries from a replaced index are never served.
type resultCache struct {
	generation atomic.Uint64
	entries    *lru.LRU[string, SearchDocumentationOutput]
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	return &resultCache{
		entries: lru.NewLRU[string, SearchDocumentationOutput](size, nil, ttl),
	}
}

// key normalizes the input the same way the search does
func (c *resultCache) key(input SearchDocumentationInput, maxResults int) string {
	return fmt.Sprintf("%d\x00%s\x00%s\x00%s\x00%s\x00%d",
		c.generation.Load(),
		strings.TrimSpace(input.Query),
		strings.ToLower(input.Page),
		strings.ToLower(input.Category),
		strings.ToLower(strings.TrimSpace(input.Title)),
		maxResults,
	)
}

func (c *resultCache) get(key string) (SearchDocumentationOutput, bool) {
	return c.entries.Get(key)
}

func (c *resultCache) add(key string, out SearchDocumentationOutput) {
	c.entries.Add(key, out)
}

// invalidate is called after every index swap
func (c *resultCache) invalidate() {
	c.generation.Add(1)
	c.entries.Purge()
}

var searchCache = newResultCache(resultCacheSize, resultCacheTTL)
