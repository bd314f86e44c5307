package tools

import (
	"context"

	"github.com/blevesearch/bleve/v2"
)

// Index is the subset of bleve.Index used by the search tools.
// Tests substitute mockIndex.
type Index interface {
	// Search runs req, stopping early if ctx is cancelled
	Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error)

	DocCount() (uint64, error)

	Close() error
}

type bleveIndexWrapper struct {
	index bleve.Index
}

// NewBleveIndexWrapper wraps a bleve.Index
func NewBleveIndexWrapper(index bleve.Index) Index {
	return &bleveIndexWrapper{index: index}
}

func (w *bleveIndexWrapper) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return w.index.SearchInContext(ctx, req)
}

func (w *bleveIndexWrapper) DocCount() (uint64, error) {
	return w.index.DocCount()
}

func (w *bleveIndexWrapper) Close() error {
	return w.index.Close()
}
