package indexing

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
)

// BatchSize is the number of chunks submitted per Bleve batch.
const BatchSize = 100

// Filter narrows a chunk search. Every non-empty field must match.
type Filter struct {
	Text     string // free text over all analyzed fields
	Page     string // exact page title
	Category string // page, section or function
	Title    string // all words must appear in the chunk title
}

// BatchIndex adds chunks to index in batches of BatchSize. progress, if set,
// is called after each submitted batch with the running total.
func BatchIndex(index bleve.Index, chunks []DocChunk, progress func(done int)) error {
	batch := index.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(chunk.ID, chunk); err != nil {
			return fmt.Errorf("failed to add chunk %s to batch: %w", chunk.ID, err)
		}

		if (i+1)%BatchSize == 0 {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = index.NewBatch()
			if progress != nil {
				progress(i + 1)
			}
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}
	return nil
}

// BuildQuery combines the free-text query with the filters. At least one of
// them must be set.
func BuildQuery(f Filter) (query.Query, error) {
	var parts []query.Query

	if text := strings.TrimSpace(f.Text); text != "" {
		parts = append(parts, bleve.NewMatchQuery(text))
	}

	if f.Page != "" {
		tq := bleve.NewTermQuery(f.Page)
		tq.SetField(FieldPage)
		parts = append(parts, tq)
	}

	if f.Category != "" {
		category := strings.ToLower(f.Category)
		switch category {
		case "page", "section", "function":
		default:
			return nil, fmt.Errorf("unknown category %q (want page, section or function)", f.Category)
		}
		tq := bleve.NewTermQuery(category)
		tq.SetField(FieldCategory)
		parts = append(parts, tq)
	}

	if title := strings.TrimSpace(f.Title); title != "" {
		mq := bleve.NewMatchQuery(title)
		mq.SetField(FieldTitle)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		parts = append(parts, mq)
	}

	switch len(parts) {
	case 0:
		return nil, fmt.Errorf("query or at least one filter is required")
	case 1:
		return parts[0], nil
	default:
		return bleve.NewConjunctionQuery(parts...), nil
	}
}

// ChunkFromHit rebuilds a chunk from the stored fields of a hit. The search
// request must ask for all fields.
func ChunkFromHit(hit *search.DocumentMatch) DocChunk {
	chunk := DocChunk{ID: hit.ID}

	str := func(field string) string {
		s, _ := hit.Fields[field].(string)
		return s
	}
	chunk.Location = str(FieldLocation)
	chunk.Page = str(FieldPage)
	chunk.Category = str(FieldCategory)
	chunk.Title = str(FieldTitle)
	chunk.Content = str(FieldContent)
	chunk.URL = str(FieldURL)
	chunk.Breadcrumb = str(FieldBreadcrumb)
	chunk.ContentHash = str(FieldHash)

	// A single keyword comes back as a plain string
	switch kws := hit.Fields[FieldKeywords].(type) {
	case string:
		chunk.Keywords = []string{kws}
	case []interface{}:
		chunk.Keywords = make([]string, 0, len(kws))
		for _, kw := range kws {
			if s, ok := kw.(string); ok {
				chunk.Keywords = append(chunk.Keywords, s)
			}
		}
	}

	if tokenCount, ok := hit.Fields[FieldTokenCount].(float64); ok {
		chunk.TokenCount = int(tokenCount)
	}

	return chunk
}
