package indexing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oceanraster/docsearch-mcp/internal/searchindex"
)

// ForceSplitText splits text by character count at word boundaries
func ForceSplitText(text string, maxChars, overlapChars int) []string {
	var parts []string

	for len(text) > 0 {
		chunkSize := maxChars
		if len(text) < chunkSize {
			chunkSize = len(text)
		}

		// Try to break at word boundary
		if chunkSize < len(text) {
			// Look back for space or newline
			for i := chunkSize; i > chunkSize-100 && i > 0; i-- {
				if text[i] == ' ' || text[i] == '\n' {
					chunkSize = i
					break
				}
			}
		}

		// Never cut inside a multi-byte rune
		for chunkSize < len(text) && chunkSize > 0 && !utf8.RuneStart(text[chunkSize]) {
			chunkSize--
		}
		if chunkSize == 0 {
			_, chunkSize = utf8.DecodeRuneInString(text)
		}

		parts = append(parts, text[:chunkSize])

		// Move forward with overlap
		next := chunkSize
		if chunkSize+overlapChars < len(text) && chunkSize > overlapChars {
			next = chunkSize - overlapChars
			for next < chunkSize && !utf8.RuneStart(text[next]) {
				next++
			}
		}
		text = text[next:]
	}

	return parts
}

// withOverlap prefixes content with the tail of the previous subchunk
func withOverlap(previous, content string, overlapChars int) string {
	switch {
	case previous == "":
		return content
	case len(previous) > overlapChars:
		return previous[len(previous)-overlapChars:] + "\n\n" + content
	default:
		return previous + "\n\n" + content
	}
}

// subchunk derives the n-th part of a chunk. Parts after the first get a
// "(part N)" suffix so results stay distinguishable.
func subchunk(parent DocChunk, index int, content, siteURL string) DocChunk {
	sc := DocChunk{
		ID:       fmt.Sprintf("%s_sub%d", parent.ID, index),
		Location: parent.Location,
		Page:     parent.Page,
		Category: parent.Category,
		Title:    parent.Title,
		Content:  content,
	}
	if index > 0 {
		sc.Title = fmt.Sprintf("%s (part %d)", parent.Title, index+1)
	}
	EnrichMetadata(&sc, siteURL)
	return sc
}

// SubdivideChunk splits a large chunk into smaller ones with overlap
func SubdivideChunk(chunk DocChunk, siteURL string) []DocChunk {
	// If chunk is small enough, return as-is with enriched metadata
	if EstimateTokens(chunk.Content) <= MaxChunkTokens {
		EnrichMetadata(&chunk, siteURL)
		return []DocChunk{chunk}
	}

	// Need to subdivide - split by paragraphs
	paragraphs := strings.Split(chunk.Content, "\n\n")
	if len(paragraphs) <= 1 {
		// No paragraph breaks, split by sentences
		paragraphs = strings.Split(chunk.Content, ". ")
		for i := range paragraphs {
			if i < len(paragraphs)-1 {
				paragraphs[i] += "."
			}
		}
	}

	var subchunks []DocChunk
	var current strings.Builder
	var previous string
	maxChars := MaxChunkTokens * CharsPerToken
	overlapChars := OverlapTokens * CharsPerToken

	emit := func(content string) {
		subchunks = append(subchunks, subchunk(chunk, len(subchunks), content, siteURL))
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// If this single paragraph is too large, force-split it
		if EstimateTokens(para) > MaxChunkTokens {
			if current.Len() > 0 {
				emit(withOverlap(previous, current.String(), overlapChars))
				previous = current.String()
				current.Reset()
			}

			for _, part := range ForceSplitText(para, maxChars, overlapChars) {
				emit(part)
				previous = part
			}
			continue
		}

		// Check if adding this paragraph would exceed target
		if current.Len() > 0 && EstimateTokens(current.String()+"\n\n"+para) > TargetChunkTokens {
			emit(withOverlap(previous, current.String(), overlapChars))
			previous = current.String()
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}

	// Save final chunk if any content remains
	if current.Len() > 0 {
		emit(withOverlap(previous, current.String(), overlapChars))
	}

	if len(subchunks) == 0 {
		EnrichMetadata(&chunk, siteURL)
		return []DocChunk{chunk}
	}

	return subchunks
}

// BuildChunks groups index entries into section-level chunks.
//
// A heading opens a chunk that collects the page text after it. Page text
// before the first heading of a page becomes an intro chunk located at the
// page. Every docstring is its own chunk. Chunks without any text are dropped
// and identical (location, content) chunks are kept once.
func BuildChunks(entries []searchindex.Entry, siteURL string) []DocChunk {
	var chunks []DocChunk
	var current *DocChunk
	var parts []string
	seen := make(map[string]bool)
	chunkID := 0

	add := func(chunk DocChunk) {
		if strings.TrimSpace(chunk.Content) == "" {
			return
		}
		hash := ContentHash(chunk.Location, chunk.Content)
		if seen[hash] {
			return
		}
		seen[hash] = true

		chunk.ID = fmt.Sprintf("chunk_%d", chunkID)
		chunkID++
		chunks = append(chunks, SubdivideChunk(chunk, siteURL)...)
	}

	flush := func() {
		if current != nil {
			current.Content = strings.Join(parts, "\n\n")
			add(*current)
		}
		current = nil
		parts = nil
	}

	for _, e := range entries {
		switch e.Category {
		case searchindex.CategorySection:
			flush()
			current = &DocChunk{
				Location: e.Location,
				Page:     e.Page,
				Category: string(searchindex.CategorySection),
				Title:    e.Title,
			}

		case searchindex.CategoryFunction:
			flush()
			content := e.Text
			if strings.TrimSpace(content) == "" {
				content = e.Title
			}
			add(DocChunk{
				Location: e.Location,
				Page:     e.Page,
				Category: string(searchindex.CategoryFunction),
				Title:    e.Title,
				Content:  strings.TrimSpace(content),
			})

		default:
			if current == nil || current.Page != e.Page {
				flush()
				current = &DocChunk{
					Location: e.Location,
					Page:     e.Page,
					Category: string(searchindex.CategoryPage),
					Title:    e.Title,
				}
			}
			if text := strings.TrimSpace(e.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}

	flush()

	return chunks
}

// ParseDocumentation reads a search index file and chunks it
func ParseDocumentation(indexFile, siteURL string) ([]DocChunk, error) {
	doc, err := searchindex.ParseFile(indexFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse documentation: %w", err)
	}
	return BuildChunks(doc.Docs, siteURL), nil
}
