package indexing

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const maxKeywords = 10

var markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "as": true, "by": true, "is": true,
	"it": true, "be": true, "with": true, "from": true, "that": true,
	"this": true, "are": true, "we": true, "can": true, "will": true,
	"function": true, "end": true, "using": true,
}

// StripMarkdownLinks removes markdown link syntax, keeping only the text
// Example: "[Text](url)" -> "Text"
func StripMarkdownLinks(text string) string {
	return markdownLinkRegex.ReplaceAllString(text, "$1")
}

// EstimateTokens estimates the token count for a text string
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// ContentHash returns the xxhash of location and content as hex.
func ContentHash(location, content string) string {
	d := xxhash.New()
	_, _ = d.WriteString(location)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(content)
	return strconv.FormatUint(d.Sum64(), 16)
}

// ExtractKeywords extracts key terms from title and content.
// Keywords keep first-seen order so the index is reproducible.
func ExtractKeywords(title, content string) []string {
	words := strings.Fields(strings.ToLower(title))

	// Add words from first 200 chars of content
	contentPreview := StripMarkdownLinks(content)
	if len(contentPreview) > 200 {
		contentPreview = contentPreview[:200]
	}
	words = append(words, strings.Fields(strings.ToLower(contentPreview))...)

	seen := make(map[string]bool)
	keywords := make([]string, 0, maxKeywords)
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
		})
		if len([]rune(word)) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}

	return keywords
}

// JoinURL resolves a site-relative location against the site root.
func JoinURL(siteURL, location string) string {
	if siteURL == "" {
		return ""
	}
	return strings.TrimSuffix(siteURL, "/") + "/" + location
}

// EnrichMetadata adds breadcrumb, keywords, URL, token count and content hash to a chunk
func EnrichMetadata(chunk *DocChunk, siteURL string) {
	var breadcrumb []string
	if chunk.Page != "" {
		breadcrumb = append(breadcrumb, chunk.Page)
	}
	if chunk.Title != "" && chunk.Title != chunk.Page {
		breadcrumb = append(breadcrumb, chunk.Title)
	}
	if len(breadcrumb) > 0 {
		chunk.Breadcrumb = strings.Join(breadcrumb, " > ")
	}

	chunk.URL = JoinURL(siteURL, chunk.Location)
	chunk.Keywords = ExtractKeywords(chunk.Title, chunk.Content)
	chunk.TokenCount = EstimateTokens(chunk.Content)
	chunk.ContentHash = ContentHash(chunk.Location, chunk.Content)
}
