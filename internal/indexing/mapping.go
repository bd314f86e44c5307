package indexing

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Field names shared by the indexer and the search tools.
const (
	FieldPage       = "page"
	FieldCategory   = "category"
	FieldLocation   = "location"
	FieldTitle      = "title"
	FieldContent    = "content"
	FieldBreadcrumb = "breadcrumb"
	FieldKeywords   = "keywords"
	FieldURL        = "url"
	FieldTokenCount = "token_count"
	FieldHash       = "content_hash"
)

// TitleAnalyzer splits titles on every non-alphanumeric rune, so qualified
// function names such as Module.depth_to_pressure match on their parts.
const TitleAnalyzer = "title"

const titleTokenizer = "title_words"

// NewIndexMapping returns the Bleve mapping for DocChunk documents.
// Page, category and location are exact-match keyword fields so they can be
// used as filters; prose fields use the English analyzer.
func NewIndexMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	if err := m.AddCustomTokenizer(titleTokenizer, map[string]interface{}{
		"type":   regexp.Name,
		"regexp": `[\p{L}\p{N}]+`,
	}); err != nil {
		panic(err)
	}
	if err := m.AddCustomAnalyzer(TitleAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     titleTokenizer,
		"token_filters": []string{lowercase.Name, porter.Name},
	}); err != nil {
		panic(err)
	}

	keyword := bleve.NewKeywordFieldMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = en.AnalyzerName

	title := bleve.NewTextFieldMapping()
	title.Analyzer = TitleAnalyzer

	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	stored.IncludeInAll = false

	numeric := bleve.NewNumericFieldMapping()
	numeric.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(FieldPage, keyword)
	doc.AddFieldMappingsAt(FieldCategory, keyword)
	doc.AddFieldMappingsAt(FieldLocation, keyword)
	doc.AddFieldMappingsAt(FieldTitle, title)
	doc.AddFieldMappingsAt(FieldContent, text)
	doc.AddFieldMappingsAt(FieldBreadcrumb, text)
	doc.AddFieldMappingsAt(FieldKeywords, text)
	doc.AddFieldMappingsAt(FieldURL, stored)
	doc.AddFieldMappingsAt(FieldHash, stored)
	doc.AddFieldMappingsAt(FieldTokenCount, numeric)

	m.DefaultMapping = doc
	m.DefaultAnalyzer = en.AnalyzerName
	return m
}
