package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oceanraster/docsearch-mcp/internal/searchindex"
)

const (
	// ValidationGuidance keeps clients from inventing fixes beyond the report
	ValidationGuidance = "IMPORTANT: The errors listed above are the COMPLETE validation results for this search index. Only fix the errors explicitly listed. Every entry needs location, page, title, text and category; category is one of page, section or function."
)

// ValidationIssue is a single problem found in a search index
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidateSearchIndexInput defines input for validate_search_index tool
type ValidateSearchIndexInput struct {
	Index string `json:"index" jsonschema:"search_index.js content (JSON or the documenterSearchIndex assignment) or a file path"`
}

// ValidateSearchIndexOutput defines output for validate_search_index tool
type ValidateSearchIndexOutput struct {
	Valid    bool              `json:"valid"`
	Method   string            `json:"method"` // "schema" or "file_read"
	Errors   []ValidationIssue `json:"errors"`
	Entries  int               `json:"entries"`
	Pages    int               `json:"pages"`
	Summary  string            `json:"summary"`
	Guidance string            `json:"guidance,omitempty"`
}

// isFilePath determines if a string is a file path rather than index content
func isFilePath(s string) bool {
	if s == "" {
		return false
	}

	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return false
	}
	if strings.Contains(trimmed, "\n") || strings.Contains(trimmed, searchindex.JSVariable) {
		return false
	}

	// Unix absolute path
	if strings.HasPrefix(s, "/") {
		return true
	}

	// Relative path
	if strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") {
		return true
	}

	// Windows absolute path (C:\, D:\, etc.)
	if len(s) >= 3 && s[1] == ':' && (s[2] == '\\' || s[2] == '/') {
		return true
	}

	return strings.HasSuffix(s, ".js") || strings.HasSuffix(s, ".json")
}

// validateIndexContent runs schema validation and, when it passes, counts
// entries and pages
func validateIndexContent(data []byte) ValidateSearchIndexOutput {
	result := ValidateSearchIndexOutput{
		Method:   "schema",
		Errors:   []ValidationIssue{},
		Guidance: ValidationGuidance,
	}

	if err := searchindex.Validate(data); err != nil {
		var verr *searchindex.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				result.Errors = append(result.Errors, ValidationIssue{Path: v.Path, Message: v.Message, Code: v.Code})
			}
		} else {
			result.Errors = append(result.Errors, ValidationIssue{
				Path:    "/",
				Message: err.Error(),
				Code:    "PARSE_ERROR",
			})
		}
		result.Summary = fmt.Sprintf("Search index is invalid: %d error(s)", len(result.Errors))
		return result
	}

	doc, err := searchindex.Parse(data)
	if err != nil {
		result.Errors = append(result.Errors, ValidationIssue{Path: "/", Message: err.Error(), Code: "PARSE_ERROR"})
		result.Summary = "Search index passed schema validation but could not be decoded"
		return result
	}

	catalog := searchindex.NewCatalog(doc)
	result.Valid = true
	result.Entries = catalog.Len()
	result.Pages = len(catalog.Pages())
	result.Summary = fmt.Sprintf("Search index is valid: %d entries across %d pages", result.Entries, result.Pages)
	return result
}

// ValidateSearchIndex validates search index content or a file on disk
func ValidateSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ValidateSearchIndexInput) (*mcp.CallToolResult, ValidateSearchIndexOutput, error) {
	if strings.TrimSpace(input.Index) == "" {
		return nil, ValidateSearchIndexOutput{}, fmt.Errorf("index content or file path is required")
	}

	content := []byte(input.Index)
	if isFilePath(input.Index) {
		data, err := os.ReadFile(input.Index)
		if err != nil {
			return nil, ValidateSearchIndexOutput{
				Method: "file_read",
				Errors: []ValidationIssue{{
					Path:    input.Index,
					Message: fmt.Sprintf("Failed to read file: %v", err),
					Code:    "FILE_READ_ERROR",
				}},
				Summary: "Could not read search index file",
			}, nil
		}
		content = data
	}

	return nil, validateIndexContent(content), nil
}

// RegisterValidationTools registers the search index validation tool
func RegisterValidationTools(server *mcp.Server) error {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_search_index",
			Description: "Validate a Documenter search index (search_index.js content or file path) against the index schema. Reports every structural error with its JSON location, plus entry and page counts for valid files.\n\nIMPORTANT: The errors returned are AUTHORITATIVE. Only fix errors explicitly listed.",
		},
		ValidateSearchIndex,
	)

	return nil
}
