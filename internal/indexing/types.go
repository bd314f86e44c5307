package indexing

// DocChunk represents a documentation chunk in the search index
type DocChunk struct {
	ID          string   `json:"id"`
	Location    string   `json:"location"` // Site-relative location, with #anchor for headings and docstrings
	Page        string   `json:"page"`     // Page display title
	Category    string   `json:"category"` // page, section or function
	Title       string   `json:"title"`    // Heading or docstring name
	Content     string   `json:"content"`
	URL         string   `json:"url,omitempty"`
	Breadcrumb  string   `json:"breadcrumb,omitempty"`  // "Page > Title"
	Keywords    []string `json:"keywords,omitempty"`    // Key terms extracted from content
	TokenCount  int      `json:"token_count,omitempty"` // Estimated token count for monitoring
	ContentHash string   `json:"content_hash,omitempty"`
}
