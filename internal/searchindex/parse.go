package searchindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSVariable is the global Documenter assigns the index to in search_index.js.
const JSVariable = "documenterSearchIndex"

// Parse decodes a search index from either plain JSON or the
// "var documenterSearchIndex = {...}" script form.
func Parse(data []byte) (*Document, error) {
	body, err := StripScript(data)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Docs *[]Entry `json:"docs"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode search index: %w", err)
	}
	if raw.Docs == nil {
		return nil, ErrEmptyIndex
	}

	return &Document{Docs: *raw.Docs}, nil
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	return Parse(data)
}

// ParseFile parses the search index stored at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	defer f.Close()
	return ParseReader(f)
}

// StripScript returns the JSON object embedded in a script assignment.
// Plain JSON is returned unchanged.
func StripScript(data []byte) ([]byte, error) {
	body := bytes.TrimSpace(data)
	// UTF-8 BOM
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))

	if len(body) == 0 {
		return nil, fmt.Errorf("failed to decode search index: empty input")
	}
	if body[0] == '{' {
		return body, nil
	}

	for _, kw := range [][]byte{[]byte("var "), []byte("let "), []byte("const ")} {
		if !bytes.HasPrefix(body, kw) {
			continue
		}
		eq := bytes.IndexByte(body, '=')
		if eq < 0 {
			break
		}
		obj := bytes.TrimSpace(body[eq+1:])
		obj = bytes.TrimSpace(bytes.TrimSuffix(obj, []byte(";")))
		if len(obj) == 0 || obj[0] != '{' {
			break
		}
		return obj, nil
	}

	return nil, fmt.Errorf("failed to decode search index: expected JSON object or %s assignment", JSVariable)
}

// Encode writes doc as JSON. When script is true the output is wrapped in
// the same assignment Documenter emits, so browsers can load it directly.
func Encode(w io.Writer, doc *Document, script bool) error {
	docs := doc.Docs
	if docs == nil {
		docs = []Entry{}
	}

	data, err := json.Marshal(struct {
		Docs []Entry `json:"docs"`
	}{Docs: docs})
	if err != nil {
		return fmt.Errorf("failed to encode search index: %w", err)
	}

	if script {
		if _, err := fmt.Fprintf(w, "var %s = %s\n", JSVariable, data); err != nil {
			return fmt.Errorf("failed to write search index: %w", err)
		}
		return nil
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write search index: %w", err)
	}
	return nil
}
