package searchindex

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const schemaURL = "https://docsearch.local/schema/search-index.json"

//go:embed schema.json
var schemaJSON []byte

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// Violation is a single schema failure.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError collects every violation found in a search index.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		v := e.Violations[0]
		return fmt.Sprintf("invalid search index at %s: %s", v.Path, v.Message)
	}
	return fmt.Sprintf("invalid search index: %d violations", len(e.Violations))
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("failed to parse search index schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("failed to add search index schema: %w", err)
			return
		}

		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// Validate checks the raw index (JSON or script form) against the
// search index schema. A malformed file yields a plain error; a well-formed
// file that breaks the schema yields a *ValidationError.
func Validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	body, err := StripScript(data)
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to decode search index: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	printer := message.NewPrinter(language.English)
	return &ValidationError{Violations: collectViolations(verr, printer)}
}

// collectViolations flattens the cause tree, keeping only leaves.
func collectViolations(verr *jsonschema.ValidationError, printer *message.Printer) []Violation {
	if len(verr.Causes) == 0 {
		return []Violation{{
			Path:    "/" + strings.Join(verr.InstanceLocation, "/"),
			Message: verr.ErrorKind.LocalizedString(printer),
			Code:    "SCHEMA_VALIDATION_ERROR",
		}}
	}

	var out []Violation
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause, printer)...)
	}
	return out
}
