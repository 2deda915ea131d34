// Package schemas checks structured model output against JSON Schemas.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed privacy_summary.schema.json
var privacySummarySchema string

// PrivacySummarySchema returns the schema a generated privacy summary must
// satisfy before it is accepted.
func PrivacySummarySchema() string {
	return privacySummarySchema
}

var privacySummary = sync.OnceValues(func() (*Schema, error) {
	return Compile("privacy_summary.schema.json", privacySummarySchema)
})

// FieldError is one violation at a JSON path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "validation against %s failed:", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s: %s", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// LoadError reports a schema that does not compile or a document that is not
// JSON.
type LoadError struct {
	Schema string
	Cause  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("schema %s: %v", e.Schema, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Schema is a compiled JSON Schema. It is safe for concurrent use.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses schema content. name is used in error messages.
func Compile(name, content string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
	if err != nil {
		return nil, &LoadError{Schema: name, Cause: err}
	}
	return &Schema{name: name, schema: s}, nil
}

// Validate checks a JSON document. It returns a *ValidationError when the
// document parses but violates the schema.
func (s *Schema) Validate(document string) error {
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return &LoadError{Schema: s.name, Cause: err}
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Schema: s.name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}

// ValidatePrivacySummary checks a generated summary document against the
// embedded privacy summary schema.
func ValidatePrivacySummary(document string) error {
	s, err := privacySummary()
	if err != nil {
		return err
	}
	return s.Validate(document)
}
