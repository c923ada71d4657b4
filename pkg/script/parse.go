package script

import (
	"embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// SchemaFS contains the embedded script JSON schema.
//
//go:embed schema/script-schema.json
var SchemaFS embed.FS

const schemaFile = "schema/script-schema.json"

// Issue is one schema violation.
type Issue struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Description)
	}

	return fmt.Sprintf("%s: %s", ErrInvalidScript, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidScript
}

// Parse decodes a YAML or JSON script. It does not check the schema; see
// Validate.
func Parse(data []byte) (*Script, error) {
	var script Script

	err := yaml.Unmarshal(data, &script)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	return &script, nil
}

// Validate checks a YAML or JSON document against the embedded schema. A
// document that decodes but does not match fails with a *ValidationError.
func Validate(data []byte) error {
	var document any

	err := yaml.Unmarshal(data, &document)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	schemaBytes, err := SchemaFS.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, resultErr := range result.Errors() {
		verr.Issues = append(verr.Issues, Issue{Field: resultErr.Field(), Description: resultErr.Description()})
	}

	return verr
}

// Load validates a document and parses it.
func Load(data []byte) (*Script, error) {
	err := Validate(data)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}
