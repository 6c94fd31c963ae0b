package report

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidReport is returned by ValidateJSON when the document does not
// match the report schema.
var ErrInvalidReport = errors.New("report does not match schema")

// SchemaError is one schema violation.
type SchemaError struct {
	Field       string
	Description string
}

// ValidationError lists every schema violation of a report.
type ValidationError struct {
	Problems []SchemaError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Description)
	}

	return fmt.Sprintf("%s: %s", ErrInvalidReport, strings.Join(parts, "; "))
}

// Unwrap returns ErrInvalidReport.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidReport
}

// Schema returns the embedded JSON schema for reports.
func Schema() []byte {
	return schemaJSON
}

// ValidateJSON checks a JSON report against the embedded schema. Malformed
// JSON is returned as a plain error, schema violations as *ValidationError.
func ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate report: %w", err)
	}

	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, re := range result.Errors() {
		verr.Problems = append(verr.Problems, SchemaError{Field: re.Field(), Description: re.Description()})
	}

	return verr
}
