package scenario

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingField    = errors.New("missing required request field")
	ErrInvalidDocument = errors.New("invalid scenario document")
)

// FieldError reports a request field a step needs but does not have.
type FieldError struct {
	Step  string
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("step %q: missing required request field %q", e.Step, e.Field)
}

func (e *FieldError) Unwrap() error {
	return ErrMissingField
}

// SchemaError lists the schema violations found in a document.
type SchemaError struct {
	Path     string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("scenario %s does not match the document schema: %s", e.Path, strings.Join(e.Problems, "; "))
}

func (e *SchemaError) Unwrap() error {
	return ErrInvalidDocument
}
