package join

import (
	"fmt"
	"strings"
)

// MissingInputError reports that a required input was not supplied at all.
type MissingInputError struct {
	Inputs []string
}

func (e *MissingInputError) Error() string {
	return "missing input: " + strings.Join(e.Inputs, ", ")
}

// SchemaError reports a table that lacks a required column, or already has the
// column that would be inserted.
type SchemaError struct {
	Input    string
	Missing  []string
	Conflict string
}

func (e *SchemaError) Error() string {
	if e.Conflict != "" {
		return fmt.Sprintf("%s already has a column named %q", e.Input, e.Conflict)
	}

	quoted := make([]string, 0, len(e.Missing))
	for _, col := range e.Missing {
		quoted = append(quoted, fmt.Sprintf("%q", col))
	}
	return fmt.Sprintf("%s is missing required column(s) %s", e.Input, strings.Join(quoted, ", "))
}

// ParseError reports bytes that could not be decoded into a table.
type ParseError struct {
	Input string
	Line  int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %v", e.Input, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
