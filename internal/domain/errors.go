package domain

import "fmt"

// SchemaError reports a table that lacks a required column. It fails the
// whole table; row-level problems never produce errors.
type SchemaError struct {
	Dataset string
	Column  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset %s: required column %q not found", e.Dataset, e.Column)
}
