package schema

import (
	"fmt"
	"strings"
)

// ValidationError describes one schema declaration problem.
type ValidationError struct {
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// Validate checks a schema for declaration mistakes before the pipeline runs
// against it: duplicate or blank column names, key columns that are not
// declared, an empty key list, unknown column types. Pipeline behavior is
// total, so a bad schema is a startup error rather than a runtime one.
func Validate(s Schema) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(s.Columns))
	for _, column := range s.Columns {
		name := strings.TrimSpace(column.Name)
		if name == "" {
			errs = append(errs, ValidationError{Message: "column with blank name declared"})
			continue
		}
		if name != column.Name {
			errs = append(errs, ValidationError{
				Column:  column.Name,
				Message: "column name carries surrounding whitespace",
			})
		}
		if seen[name] {
			errs = append(errs, ValidationError{
				Column:  name,
				Message: "column declared more than once",
			})
		}
		seen[name] = true

		switch column.Type {
		case ColumnTypeString, ColumnTypeDate:
		default:
			errs = append(errs, ValidationError{
				Column:  name,
				Message: fmt.Sprintf("unknown column type %q", column.Type),
			})
		}
	}

	if len(s.KeyColumns) == 0 {
		errs = append(errs, ValidationError{Message: "key column list is empty"})
	}
	keySeen := make(map[string]bool, len(s.KeyColumns))
	for _, key := range s.KeyColumns {
		if !seen[key] {
			errs = append(errs, ValidationError{
				Column:  key,
				Message: "key column is not a declared column",
			})
		}
		if keySeen[key] {
			errs = append(errs, ValidationError{
				Column:  key,
				Message: "key column listed more than once",
			})
		}
		keySeen[key] = true
	}

	return errs
}
