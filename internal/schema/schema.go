package schema

import (
	"fmt"
	"strings"
)

// ColumnType declares how the normalizer treats a column.
type ColumnType string

const (
	ColumnTypeString ColumnType = "string"
	ColumnTypeDate   ColumnType = "date"
)

// Column is one declared column of the house visit schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the fixed column set plus the ordered key-column list that defines
// record identity. Both are data handed to the pipeline, never control flow:
// the identity definition has changed between deployments and must stay a
// single point of change.
type Schema struct {
	Variant    string
	Columns    []Column
	KeyColumns []string
}

// KeySeparator joins key segments into the composite key. The exact byte
// sequence is load-bearing: keys must be stable across runs.
const KeySeparator = " | "

// Variant names accepted in configuration.
const (
	VariantCurrent = "current"
	VariantLegacy  = "legacy"
)

// houseVisitColumns is the full declared column set of a house visit export.
// Every column exists in pipeline output for every row, present in the
// uploaded file or not.
var houseVisitColumns = []Column{
	{Name: "HOUSE VISIT ID", Type: ColumnTypeString},
	{Name: "HOUSE VISIT TYPE", Type: ColumnTypeString},
	{Name: "HOUSE VISIT DATE", Type: ColumnTypeDate},
	{Name: "VISIT DATE", Type: ColumnTypeDate},
	{Name: "CHILD ID", Type: ColumnTypeString},
	{Name: "CHILD NAME", Type: ColumnTypeString},
	{Name: "GUARDIAN NAME", Type: ColumnTypeString},
	{Name: "GROUP ID", Type: ColumnTypeString},
	{Name: "GROUP NAME", Type: ColumnTypeString},
	{Name: "CENTRE ID", Type: ColumnTypeString},
	{Name: "CENTRE NAME", Type: ColumnTypeString},
	{Name: "WARD", Type: ColumnTypeString},
	{Name: "CITY", Type: ColumnTypeString},
	{Name: "STATE", Type: ColumnTypeString},
	{Name: "PROGRAM", Type: ColumnTypeString},
	{Name: "STATUS", Type: ColumnTypeString},
	{Name: "REMARKS", Type: ColumnTypeString},
	{Name: "TMO Name", Type: ColumnTypeString},
	{Name: "YM Name", Type: ColumnTypeString},
	{Name: "CREATED BY", Type: ColumnTypeString},
}

// Current returns the schema variant used by present-day exports.
func Current() Schema {
	return Schema{
		Variant: VariantCurrent,
		Columns: append([]Column(nil), houseVisitColumns...),
		KeyColumns: []string{
			"HOUSE VISIT TYPE",
			"CHILD ID",
			"HOUSE VISIT DATE",
			"GROUP ID",
			"REMARKS",
			"HOUSE VISIT ID",
			"TMO Name",
			"YM Name",
		},
	}
}

// Legacy returns the schema variant used by older exports, which carried a
// shorter identity built around the secondary VISIT DATE column.
func Legacy() Schema {
	return Schema{
		Variant: VariantLegacy,
		Columns: append([]Column(nil), houseVisitColumns...),
		KeyColumns: []string{
			"CHILD ID",
			"HOUSE VISIT DATE",
			"VISIT DATE",
			"GROUP ID",
			"TMO Name",
			"YM Name",
		},
	}
}

// ForVariant resolves a configured variant name.
func ForVariant(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VariantCurrent:
		return Current(), nil
	case VariantLegacy:
		return Legacy(), nil
	default:
		return Schema{}, fmt.Errorf("unknown schema variant %q", name)
	}
}

// ColumnNames returns the declared column names in schema order.
func (s Schema) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, column := range s.Columns {
		names = append(names, column.Name)
	}
	return names
}

// TypeOf returns the declared type for a column name, if declared.
func (s Schema) TypeOf(name string) (ColumnType, bool) {
	for _, column := range s.Columns {
		if column.Name == name {
			return column.Type, true
		}
	}
	return "", false
}
