package dedupe

import (
	"regexp"
	"strings"
	"time"

	"github.com/fielddata/visitdedupe/internal/schema"
	"github.com/fielddata/visitdedupe/internal/table"
)

// Day-first layouts come before the ISO fallbacks so "31/01/2024" reads as
// January 31, never March 1. A layout list is tried in order; first hit wins.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	trailingPoint = regexp.MustCompile(`\.0$`)
)

// Normalize coerces every declared column to its canonical representation and
// synthesizes missing declared columns as empty. Columns outside the schema
// pass through untouched. Every coercion is total: unparseable dates degrade
// to the blank date marker, nothing aborts the run. Applying Normalize twice
// yields the same table as applying it once.
func Normalize(t *table.Table, s schema.Schema) {
	trimColumnNames(t)

	for _, column := range s.Columns {
		t.AddColumn(column.Name)

		for _, row := range t.Rows {
			cell := row.Get(column.Name)
			switch column.Type {
			case schema.ColumnTypeDate:
				row[column.Name] = parseDate(cell)
			default:
				row[column.Name] = table.Text(normalizeText(cell.String()))
			}
		}
	}
}

// trimColumnNames strips surrounding whitespace from column names before any
// schema matching; matching is exact and case-sensitive otherwise.
func trimColumnNames(t *table.Table) {
	for idx, name := range t.Columns {
		trimmed := strings.TrimSpace(name)
		if trimmed == name {
			continue
		}
		t.Columns[idx] = trimmed
		for _, row := range t.Rows {
			if cell, ok := row[name]; ok {
				row[trimmed] = cell
				delete(row, name)
			}
		}
	}
}

// parseDate converts a cell to a calendar date under day-first parsing.
// Already-parsed dates pass through; values that fail every layout become the
// blank date marker, never an error.
func parseDate(cell table.Cell) table.Cell {
	if cell.IsDate {
		return cell
	}
	raw := strings.TrimSpace(cell.Text)
	if raw == "" {
		return table.BlankDate()
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return table.Date(parsed)
		}
	}
	return table.BlankDate()
}

// normalizeText collapses whitespace runs to a single space, trims, and strips
// a trailing ".0" left by numeric IDs that passed through a floating-point
// representation on export.
func normalizeText(value string) string {
	value = whitespaceRun.ReplaceAllString(value, " ")
	value = strings.TrimSpace(value)
	value = trailingPoint.ReplaceAllString(value, "")
	return value
}
