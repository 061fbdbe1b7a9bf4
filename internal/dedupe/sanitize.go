package dedupe

import (
	"strings"

	"github.com/fielddata/visitdedupe/internal/table"
)

// footerMarker flags report-export metadata rows that ride along at the bottom
// of uploaded files. Matching is case-insensitive and substring-based.
const footerMarker = "applied filters"

// Sanitize drops fully-empty rows and report-footer artifact rows, preserving
// the order of every surviving row. It never fails; an all-empty table yields
// an empty table.
func Sanitize(t *table.Table) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if rowIsEmpty(t.Columns, row) || rowIsFooter(t.Columns, row) {
			continue
		}
		kept = append(kept, row)
	}
	t.Rows = kept
}

func rowIsEmpty(columns []string, row table.Row) bool {
	for _, column := range columns {
		if strings.TrimSpace(row.Get(column).String()) != "" {
			return false
		}
	}
	return true
}

func rowIsFooter(columns []string, row table.Row) bool {
	for _, column := range columns {
		if strings.Contains(strings.ToLower(row.Get(column).String()), footerMarker) {
			return true
		}
	}
	return false
}
