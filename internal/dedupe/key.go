package dedupe

import (
	"strings"

	"github.com/fielddata/visitdedupe/internal/schema"
	"github.com/fielddata/visitdedupe/internal/table"
)

// BuildKeys returns one composite key per row: the normalized string form of
// each key column, in order, joined with the literal separator. Missing
// columns contribute empty segments. Two rows are duplicates of each other iff
// their keys are byte-identical; no column is compared directly downstream.
func BuildKeys(t *table.Table, keyColumns []string) []string {
	keys := make([]string, len(t.Rows))
	segments := make([]string, len(keyColumns))
	for idx, row := range t.Rows {
		for i, column := range keyColumns {
			segments[i] = row.Get(column).String()
		}
		keys[idx] = strings.Join(segments, schema.KeySeparator)
	}
	return keys
}
