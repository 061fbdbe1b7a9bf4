package dedupe

import "github.com/fielddata/visitdedupe/internal/table"

// Stats counts the partition produced by one run. RowsBefore equals
// RowsAfter + Removed by construction.
type Stats struct {
	RowsBefore int `json:"rows_before"`
	RowsAfter  int `json:"rows_after"`
	Removed    int `json:"removed"`
}

// Resolve partitions rows into first occurrences per key and later
// occurrences per key, both in original relative order. One pass: a row's
// rank is the per-key occurrence count at read time; rank 0 is kept,
// rank > 0 is removed. Keys are bookkeeping only and never enter either
// output table.
func Resolve(t *table.Table, keys []string) (deduped, removed *table.Table, stats Stats) {
	deduped = table.New(t.Columns)
	removed = table.New(t.Columns)

	ranks := make(map[string]int, len(t.Rows))
	for idx, row := range t.Rows {
		key := keys[idx]
		if ranks[key] == 0 {
			deduped.Append(row)
		} else {
			removed.Append(row)
		}
		ranks[key]++
	}

	stats = Stats{
		RowsBefore: t.Len(),
		RowsAfter:  deduped.Len(),
		Removed:    removed.Len(),
	}
	return deduped, removed, stats
}
