// Package dedupe implements the normalization-and-deduplication pipeline for
// house visit exports: sanitize, normalize against the declared schema, build
// composite keys, and split first occurrences from later ones.
package dedupe

import (
	"github.com/fielddata/visitdedupe/internal/schema"
	"github.com/fielddata/visitdedupe/internal/table"
)

// Result carries the two partitions of one run plus its row counts.
type Result struct {
	Deduped *table.Table
	Removed *table.Table
	Stats   Stats
}

// Run executes the pipeline over one parsed table. Every stage is total: the
// table is mutated in place through sanitization and normalization, then split
// by the resolver. Run never fails; malformed values degrade to blank at the
// cell level.
func Run(t *table.Table, s schema.Schema) Result {
	Sanitize(t)
	Normalize(t, s)
	keys := BuildKeys(t, s.KeyColumns)
	deduped, removed, stats := Resolve(t, keys)
	return Result{
		Deduped: deduped,
		Removed: removed,
		Stats:   stats,
	}
}
