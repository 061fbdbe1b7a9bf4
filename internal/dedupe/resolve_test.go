package dedupe

import (
	"testing"

	"github.com/fielddata/visitdedupe/internal/table"
)

func TestResolveFirstOccurrenceWins(t *testing.T) {
	columns := []string{"CHILD ID", "REMARKS"}
	tab := table.New(columns)
	tab.Append(textRow(columns, "A", "first"))
	tab.Append(textRow(columns, "B", ""))
	tab.Append(textRow(columns, "A", "later and fuller")) // still discarded
	tab.Append(textRow(columns, "D", ""))

	keys := []string{"A", "B", "A", "D"}
	deduped, removed, stats := Resolve(tab, keys)

	if stats.RowsBefore != 4 || stats.RowsAfter != 3 || stats.Removed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.RowsBefore != stats.RowsAfter+stats.Removed {
		t.Fatalf("partition not exhaustive: %+v", stats)
	}

	order := []string{"A", "B", "D"}
	for i, want := range order {
		if got := deduped.Rows[i].Get("CHILD ID").String(); got != want {
			t.Fatalf("deduped row %d = %q, want %q", i, got, want)
		}
	}
	if deduped.Rows[0].Get("REMARKS").String() != "first" {
		t.Fatalf("kept occurrence is not the earliest")
	}
	if removed.Len() != 1 || removed.Rows[0].Get("REMARKS").String() != "later and fuller" {
		t.Fatalf("unexpected removed partition: %+v", removed.Rows)
	}
}

func TestResolvePreservesOrderWithinPartitions(t *testing.T) {
	columns := []string{"ID"}
	tab := table.New(columns)
	for _, id := range []string{"1", "2", "1", "2", "1"} {
		tab.Append(textRow(columns, id))
	}

	deduped, removed, stats := Resolve(tab, []string{"1", "2", "1", "2", "1"})

	if deduped.Len() != 2 || removed.Len() != 3 {
		t.Fatalf("unexpected partition sizes: %+v", stats)
	}
	wantRemoved := []string{"1", "2", "1"}
	for i, want := range wantRemoved {
		if got := removed.Rows[i].Get("ID").String(); got != want {
			t.Fatalf("removed row %d = %q, want %q", i, got, want)
		}
	}
}

func TestResolveEmptyTable(t *testing.T) {
	tab := table.New([]string{"ID"})
	deduped, removed, stats := Resolve(tab, nil)

	if stats.RowsBefore != 0 || stats.RowsAfter != 0 || stats.Removed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if deduped.Len() != 0 || removed.Len() != 0 {
		t.Fatalf("expected empty partitions")
	}
}

func TestResolveIdempotent(t *testing.T) {
	columns := []string{"ID"}
	tab := table.New(columns)
	for _, id := range []string{"x", "y", "x"} {
		tab.Append(textRow(columns, id))
	}

	deduped, _, _ := Resolve(tab, []string{"x", "y", "x"})

	// Re-running over the deduped partition removes nothing further.
	keys := make([]string, deduped.Len())
	for i, row := range deduped.Rows {
		keys[i] = row.Get("ID").String()
	}
	again, removed, stats := Resolve(deduped, keys)
	if removed.Len() != 0 || stats.Removed != 0 {
		t.Fatalf("second pass removed rows: %+v", stats)
	}
	if again.Len() != deduped.Len() {
		t.Fatalf("second pass changed row count")
	}
}
